package domain

import "time"

// CollectionResult is the per-symbol outcome of one collection run.
type CollectionResult struct {
	Symbol   string
	Interval string

	Attempted int // archives the fetcher was asked for
	Fetched   int // archives that yielded a row batch
	Skipped   int // expected misses (404, empty archive)
	Failed    int // fetch/extract errors after retries

	// FailedArchives lists the archive names that errored, for reporting.
	FailedArchives []string

	RowsRetained      int
	DroppedInvalid    int
	DroppedDuplicates int

	FirstOpenTime int64 // epoch ms of the earliest retained row
	LastOpenTime  int64 // epoch ms of the latest retained row

	OutputPath string
	FinishedAt time.Time
}
