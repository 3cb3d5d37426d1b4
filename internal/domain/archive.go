package domain

import (
	"fmt"
	"time"
)

// ArchiveRef identifies one monthly kline archive for a (symbol, interval)
// pair. Produced by the locator, consumed exactly once by the fetcher.
type ArchiveRef struct {
	Symbol   string
	Interval string
	Year     int
	Month    time.Month
}

// FileName returns the published archive name, e.g. "BTCUSDT-4h-2021-03.zip".
func (r ArchiveRef) FileName() string {
	return fmt.Sprintf("%s-%s-%04d-%02d.zip", r.Symbol, r.Interval, r.Year, int(r.Month))
}

// Before reports whether r covers an earlier month than other.
func (r ArchiveRef) Before(other ArchiveRef) bool {
	if r.Year != other.Year {
		return r.Year < other.Year
	}
	return r.Month < other.Month
}
