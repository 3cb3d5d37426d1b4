package ports

import (
	"context"

	"binanceDataCollector/internal/domain"
)

// ArchiveSource provides discovery and retrieval of monthly kline archives
// from a remote bucket-style store.
type ArchiveSource interface {
	// List queries the remote listing endpoint for all published archives of
	// one (symbol, interval) pair. Refs are returned in ascending
	// chronological order. An error means the listing query itself failed;
	// callers are expected to fall back to deterministic generation.
	List(ctx context.Context, symbol, interval string) ([]domain.ArchiveRef, error)

	// Fetch retrieves the raw bytes of one archive. A missing archive is an
	// expected outcome and is reported as an error wrapping ErrNotFound after
	// a single attempt; transient failures are retried internally and only
	// surface once the retry budget is exhausted.
	Fetch(ctx context.Context, ref domain.ArchiveRef) ([]byte, error)
}
