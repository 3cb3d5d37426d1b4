package ports

import (
	"context"

	"binanceDataCollector/internal/domain"
)

// RunRepository stores the outcome of collection runs.
type RunRepository interface {
	// RecordRun saves a finished run and returns its assigned ID.
	RecordRun(ctx context.Context, res *domain.CollectionResult) (int64, error)
	// FindBySymbol retrieves the most recent runs for a symbol, up to a limit,
	// newest first.
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.CollectionResult, error)
}
