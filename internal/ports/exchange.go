package ports

import (
	"context"
	"time"

	"binanceDataCollector/internal/domain"
)

// ExchangeClient fetches kline data straight from the exchange REST API.
// Used to top up the dataset with the current month, which the monthly
// archives do not cover yet.
type ExchangeClient interface {
	// GetKlinesRange fetches all klines for a symbol/interval between start
	// and end, paginating as needed, and returns them as raw rows in the
	// archive column layout.
	GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Row, error)
}
