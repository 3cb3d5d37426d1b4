// Package locate decides which monthly archives a collection run should try:
// the remote listing when it answers, a deterministically generated candidate
// set when it does not.
package locate

import (
	"context"
	"time"

	"binanceDataCollector/internal/domain"
	"binanceDataCollector/internal/ports"
)

// Strategy identifies how an archive list was produced.
type Strategy string

const (
	StrategyListing   Strategy = "listing"
	StrategyGenerated Strategy = "generated"
)

// Symbols started trading in different years; candidates before the start
// year cannot exist.
var startYears = map[string]int{
	"BTCUSDT": 2017,
}

const defaultStartYear = 2018

// Locator produces the ordered set of candidate archives for a symbol.
type Locator struct {
	source ports.ArchiveSource
	logger ports.Logger
	now    func() time.Time
}

// Config holds the locator dependencies.
type Config struct {
	Source ports.ArchiveSource
	Logger ports.Logger
	Now    func() time.Time // defaults to time.Now
}

// New creates a Locator.
func New(cfg Config) *Locator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Locator{source: cfg.Source, logger: cfg.Logger, now: now}
}

// Locate returns the candidate archives for a (symbol, interval) pair in
// ascending chronological order, together with the strategy that produced
// them. The listing query is tried first; any listing failure switches to
// generation and is never surfaced as an error. A successful listing with
// zero entries is returned as-is.
func (l *Locator) Locate(ctx context.Context, symbol, interval string) ([]domain.ArchiveRef, Strategy) {
	refs, err := l.source.List(ctx, symbol, interval)
	if err != nil {
		l.logger.Warn(ctx, "Archive listing failed, generating candidates instead", map[string]interface{}{
			"symbol":   symbol,
			"interval": interval,
			"error":    err.Error(),
		})
		gen := l.Generate(symbol, interval)
		l.logger.Info(ctx, "Candidate archives generated", map[string]interface{}{
			"symbol":   symbol,
			"interval": interval,
			"archives": len(gen),
		})
		return gen, StrategyGenerated
	}
	return refs, StrategyListing
}

// Generate enumerates every (year, month) pair from the symbol's start year
// through the current month inclusive. It never fails and always covers the
// full historical range; some candidates may not exist remotely.
func (l *Locator) Generate(symbol, interval string) []domain.ArchiveRef {
	startYear, ok := startYears[symbol]
	if !ok {
		startYear = defaultStartYear
	}

	end := l.now().UTC()
	var refs []domain.ArchiveRef
	for cur := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC); !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		refs = append(refs, domain.ArchiveRef{
			Symbol:   symbol,
			Interval: interval,
			Year:     cur.Year(),
			Month:    cur.Month(),
		})
	}
	return refs
}
