// Package merge turns the full set of extracted row batches into one
// canonical, monotonically time-ordered dataset.
package merge

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"binanceDataCollector/internal/domain"
	"binanceDataCollector/internal/ports"
	"binanceDataCollector/internal/utils"
)

// MinOpenTime is the earliest accepted open_time: 2009-01-01T00:00:00Z, the
// Bitcoin genesis year. Anything earlier is corrupt data.
const MinOpenTime int64 = 1230768000000

// maxFutureWindow bounds how far past the run time an open_time may lie.
const maxFutureWindow = 365 * 24 * time.Hour

// Stats summarizes one merge pass.
type Stats struct {
	Retained          int
	DroppedInvalid    int
	DroppedDuplicates int
	SkippedBatches    int
	FirstDatetime     string
	LastDatetime      string
}

// Engine merges row batches into a dataset and persists it.
type Engine struct {
	logger ports.Logger
	now    func() time.Time
}

// Config holds the engine dependencies.
type Config struct {
	Logger ports.Logger
	Now    func() time.Time // defaults to time.Now
}

// NewEngine creates a merge engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for merge engine")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{logger: cfg.Logger, now: now}, nil
}

// parseOpenTime coerces a raw open_time field to epoch milliseconds.
// The bool result reports whether the coercion succeeded.
func parseOpenTime(s string) (int64, bool) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	// Some published rows carry the timestamp with a fractional part.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// Merge concatenates all batches, validates and repairs timestamps, sorts,
// de-duplicates by open_time (first occurrence wins) and persists the result
// to outputPath as delimited text with a header row.
//
// Zero input batches is an expected absence: no file is produced and all
// returns are nil.
func (e *Engine) Merge(ctx context.Context, symbol, interval string, batches []*domain.Batch, outputPath string) (*domain.Dataset, *Stats, error) {
	if len(batches) == 0 {
		return nil, nil, nil
	}

	stats := &Stats{}
	maxOpenTime := e.now().Add(maxFutureWindow).UnixMilli()

	var rows []domain.MergedRow
	for _, batch := range batches {
		if !conforms(batch) {
			stats.SkippedBatches++
			e.logger.Warn(ctx, "Skipping batch with unexpected column schema", map[string]interface{}{
				"source": batch.Source,
			})
			continue
		}
		for _, raw := range batch.Rows {
			ts, ok := parseOpenTime(raw[domain.ColOpenTime])
			if !ok || ts < MinOpenTime || ts > maxOpenTime {
				stats.DroppedInvalid++
				continue
			}
			rows = append(rows, domain.MergedRow{OpenTime: ts, Fields: raw})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OpenTime < rows[j].OpenTime })

	// One row per distinct open_time; the stable sort keeps the earliest
	// listed duplicate first.
	deduped := rows[:0]
	var prev int64 = -1
	for _, r := range rows {
		if r.OpenTime == prev {
			stats.DroppedDuplicates++
			continue
		}
		deduped = append(deduped, r)
		prev = r.OpenTime
	}

	stats.Retained = len(deduped)
	if stats.Retained == 0 {
		e.logger.Warn(ctx, "No valid rows survived the merge", map[string]interface{}{
			"symbol":         symbol,
			"droppedInvalid": stats.DroppedInvalid,
		})
		return nil, nil, nil
	}

	ds := &domain.Dataset{Symbol: symbol, Interval: interval, Rows: deduped}
	stats.FirstDatetime = domain.UTCDatetime(ds.First())
	stats.LastDatetime = domain.UTCDatetime(ds.Last())

	if err := utils.WriteDataset(ds, outputPath); err != nil {
		return nil, nil, fmt.Errorf("writing dataset to %s: %w", outputPath, err)
	}

	e.logger.Info(ctx, "Dataset merged", map[string]interface{}{
		"symbol":            symbol,
		"retained":          stats.Retained,
		"droppedInvalid":    stats.DroppedInvalid,
		"droppedDuplicates": stats.DroppedDuplicates,
		"skippedBatches":    stats.SkippedBatches,
		"first":             stats.FirstDatetime,
		"last":              stats.LastDatetime,
		"output":            outputPath,
	})
	return ds, stats, nil
}

// conforms reports whether every row of the batch matches the fixed column
// schema.
func conforms(batch *domain.Batch) bool {
	for _, r := range batch.Rows {
		if len(r) != domain.NumColumns {
			return false
		}
	}
	return true
}
