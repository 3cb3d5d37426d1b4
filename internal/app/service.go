package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"binanceDataCollector/config"
	"binanceDataCollector/internal/domain"
	"binanceDataCollector/internal/extract"
	"binanceDataCollector/internal/locate"
	"binanceDataCollector/internal/merge"
	"binanceDataCollector/internal/ports"
)

// Failed archives are reported by name, capped to keep run summaries short.
const failedDisplayLimit = 5

// CollectorService sequences locate, fetch, extract and merge for each
// configured symbol, strictly one archive at a time.
type CollectorService struct {
	cfg      *config.Config
	logger   ports.Logger
	archives ports.ArchiveSource
	exchange ports.ExchangeClient // optional; enables the current-month tail fill
	runRepo  ports.RunRepository  // optional; records run outcomes
	locator  *locate.Locator
	merger   *merge.Engine
}

// NewCollectorService creates the application service. The exchange client
// and run repository may be nil, which disables tail fill and run recording
// respectively.
func NewCollectorService(
	cfg *config.Config,
	logger ports.Logger,
	archives ports.ArchiveSource,
	exchange ports.ExchangeClient,
	runRepo ports.RunRepository,
) (*CollectorService, error) {
	if cfg == nil || logger == nil || archives == nil {
		return nil, fmt.Errorf("missing required dependencies for CollectorService")
	}

	merger, err := merge.NewEngine(merge.Config{Logger: logger})
	if err != nil {
		return nil, err
	}

	return &CollectorService{
		cfg:      cfg,
		logger:   logger,
		archives: archives,
		exchange: exchange,
		runRepo:  runRepo,
		locator:  locate.New(locate.Config{Source: archives, Logger: logger}),
		merger:   merger,
	}, nil
}

// Run collects every configured symbol sequentially, fully completing and
// cleaning up one before starting the next.
func (s *CollectorService) Run(ctx context.Context) ([]*domain.CollectionResult, error) {
	var results []*domain.CollectionResult
	for _, symbol := range s.cfg.Symbols {
		res, err := s.Collect(ctx, symbol)
		if err != nil {
			return results, err
		}
		if res != nil {
			results = append(results, res)
		}
	}
	return results, nil
}

// Collect builds the merged dataset for one symbol. A run that produces no
// data returns (nil, nil); only catastrophic failures (such as being unable
// to write the output file) return an error.
func (s *CollectorService) Collect(ctx context.Context, symbol string) (*domain.CollectionResult, error) {
	interval := s.cfg.Interval
	s.logger.Info(ctx, "Starting collection", map[string]interface{}{
		"symbol":   symbol,
		"interval": interval,
	})

	refs, strategy := s.locator.Locate(ctx, symbol, interval)
	if len(refs) == 0 {
		s.logger.Warn(ctx, "No archives to collect", map[string]interface{}{"symbol": symbol})
		return nil, nil
	}

	scratchDir := filepath.Join(s.cfg.ScratchDir, "temp_"+symbol)
	extractor, err := extract.New(scratchDir, s.logger)
	if err != nil {
		return nil, err
	}
	// The scratch area is owned by this run and removed on every exit path.
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			s.logger.Warn(ctx, "Failed to remove scratch directory", map[string]interface{}{
				"path":  scratchDir,
				"error": err.Error(),
			})
		}
	}()

	res := &domain.CollectionResult{Symbol: symbol, Interval: interval, Attempted: len(refs)}
	var batches []*domain.Batch

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("collection interrupted: %w", err)
		}

		raw, err := s.archives.Fetch(ctx, ref)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				res.Skipped++
				continue
			}
			res.Failed++
			res.FailedArchives = append(res.FailedArchives, ref.FileName())
			continue
		}

		batch, err := extractor.Extract(ctx, raw, ref)
		if err != nil {
			s.logger.Warn(ctx, "Archive extraction failed", map[string]interface{}{
				"archive": ref.FileName(),
				"error":   err.Error(),
			})
			res.Failed++
			res.FailedArchives = append(res.FailedArchives, ref.FileName())
			continue
		}
		if batch == nil {
			res.Skipped++
			continue
		}

		batches = append(batches, batch)
		res.Fetched++
	}

	s.logger.Info(ctx, "Archive pass finished", map[string]interface{}{
		"symbol":    symbol,
		"strategy":  string(strategy),
		"attempted": res.Attempted,
		"fetched":   res.Fetched,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
	})
	if len(res.FailedArchives) > 0 {
		shown := res.FailedArchives
		if len(shown) > failedDisplayLimit {
			shown = shown[:failedDisplayLimit]
		}
		s.logger.Warn(ctx, "Some archives could not be collected", map[string]interface{}{
			"symbol": symbol,
			"count":  len(res.FailedArchives),
			"first":  shown,
		})
	}

	if batch := s.tailFill(ctx, symbol, interval); batch != nil {
		batches = append(batches, batch)
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", s.cfg.OutputDir, err)
	}
	outputPath := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("%s_%s_full.csv", symbol, interval))

	ds, stats, err := s.merger.Merge(ctx, symbol, interval, batches, outputPath)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		s.logger.Warn(ctx, "Collection produced no data", map[string]interface{}{"symbol": symbol})
		return nil, nil
	}

	res.RowsRetained = stats.Retained
	res.DroppedInvalid = stats.DroppedInvalid
	res.DroppedDuplicates = stats.DroppedDuplicates
	res.FirstOpenTime = ds.First()
	res.LastOpenTime = ds.Last()
	res.OutputPath = outputPath
	res.FinishedAt = time.Now().UTC()

	if s.runRepo != nil {
		if _, err := s.runRepo.RecordRun(ctx, res); err != nil {
			s.logger.Warn(ctx, "Failed to record collection run", map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			})
		}
	}

	s.logger.Info(ctx, "Collection finished", map[string]interface{}{
		"symbol": symbol,
		"rows":   res.RowsRetained,
		"first":  stats.FirstDatetime,
		"last":   stats.LastDatetime,
		"output": outputPath,
	})
	return res, nil
}

// tailFill fetches the current month through the REST API, which the monthly
// archives do not cover yet. Failures are non-fatal; the archive data alone
// is still a valid dataset.
func (s *CollectorService) tailFill(ctx context.Context, symbol, interval string) *domain.Batch {
	if s.exchange == nil {
		return nil
	}

	end := time.Now().UTC()
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)

	rows, err := s.exchange.GetKlinesRange(ctx, symbol, interval, start, end)
	if err != nil {
		s.logger.Warn(ctx, "Current-month tail fetch failed", map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		})
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	s.logger.Info(ctx, "Current-month tail fetched", map[string]interface{}{
		"symbol": symbol,
		"rows":   len(rows),
	})
	return &domain.Batch{
		Source: fmt.Sprintf("api:%s-%s-%s", symbol, interval, start.Format("2006-01")),
		Rows:   rows,
	}
}
