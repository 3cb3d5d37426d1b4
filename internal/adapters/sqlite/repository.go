package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"binanceDataCollector/internal/domain"
	"binanceDataCollector/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.RunRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/collector.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite run repository ready", map[string]interface{}{"path": dbPath})
	return repo, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS collection_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		attempted INTEGER NOT NULL,
		fetched INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		rows_retained INTEGER NOT NULL,
		dropped_invalid INTEGER NOT NULL,
		dropped_duplicates INTEGER NOT NULL,
		first_open_time INTEGER NOT NULL,
		last_open_time INTEGER NOT NULL,
		output_path TEXT NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_symbol_finished ON collection_runs(symbol, finished_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrQueryFailed, err)
	}
	return nil
}

// RecordRun saves a finished collection run and returns its assigned ID.
func (r *Repository) RecordRun(ctx context.Context, res *domain.CollectionResult) (int64, error) {
	const query = `
	INSERT INTO collection_runs (
		symbol, interval, attempted, fetched, skipped, failed,
		rows_retained, dropped_invalid, dropped_duplicates,
		first_open_time, last_open_time, output_path, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	finishedAt := res.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		res.Symbol, res.Interval, res.Attempted, res.Fetched, res.Skipped, res.Failed,
		res.RowsRetained, res.DroppedInvalid, res.DroppedDuplicates,
		res.FirstOpenTime, res.LastOpenTime, res.OutputPath, finishedAt,
	)
	if err != nil {
		err = fmt.Errorf("failed to record collection run: %w: %w", ports.ErrQueryFailed, err)
		r.logger.Error(ctx, err, "RecordRun failed", map[string]interface{}{"symbol": res.Symbol})
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w: %w", ports.ErrQueryFailed, err)
	}
	return id, nil
}

// FindBySymbol retrieves the most recent runs for a symbol, newest first.
func (r *Repository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.CollectionResult, error) {
	const query = `
	SELECT symbol, interval, attempted, fetched, skipped, failed,
	       rows_retained, dropped_invalid, dropped_duplicates,
	       first_open_time, last_open_time, output_path, finished_at
	FROM collection_runs
	WHERE symbol = ?
	ORDER BY finished_at DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		err = fmt.Errorf("failed to query collection runs: %w: %w", ports.ErrQueryFailed, err)
		r.logger.Error(ctx, err, "FindBySymbol failed", map[string]interface{}{"symbol": symbol})
		return nil, err
	}
	defer rows.Close()

	var results []*domain.CollectionResult
	for rows.Next() {
		res := &domain.CollectionResult{}
		if err := rows.Scan(
			&res.Symbol, &res.Interval, &res.Attempted, &res.Fetched, &res.Skipped, &res.Failed,
			&res.RowsRetained, &res.DroppedInvalid, &res.DroppedDuplicates,
			&res.FirstOpenTime, &res.LastOpenTime, &res.OutputPath, &res.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan collection run: %w: %w", ports.ErrQueryFailed, err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collection runs: %w: %w", ports.ErrQueryFailed, err)
	}
	return results, nil
}
