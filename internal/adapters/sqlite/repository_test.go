package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binanceDataCollector/internal/domain"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(Config{
		DBPath: filepath.Join(t.TempDir(), "collector.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleResult(symbol string, finishedAt time.Time) *domain.CollectionResult {
	return &domain.CollectionResult{
		Symbol:            symbol,
		Interval:          "4h",
		Attempted:         90,
		Fetched:           85,
		Skipped:           4,
		Failed:            1,
		RowsRetained:      15000,
		DroppedInvalid:    3,
		DroppedDuplicates: 12,
		FirstOpenTime:     1502942400000,
		LastOpenTime:      1717200000000,
		OutputPath:        "./data/" + symbol + "_4h_full.csv",
		FinishedAt:        finishedAt,
	}
}

func TestRecordRunAndFindBySymbol(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res := sampleResult("BTCUSDT", time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC))
	id, err := repo.RecordRun(ctx, res)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	found, err := repo.FindBySymbol(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	got := found[0]
	assert.Equal(t, "BTCUSDT", got.Symbol)
	assert.Equal(t, "4h", got.Interval)
	assert.Equal(t, 90, got.Attempted)
	assert.Equal(t, 85, got.Fetched)
	assert.Equal(t, 4, got.Skipped)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 15000, got.RowsRetained)
	assert.Equal(t, 3, got.DroppedInvalid)
	assert.Equal(t, 12, got.DroppedDuplicates)
	assert.Equal(t, int64(1502942400000), got.FirstOpenTime)
	assert.Equal(t, int64(1717200000000), got.LastOpenTime)
	assert.Equal(t, res.OutputPath, got.OutputPath)
	assert.True(t, got.FinishedAt.Equal(res.FinishedAt))
}

func TestFindBySymbolOrdersNewestFirstAndLimits(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := repo.RecordRun(ctx, sampleResult("ETHUSDT", base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	found, err := repo.FindBySymbol(ctx, "ETHUSDT", 2)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.True(t, found[0].FinishedAt.After(found[1].FinishedAt))
}

func TestFindBySymbolFiltersBySymbol(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.RecordRun(ctx, sampleResult("BTCUSDT", time.Now().UTC()))
	require.NoError(t, err)

	found, err := repo.FindBySymbol(ctx, "ETHUSDT", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRecordRunFillsFinishedAtWhenZero(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	res := sampleResult("BTCUSDT", time.Time{})
	_, err := repo.RecordRun(ctx, res)
	require.NoError(t, err)

	found, err := repo.FindBySymbol(ctx, "BTCUSDT", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.False(t, found[0].FinishedAt.IsZero())
}
