package merge

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binanceDataCollector/internal/domain"
)

type mockLogger struct {
	warnMsgs []string
	infoMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// fixedNow keeps the upper timestamp bound deterministic across test runs.
var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	e, err := NewEngine(Config{Logger: logger, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	return e, logger
}

// row builds a schema-conforming raw row whose non-key fields are tagged so
// tests can tell which duplicate survived.
func row(openTime int64, tag string) domain.Row {
	return domain.Row{
		strconv.FormatInt(openTime, 10),
		"open-" + tag, "high-" + tag, "low-" + tag, "close-" + tag, "vol-" + tag,
		strconv.FormatInt(openTime+1, 10),
		"qv-" + tag, "42", "tb-" + tag, "tq-" + tag, "0",
	}
}

func rawRow(openTime string, tag string) domain.Row {
	r := row(0, tag)
	r[domain.ColOpenTime] = openTime
	return r
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestMergeEmptyInputProducesNothing(t *testing.T) {
	e, _ := newTestEngine(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	ds, stats, err := e.Merge(context.Background(), "BTCUSDT", "4h", nil, out)

	require.NoError(t, err)
	assert.Nil(t, ds)
	assert.Nil(t, stats)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output file may be produced for empty input")
}

func TestMergeFirstSeenWinsAcrossBatches(t *testing.T) {
	e, _ := newTestEngine(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	t1 := MinOpenTime + 100
	t2 := MinOpenTime + 200
	t3 := MinOpenTime + 300
	batchA := &domain.Batch{Source: "a.zip", Rows: []domain.Row{row(t1, "a1"), row(t2, "a2")}}
	batchB := &domain.Batch{Source: "b.zip", Rows: []domain.Row{row(t2, "b1"), row(t3, "b2")}}

	ds, stats, err := e.Merge(context.Background(), "BTCUSDT", "4h", []*domain.Batch{batchA, batchB}, out)

	require.NoError(t, err)
	require.NotNil(t, ds)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, []int64{t1, t2, t3}, []int64{ds.Rows[0].OpenTime, ds.Rows[1].OpenTime, ds.Rows[2].OpenTime})
	// The duplicate open_time keeps batch A's version.
	assert.Equal(t, "open-a2", ds.Rows[1].Fields[domain.ColOpen])
	assert.Equal(t, 1, stats.DroppedDuplicates)
	assert.Equal(t, 3, stats.Retained)
}

func TestMergeSortsAscendingWithoutTies(t *testing.T) {
	e, _ := newTestEngine(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	base := MinOpenTime
	batch := &domain.Batch{Source: "a.zip", Rows: []domain.Row{
		row(base+500, "e"), row(base+100, "a"), row(base+300, "c"),
		row(base+100, "dup"), row(base+400, "d"), row(base+200, "b"),
	}}

	ds, _, err := e.Merge(context.Background(), "BTCUSDT", "4h", []*domain.Batch{batch}, out)

	require.NoError(t, err)
	require.NotNil(t, ds)
	prev := int64(-1)
	for _, r := range ds.Rows {
		assert.Greater(t, r.OpenTime, prev, "rows must be strictly ascending")
		prev = r.OpenTime
	}
}

func TestMergeTimestampBounds(t *testing.T) {
	e, _ := newTestEngine(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	belowMin := MinOpenTime - 1 // 1230767999999
	tooFar := fixedNow.Add(366 * 24 * time.Hour).UnixMilli()
	batch := &domain.Batch{Source: "a.zip", Rows: []domain.Row{
		row(belowMin, "below"),
		row(MinOpenTime, "exact"),
		row(tooFar, "future"),
	}}

	ds, stats, err := e.Merge(context.Background(), "BTCUSDT", "4h", []*domain.Batch{batch}, out)

	require.NoError(t, err)
	require.NotNil(t, ds)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, MinOpenTime, ds.Rows[0].OpenTime)
	assert.Equal(t, 2, stats.DroppedInvalid)
}

func TestMergeDropsUncoercibleTimestamps(t *testing.T) {
	e, _ := newTestEngine(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	// Archives published with a header row surface it as one uncoercible row.
	batch := &domain.Batch{Source: "a.zip", Rows: []domain.Row{
		rawRow("open_time", "header"),
		row(MinOpenTime+100, "ok"),
	}}

	ds, stats, err := e.Merge(context.Background(), "BTCUSDT", "4h", []*domain.Batch{batch}, out)

	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.Len(t, ds.Rows, 1)
	assert.Equal(t, 1, stats.DroppedInvalid)
}

func TestMergeCoercesFractionalTimestamps(t *testing.T) {
	e, _ := newTestEngine(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	ts := MinOpenTime + 100
	batch := &domain.Batch{Source: "a.zip", Rows: []domain.Row{
		rawRow(strconv.FormatInt(ts, 10)+".0", "frac"),
	}}

	ds, _, err := e.Merge(context.Background(), "BTCUSDT", "4h", []*domain.Batch{batch}, out)

	require.NoError(t, err)
	require.NotNil(t, ds)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, ts, ds.Rows[0].OpenTime)
}

func TestMergeSkipsMalformedBatch(t *testing.T) {
	e, logger := newTestEngine(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	good := &domain.Batch{Source: "good.zip", Rows: []domain.Row{row(MinOpenTime+100, "ok")}}
	bad := &domain.Batch{Source: "bad.zip", Rows: []domain.Row{
		row(MinOpenTime+200, "valid"),
		{"1230768000000", "too", "few"},
	}}

	ds, stats, err := e.Merge(context.Background(), "BTCUSDT", "4h", []*domain.Batch{good, bad}, out)

	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.Len(t, ds.Rows, 1, "the malformed batch must be skipped as a whole")
	assert.Equal(t, 1, stats.SkippedBatches)
	assert.NotEmpty(t, logger.warnMsgs)
}

func TestMergeAllRowsInvalidProducesNothing(t *testing.T) {
	e, _ := newTestEngine(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	batch := &domain.Batch{Source: "a.zip", Rows: []domain.Row{rawRow("garbage", "x")}}
	ds, stats, err := e.Merge(context.Background(), "BTCUSDT", "4h", []*domain.Batch{batch}, out)

	require.NoError(t, err)
	assert.Nil(t, ds)
	assert.Nil(t, stats)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMergeWritesHeaderAndDerivedDatetime(t *testing.T) {
	e, _ := newTestEngine(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	ts := MinOpenTime // 2009-01-01T00:00:00Z
	batch := &domain.Batch{Source: "a.zip", Rows: []domain.Row{row(ts, "x")}}

	_, stats, err := e.Merge(context.Background(), "BTCUSDT", "4h", []*domain.Batch{batch}, out)
	require.NoError(t, err)

	records := readCSV(t, out)
	require.Len(t, records, 2)
	assert.Equal(t, []string{
		"datetime", "open_time", "open", "high", "low", "close", "volume",
		"close_time", "quote_volume", "trades", "taker_buy_base",
		"taker_buy_quote", "ignore",
	}, records[0])

	dataRow := records[1]
	assert.Equal(t, "2009-01-01 00:00:00+00:00", dataRow[0])
	assert.Equal(t, strconv.FormatInt(ts, 10), dataRow[1])
	assert.Equal(t, "open-x", dataRow[2])
	assert.Equal(t, domain.UTCDatetime(ts), dataRow[0])
	assert.Equal(t, stats.FirstDatetime, dataRow[0])
	assert.Equal(t, stats.LastDatetime, dataRow[0])
}
