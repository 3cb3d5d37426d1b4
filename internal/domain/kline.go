package domain

// Column positions of a raw monthly kline row. Archive rows carry no header;
// the layout is fixed and positional.
const (
	ColOpenTime = iota
	ColOpen
	ColHigh
	ColLow
	ColClose
	ColVolume
	ColCloseTime
	ColQuoteVolume
	ColTrades
	ColTakerBuyBase
	ColTakerBuyQuote
	ColIgnore

	NumColumns = 12
)

// ColumnNames lists the raw columns in their positional order.
var ColumnNames = []string{
	"open_time", "open", "high", "low", "close", "volume",
	"close_time", "quote_volume", "trades", "taker_buy_base",
	"taker_buy_quote", "ignore",
}

// Row is one raw kline row, fields kept as published (strings) until merge.
type Row []string

// Batch is the decoded contents of one archive (or one API tail fetch),
// owned transiently until merge.
type Batch struct {
	Source string // archive file name or API range description
	Rows   []Row
}

// MergedRow pairs the coerced open_time with the original raw fields.
type MergedRow struct {
	OpenTime int64 // epoch milliseconds
	Fields   Row
}

// Dataset is the canonical merged output for one (symbol, interval) pair:
// rows strictly ascending by OpenTime, one row per distinct OpenTime.
type Dataset struct {
	Symbol   string
	Interval string
	Rows     []MergedRow
}

// First returns the earliest open_time in the dataset, in epoch milliseconds.
func (d *Dataset) First() int64 {
	if len(d.Rows) == 0 {
		return 0
	}
	return d.Rows[0].OpenTime
}

// Last returns the latest open_time in the dataset, in epoch milliseconds.
func (d *Dataset) Last() int64 {
	if len(d.Rows) == 0 {
		return 0
	}
	return d.Rows[len(d.Rows)-1].OpenTime
}
