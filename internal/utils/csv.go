package utils

import (
	"encoding/csv"
	"os"
	"strconv"

	"binanceDataCollector/internal/domain"
)

// WriteDataset persists a merged dataset as delimited text with a header row
// and no index column. The derived datetime leads, followed by open_time and
// the remaining raw columns in their original relative order.
func WriteDataset(ds *domain.Dataset, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := append([]string{"datetime"}, domain.ColumnNames...)
	if err := writer.Write(header); err != nil {
		return err
	}

	record := make([]string, 0, domain.NumColumns+1)
	for _, r := range ds.Rows {
		record = record[:0]
		record = append(record, domain.UTCDatetime(r.OpenTime))
		record = append(record, strconv.FormatInt(r.OpenTime, 10))
		record = append(record, r.Fields[domain.ColOpen:]...)
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
