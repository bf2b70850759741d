package data

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// WriteCSV writes bars in DefaultCSVFormat, creating parent directories.
// Timestamps are written in UTC.
func WriteCSV(path string, bars []types.OHLCV) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		record := []string{
			b.Timestamp.UTC().Format(DefaultCSVFormat.DateFormat),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// DataFilePath is the nested layout FindDataFile checks first
func DataFilePath(dataRoot, symbol, timeframe string) string {
	return filepath.Join(dataRoot, symbol, timeframe, "candles.csv")
}
