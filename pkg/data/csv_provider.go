package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// CSVProvider implements DataProvider for CSV files
type CSVProvider struct {
	format CSVColumnMapping
	log    *logger.Logger
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider() *CSVProvider {
	return NewCSVProviderWithFormat(DefaultCSVFormat)
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{
		format: format,
		log:    logger.Default(),
	}
}

// WithLogger replaces the provider's logger
func (p *CSVProvider) WithLogger(l *logger.Logger) *CSVProvider {
	p.log = logger.OrDefault(l)
	return p
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads historical data from a CSV file
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", source, err)
	}
	defer file.Close()

	return p.read(file)
}

func (p *CSVProvider) read(r io.Reader) ([]types.OHLCV, error) {
	format := p.format
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var data []types.OHLCV

	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < format.MinColumns {
			p.log.Warning("insufficient columns at line %d (expected %d, got %d), skipping", lineNum, format.MinColumns, len(record))
			continue
		}

		timestamp, err := parseTimestamp(record[format.TimestampCol], format.DateFormat, format.Location)
		if err != nil {
			p.log.Warning("invalid timestamp '%s' at line %d, skipping: %v", record[format.TimestampCol], lineNum, err)
			continue
		}

		values := make([]float64, 5)
		cols := []int{format.OpenCol, format.HighCol, format.LowCol, format.CloseCol, format.VolumeCol}
		valid := true
		for i, col := range cols {
			v, err := strconv.ParseFloat(record[col], 64)
			if err != nil {
				p.log.Warning("invalid number '%s' at line %d, skipping: %v", record[col], lineNum, err)
				valid = false
				break
			}
			values[i] = v
		}
		if !valid {
			continue
		}

		bar := types.OHLCV{
			Timestamp: timestamp,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		}
		if err := validateBar(bar); err != nil {
			p.log.Warning("line %d: %v, skipping", lineNum, err)
			continue
		}

		data = append(data, bar)
	}

	return data, nil
}

// parseTimestamp accepts the configured layout, RFC3339, or unix epoch seconds/milliseconds.
// Zoneless layouts are read in loc and returned in UTC.
func parseTimestamp(s, layout string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(layout, s, loc); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}

func validateBar(candle types.OHLCV) error {
	if candle.Open <= 0 || candle.High <= 0 || candle.Low <= 0 || candle.Close <= 0 {
		return fmt.Errorf("prices must be positive")
	}
	if candle.Volume < 0 {
		return fmt.Errorf("volume must be non-negative")
	}
	if candle.High < candle.Low {
		return fmt.Errorf("high (%.4f) cannot be less than low (%.4f)", candle.High, candle.Low)
	}
	if candle.High < candle.Open || candle.High < candle.Close {
		return fmt.Errorf("high (%.4f) must be >= open (%.4f) and close (%.4f)", candle.High, candle.Open, candle.Close)
	}
	if candle.Low > candle.Open || candle.Low > candle.Close {
		return fmt.Errorf("low (%.4f) must be <= open (%.4f) and close (%.4f)", candle.Low, candle.Open, candle.Close)
	}
	return nil
}

// ValidateData validates the integrity of loaded data
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, candle := range data {
		if err := validateBar(candle); err != nil {
			return fmt.Errorf("invalid price data at index %d: %w", i, err)
		}
		if i > 0 && !candle.Timestamp.After(data[i-1].Timestamp) {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be strictly increasing", i)
		}
	}

	return nil
}
