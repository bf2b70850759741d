package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// MarketDataStorage loads an OHLCV series for one symbol and timeframe.
// A zero start or end leaves that side of the range open.
type MarketDataStorage interface {
	LoadMarketData(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]types.OHLCV, error)
}

// DataProvider interface for loading historical data from various sources
type DataProvider interface {
	// LoadData loads historical data from the specified source
	LoadData(source string) ([]types.OHLCV, error)

	// ValidateData validates the integrity of the loaded data
	ValidateData(data []types.OHLCV) error

	// GetName returns the name of the data provider
	GetName() string
}

// DataCache interface for caching loaded data
type DataCache interface {
	Get(key string) ([]types.OHLCV, bool)
	Set(key string, data []types.OHLCV)
	Clear()
	Size() int
}

// CSVColumnMapping defines the column positions for different CSV formats
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
	// Location applies to timestamps without a zone; nil means UTC
	Location *time.Location
}

// Predefined CSV formats
var (
	DefaultCSVFormat = CSVColumnMapping{
		TimestampCol: 0,
		OpenCol:      1,
		HighCol:      2,
		LowCol:       3,
		CloseCol:     4,
		VolumeCol:    5,
		MinColumns:   6,
		DateFormat:   "2006-01-02 15:04:05",
	}

	// UpbitCSVFormat matches candle exports with a KST timestamp column first
	UpbitCSVFormat = CSVColumnMapping{
		Location:     time.FixedZone("KST", 9*60*60),
		TimestampCol: 0,
		OpenCol:      1,
		HighCol:      2,
		LowCol:       3,
		CloseCol:     4,
		VolumeCol:    5,
		MinColumns:   6,
		DateFormat:   "2006-01-02T15:04:05",
	}
)

// CSVFormatByName resolves a format name from config: "default" (or empty) and "upbit"
func CSVFormatByName(name string) (CSVColumnMapping, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultCSVFormat, nil
	case "upbit":
		return UpbitCSVFormat, nil
	}
	return CSVColumnMapping{}, fmt.Errorf("unknown csv format %q (supported: default, upbit)", name)
}

// FileLocator finds data files on disk
type FileLocator interface {
	FindDataFile(dataRoot, symbol, timeframe string) string
}
