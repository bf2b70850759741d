package data

import (
	"context"
	"fmt"
	"time"

	bterrors "github.com/ducminhle1904/upbit-backtester/internal/errors"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// CSVStorage serves market data from CSV files, either one fixed file or
// files found under a data root by symbol and timeframe.
type CSVStorage struct {
	provider DataProvider
	locator  FileLocator
	dataRoot string
	file     string
	log      *logger.Logger
}

var _ MarketDataStorage = (*CSVStorage)(nil)

// NewCSVStorage serves every request from a single file
func NewCSVStorage(file string, l *logger.Logger) *CSVStorage {
	l = logger.OrDefault(l)
	return &CSVStorage{
		provider: NewCachedProvider(NewCSVProvider().WithLogger(l), l),
		locator:  NewDefaultFileLocator(),
		file:     file,
		log:      l,
	}
}

// WithFormat switches the column layout used to parse files
func (s *CSVStorage) WithFormat(format CSVColumnMapping) *CSVStorage {
	s.provider = NewCachedProvider(NewCSVProviderWithFormat(format).WithLogger(s.log), s.log)
	return s
}

// NewCSVStorageRoot resolves a file per symbol/timeframe under dataRoot
func NewCSVStorageRoot(dataRoot string, l *logger.Logger) *CSVStorage {
	s := NewCSVStorage("", l)
	s.dataRoot = dataRoot
	return s
}

// LoadMarketData implements MarketDataStorage
func (s *CSVStorage) LoadMarketData(_ context.Context, symbol, timeframe string, start, end time.Time) ([]types.OHLCV, error) {
	path := s.file
	if path == "" {
		path = s.locator.FindDataFile(s.dataRoot, symbol, timeframe)
		if path == "" {
			return nil, bterrors.NewDataError("csv_storage", "LoadMarketData",
				fmt.Errorf("no data file for %s %s under %s", symbol, timeframe, s.dataRoot))
		}
	}

	bars, err := s.provider.LoadData(path)
	if err != nil {
		return nil, bterrors.NewDataError("csv_storage", "LoadMarketData", err)
	}

	bars = FilterByDateRange(Normalize(bars), start, end)
	s.log.Info("%s %s: %d bars in range", symbol, timeframe, len(bars))
	return bars, nil
}

// MemoryStorage serves fixed bars; useful for tests and for data fetched elsewhere
type MemoryStorage struct {
	bars map[string][]types.OHLCV
}

var _ MarketDataStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{bars: make(map[string][]types.OHLCV)}
}

// Put stores bars for a symbol/timeframe pair
func (m *MemoryStorage) Put(symbol, timeframe string, bars []types.OHLCV) {
	m.bars[symbol+"|"+timeframe] = Normalize(bars)
}

// LoadMarketData implements MarketDataStorage
func (m *MemoryStorage) LoadMarketData(_ context.Context, symbol, timeframe string, start, end time.Time) ([]types.OHLCV, error) {
	bars, ok := m.bars[symbol+"|"+timeframe]
	if !ok {
		return nil, bterrors.NewDataError("memory_storage", "LoadMarketData",
			fmt.Errorf("no data for %s %s", symbol, timeframe))
	}
	out := make([]types.OHLCV, len(bars))
	copy(out, bars)
	return FilterByDateRange(out, start, end), nil
}
