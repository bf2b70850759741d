package bybit

import (
	"context"
	"fmt"
	"time"

	bterrors "github.com/ducminhle1904/upbit-backtester/internal/errors"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/pkg/data"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// klineSource is the part of Client the storage needs
type klineSource interface {
	GetKlines(ctx context.Context, params KlineParams) ([]Kline, error)
}

// KlineStorage implements data.MarketDataStorage on top of the kline endpoint,
// paging backwards from the end of the requested range.
type KlineStorage struct {
	source   klineSource
	category string
	retry    RetryConfig
	maxPages int
	now      func() time.Time
	log      *logger.Logger
}

var _ data.MarketDataStorage = (*KlineStorage)(nil)

// NewKlineStorage creates a storage reading spot klines through client
func NewKlineStorage(client *Client, l *logger.Logger) *KlineStorage {
	return newKlineStorage(client, l)
}

func newKlineStorage(source klineSource, l *logger.Logger) *KlineStorage {
	return &KlineStorage{
		source:   source,
		category: "spot",
		retry:    DefaultRetryConfig(),
		maxPages: 200,
		now:      time.Now,
		log:      logger.OrDefault(l),
	}
}

// LoadMarketData implements data.MarketDataStorage
func (s *KlineStorage) LoadMarketData(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]types.OHLCV, error) {
	interval, err := IntervalForTimeframe(timeframe)
	if err != nil {
		return nil, bterrors.NewDataError("bybit_storage", "LoadMarketData", err)
	}
	if end.IsZero() {
		end = s.now()
	}

	var bars []types.OHLCV
	cursor := end
	for page := 0; page < s.maxPages; page++ {
		pageEnd := cursor
		params := KlineParams{
			Category: s.category,
			Symbol:   symbol,
			Interval: interval,
			End:      &pageEnd,
			Limit:    MaxKlineLimit,
		}
		if !start.IsZero() {
			pageStart := start
			params.Start = &pageStart
		}

		var klines []Kline
		err := retry(ctx, s.retry, func() error {
			var fetchErr error
			klines, fetchErr = s.source.GetKlines(ctx, params)
			return fetchErr
		})
		if err != nil {
			return nil, bterrors.NewDataError("bybit_storage", "LoadMarketData",
				fmt.Errorf("%s %s page %d: %w", symbol, timeframe, page, err))
		}
		if len(klines) == 0 {
			break
		}

		oldest := klines[0].StartTime
		for _, k := range klines {
			bars = append(bars, types.OHLCV{
				Timestamp: k.StartTime,
				Open:      k.OpenPrice,
				High:      k.HighPrice,
				Low:       k.LowPrice,
				Close:     k.ClosePrice,
				Volume:    k.Volume,
			})
			if k.StartTime.Before(oldest) {
				oldest = k.StartTime
			}
		}

		if len(klines) < MaxKlineLimit || (!start.IsZero() && !oldest.After(start)) {
			break
		}
		cursor = oldest.Add(-time.Millisecond)
	}

	bars = data.FilterByDateRange(data.Normalize(bars), start, end)
	s.log.Info("fetched %d %s %s bars from bybit", len(bars), symbol, timeframe)
	return bars, nil
}
