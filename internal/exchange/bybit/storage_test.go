package bybit

import (
	"context"
	"errors"
	"testing"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	klines []Kline // ascending
	calls  int
	fail   []error
}

// GetKlines mimics the endpoint: newest first, at most Limit rows ending at End
func (f *fakeSource) GetKlines(_ context.Context, params KlineParams) ([]Kline, error) {
	f.calls++
	if len(f.fail) > 0 {
		err := f.fail[0]
		f.fail = f.fail[1:]
		return nil, err
	}
	var out []Kline
	for i := len(f.klines) - 1; i >= 0 && len(out) < params.Limit; i-- {
		k := f.klines[i]
		if params.End != nil && k.StartTime.After(*params.End) {
			continue
		}
		if params.Start != nil && k.StartTime.Before(*params.Start) {
			break
		}
		out = append(out, k)
	}
	return out, nil
}

func makeKlines(n int, t0 time.Time) []Kline {
	out := make([]Kline, n)
	for i := range out {
		p := 100 + float64(i%50)
		out[i] = Kline{StartTime: t0.Add(time.Duration(i) * time.Minute), OpenPrice: p, HighPrice: p + 1, LowPrice: p - 1, ClosePrice: p, Volume: 1}
	}
	return out
}

func TestKlineStorage_Pages(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{klines: makeKlines(2500, t0)}
	s := newKlineStorage(src, logger.Discard())

	bars, err := s.LoadMarketData(context.Background(), "BTCUSDT", "1m", t0, t0.Add(2499*time.Minute))
	require.NoError(t, err)

	require.Len(t, bars, 2500)
	assert.Equal(t, t0, bars[0].Timestamp)
	assert.True(t, bars[1].Timestamp.After(bars[0].Timestamp))
	assert.Equal(t, 3, src.calls)
}

func TestKlineStorage_RetriesRateLimit(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{
		klines: makeKlines(10, t0),
		fail:   []error{&BybitError{Code: ErrCodeRateLimitExceeded, Message: "slow down"}},
	}
	s := newKlineStorage(src, logger.Discard())
	s.retry.InitialDelay = time.Millisecond

	bars, err := s.LoadMarketData(context.Background(), "BTCUSDT", "1m", time.Time{}, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, bars, 10)
	assert.Equal(t, 2, src.calls)
}

func TestKlineStorage_PermanentError(t *testing.T) {
	src := &fakeSource{fail: []error{errors.New("boom")}}
	s := newKlineStorage(src, logger.Discard())

	_, err := s.LoadMarketData(context.Background(), "BTCUSDT", "1h", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestKlineStorage_UnsupportedTimeframe(t *testing.T) {
	s := newKlineStorage(&fakeSource{}, logger.Discard())

	_, err := s.LoadMarketData(context.Background(), "BTCUSDT", "7m", time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestParseKlineResponse(t *testing.T) {
	resp := &bybit_api.ServerResponse{
		RetCode: 0,
		Result: map[string]interface{}{
			"symbol":   "BTCUSDT",
			"category": "spot",
			"list": [][]string{
				{"1704067260000", "101", "102", "100", "101.5", "3", "300"},
				{"1704067200000", "100", "101", "99", "100.5", "2", "200"},
				{"short"},
			},
		},
	}

	klines, err := parseKlineResponse(resp)
	require.NoError(t, err)
	require.Len(t, klines, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), klines[0].StartTime)
	assert.Equal(t, 101.5, klines[0].ClosePrice)

	_, err = parseKlineResponse(&bybit_api.ServerResponse{RetCode: 10001, RetMsg: "params error"})
	assert.Error(t, err)

	_, err = parseKlineResponse("nope")
	assert.Error(t, err)
}

func TestIntervalForTimeframe(t *testing.T) {
	iv, err := IntervalForTimeframe("4h")
	require.NoError(t, err)
	assert.Equal(t, Interval4h, iv)

	iv, err = IntervalForTimeframe("1D")
	require.NoError(t, err)
	assert.Equal(t, Interval1d, iv)
}
