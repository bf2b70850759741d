package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/config"
	bterrors "github.com/ducminhle1904/upbit-backtester/internal/errors"
	"github.com/ducminhle1904/upbit-backtester/internal/indicators"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/internal/strategy"
	"github.com/ducminhle1904/upbit-backtester/pkg/data"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// generateTestData creates one daily bar per close
func generateTestData(closes ...float64) []types.OHLCV {
	bars := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = types.OHLCV{
			Timestamp: t0.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    100,
		}
	}
	return bars
}

// generateWaveData creates a deterministic oscillating series
func generateWaveData(n int) []types.OHLCV {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i)*0.1
	}
	return generateTestData(closes...)
}

func testConfig(fee, slippage float64) *config.BacktestConfig {
	cfg := config.NewDefaultBacktestConfig()
	cfg.Symbol = "KRW-BTC"
	cfg.Timeframe = "1d"
	cfg.InitialCapital = 10000
	cfg.FeeRate = fee
	cfg.Slippage = slippage
	return cfg
}

func signalsAt(n int, at map[int]types.Signal) []types.Signal {
	out := make([]types.Signal, n)
	for i, s := range at {
		out[i] = s
	}
	return out
}

func newTestRunner(t *testing.T, bars []types.OHLCV, signals []types.Signal, cfg *config.BacktestConfig) *Runner {
	t.Helper()
	storage := data.NewMemoryStorage()
	storage.Put(cfg.Symbol, cfg.Timeframe, bars)
	r, err := NewRunner(strategy.NewStatic("fixed", signals), storage, cfg, WithLogger(logger.Discard()))
	require.NoError(t, err)
	return r
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	cfg := testConfig(0, 0)
	cfg.Symbol = ""
	_, err := NewRunner(strategy.NewStatic("fixed", nil), nil, cfg)
	require.Error(t, err)
	assert.True(t, bterrors.IsCategory(err, bterrors.ErrorCategoryConfiguration))

	cfg = testConfig(0, 0)
	cfg.InitialCapital = 0
	_, err = NewRunner(strategy.NewStatic("fixed", nil), nil, cfg)
	assert.True(t, bterrors.IsCategory(err, bterrors.ErrorCategoryConfiguration))

	_, err = NewRunner(nil, nil, testConfig(0, 0))
	assert.True(t, bterrors.IsCategory(err, bterrors.ErrorCategoryConfiguration))
}

func TestFillPrices_AlwaysAdverse(t *testing.T) {
	for _, price := range []float64{0.0001, 1, 97.3, 50_000_000} {
		r := newTestRunner(t, nil, nil, testConfig(0.001, 0.003))

		require.True(t, r.ExecuteBuyOrder(t0, price))
		assert.GreaterOrEqual(t, r.State().Position.EntryPrice, price)

		trade := r.ExecuteSellOrder(t0.Add(time.Hour), price)
		require.NotNil(t, trade)
		assert.LessOrEqual(t, trade.ExitPrice, price)
	}
}

func TestCapitalConservation_FlatToFlat(t *testing.T) {
	const fee, slip = 0.0005, 0.0002
	r := newTestRunner(t, nil, nil, testConfig(fee, slip))
	before := r.State().CurrentCapital
	buy, sell := 123.45, 131.7

	require.True(t, r.ExecuteBuyOrder(t0, buy))
	assert.Zero(t, r.State().CurrentCapital)
	trade := r.ExecuteSellOrder(t0.AddDate(0, 0, 1), sell)
	require.NotNil(t, trade)

	expected := before * (1 - fee) * (sell * (1 - slip)) / (buy * (1 + slip)) * (1 - fee)
	assert.InDelta(t, expected, r.State().CurrentCapital, 1e-9)
	assert.InDelta(t, r.State().CurrentCapital-before, trade.ProfitLoss, 1e-9)
	assert.InDelta(t, trade.EntryFee+trade.ExitFee, trade.TotalFee, 1e-12)
}

func TestOrders_StateMachine(t *testing.T) {
	r := newTestRunner(t, nil, nil, testConfig(0, 0))

	assert.Nil(t, r.ExecuteSellOrder(t0, 100), "sell while flat is a no-op")
	require.True(t, r.ExecuteBuyOrder(t0, 100))
	assert.False(t, r.ExecuteBuyOrder(t0.Add(time.Hour), 100), "no pyramiding")
	assert.Nil(t, r.ExecuteSellOrder(t0, 100), "exit must be after entry")
	assert.NotNil(t, r.ExecuteSellOrder(t0.Add(time.Hour), 100))
	assert.Nil(t, r.State().Position)
}

func TestScenario_SingleWinningTrade(t *testing.T) {
	bars := generateTestData(100, 100, 100, 100, 100, 100, 100, 100, 110, 110)
	signals := signalsAt(10, map[int]types.Signal{5: types.SignalBuy, 8: types.SignalSell})
	r := newTestRunner(t, bars, signals, testConfig(0, 0))

	res, err := r.ExecuteBacktest(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.InDelta(t, 10.0, res.Trades[0].ProfitLossPercent, 1e-9)
	assert.Equal(t, 100.0, res.Metrics.WinRate)
	assert.Equal(t, 1, res.Metrics.WinningTrades)
	assert.InDelta(t, 10.0, res.Metrics.TotalReturnPercent, 1e-9)
	assert.False(t, res.Metrics.HasLosses)
	assert.InDelta(t, 1000.0, res.Metrics.ProfitFactor, 1e-6, "no losses: profit factor equals gross profit")
	assert.True(t, math.IsInf(res.Metrics.SortinoRatio, 1))
	assert.Zero(t, res.Metrics.SharpeRatio)
	assert.Equal(t, 72.0, res.Metrics.AvgHoldingPeriod)

	require.Len(t, res.EquityCurve, 10)
	assert.Equal(t, 10000.0, res.EquityCurve[0].Equity)
	assert.InDelta(t, 11000.0, res.EquityCurve[9].Equity, 1e-6)
	assert.InDelta(t, 11000.0, res.EquityCurve[7].PositionValue+1000, 1e-6)
}

func TestScenario_NoSignals(t *testing.T) {
	bars := generateWaveData(40)
	r := newTestRunner(t, bars, make([]types.Signal, 40), testConfig(0.0005, 0.0002))

	res, err := r.ExecuteBacktest(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	for key, v := range res.Metrics.Values() {
		if key == "final_capital" {
			assert.Equal(t, 10000.0, v)
			continue
		}
		assert.Zero(t, v, key)
	}
	for _, pt := range res.EquityCurve {
		assert.Equal(t, 10000.0, pt.Equity)
	}
}

func TestScenario_ForcedCloseAtEnd(t *testing.T) {
	bars := generateTestData(100, 101, 102, 103, 104, 105)
	signals := signalsAt(6, map[int]types.Signal{4: types.SignalBuy})
	r := newTestRunner(t, bars, signals, testConfig(0.001, 0))

	res, err := r.ExecuteBacktest(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, bars[5].Timestamp, res.Trades[0].ExitTime)
	assert.Equal(t, 105.0, res.Trades[0].ExitPrice)
	assert.Nil(t, r.State().Position)
}

func TestProcessSignals_BuyOnFinalBarIgnored(t *testing.T) {
	bars := generateTestData(100, 101, 102)
	signals := signalsAt(3, map[int]types.Signal{2: types.SignalBuy})
	r := newTestRunner(t, bars, signals, testConfig(0, 0))

	res, err := r.ExecuteBacktest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, 10000.0, r.State().CurrentCapital)
}

func TestTradeWellFormedness(t *testing.T) {
	bars := generateWaveData(300)
	strat, err := strategy.NewSMACross(5, 20)
	require.NoError(t, err)

	storage := data.NewMemoryStorage()
	cfg := testConfig(0.0005, 0.0002)
	storage.Put(cfg.Symbol, cfg.Timeframe, bars)
	r, err := NewRunner(strat, storage, cfg, WithLogger(logger.Discard()),
		WithProcessor(indicators.NewProcessor(logger.Discard())))
	require.NoError(t, err)

	res, err := r.ExecuteBacktest(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)

	ids := make(map[string]bool)
	for _, tr := range res.Trades {
		assert.True(t, tr.ExitTime.After(tr.EntryTime))
		assert.Greater(t, tr.Quantity, 0.0)
		assert.InDelta(t, tr.ProfitLoss/(tr.Quantity*tr.EntryPrice)*100, tr.ProfitLossPercent, 1e-9)
		assert.False(t, ids[tr.ID], "trade ids are unique")
		ids[tr.ID] = true
	}
	assert.Equal(t, len(res.Trades), res.Metrics.WinningTrades+res.Metrics.LosingTrades)
	assert.Len(t, res.Signals, len(bars))
}

func TestExecuteBacktest_RepeatableOnSameRunner(t *testing.T) {
	bars := generateTestData(100, 100, 105, 110, 100, 90, 95)
	signals := signalsAt(7, map[int]types.Signal{1: types.SignalBuy, 3: types.SignalSell, 4: types.SignalBuy})
	r := newTestRunner(t, bars, signals, testConfig(0.0005, 0.0002))

	first, err := r.ExecuteBacktest(context.Background())
	require.NoError(t, err)
	second, err := r.ExecuteBacktest(context.Background())
	require.NoError(t, err)

	require.Len(t, second.Trades, len(first.Trades))
	assert.Equal(t, first.Metrics.FinalCapital, second.Metrics.FinalCapital)

	r.Reset()
	assert.Equal(t, 10000.0, r.State().CurrentCapital)
	assert.Empty(t, r.State().Trades)
	assert.Nil(t, r.State().Position)
}

func TestExecuteBacktest_Errors(t *testing.T) {
	bars := generateTestData(1, 2, 3)

	r := newTestRunner(t, bars, []types.Signal{types.SignalBuy}, testConfig(0, 0))
	_, err := r.ExecuteBacktest(context.Background())
	require.Error(t, err)
	assert.True(t, bterrors.IsCategory(err, bterrors.ErrorCategoryStrategy))

	cfg := testConfig(0, 0)
	r, err = NewRunner(strategy.NewStatic("fixed", nil), data.NewMemoryStorage(), cfg, WithLogger(logger.Discard()))
	require.NoError(t, err)
	_, err = r.ExecuteBacktest(context.Background())
	assert.True(t, bterrors.IsCategory(err, bterrors.ErrorCategoryData))

	err = r.ProcessSignals(types.NewFrame(bars), nil)
	var be *bterrors.BacktestError
	require.True(t, errors.As(err, &be))
	assert.True(t, be.IsFatal())
}

func TestExecuteBacktest_EmptyData(t *testing.T) {
	r := newTestRunner(t, []types.OHLCV{}, []types.Signal{}, testConfig(0, 0))

	res, err := r.ExecuteBacktest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Empty(t, res.EquityCurve)
	assert.Equal(t, 10000.0, res.Metrics.FinalCapital)
}
