package results

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), WithResultsDir(t.TempDir()), WithLogger(logger.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func sampleResult(symbol string, pls ...float64) *BacktestResult {
	trades := make([]backtest.Trade, len(pls))
	capital := 1000.0
	for i, pl := range pls {
		entry := t0.AddDate(0, 0, 2*i)
		trades[i] = backtest.Trade{
			ID:                "t" + string(rune('a'+i)),
			Symbol:            symbol,
			Side:              backtest.SideLong,
			EntryTime:         entry,
			EntryPrice:        100,
			ExitTime:          entry.AddDate(0, 0, 1),
			ExitPrice:         100 + pl/10,
			Quantity:          10,
			ProfitLoss:        pl,
			ProfitLossPercent: pl / 10,
			Duration:          24 * time.Hour,
		}
		capital += pl
	}
	curve := make(backtest.EquityCurve, 2*len(pls)+1)
	eq := 1000.0
	for i := range curve {
		if i > 0 && i%2 == 0 {
			eq += pls[i/2-1]
		}
		curve[i] = backtest.EquityPoint{Timestamp: t0.AddDate(0, 0, i), Equity: eq, Cash: eq}
	}
	return &BacktestResult{
		StrategyID:         "sma_cross_10_30",
		Symbol:             symbol,
		Timeframe:          "1d",
		StartDate:          t0,
		EndDate:            curve[len(curve)-1].Timestamp,
		InitialCapital:     1000,
		Trades:             trades,
		PerformanceMetrics: backtest.ComputeMetrics(trades, 1000, capital, len(curve)-1),
		EquityCurve:        curve,
		Config:             map[string]interface{}{"symbol": symbol, "fee_rate": 0.0005},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	orig := sampleResult("KRW-BTC", 50, 30)
	require.True(t, math.IsInf(orig.PerformanceMetrics.SortinoRatio, 1))

	id, out := m.SaveBacktestResult(ctx, orig)
	require.True(t, out.OK(), "db=%v file=%v", out.DBErr, out.FileErr)
	require.NotEmpty(t, id)

	loaded, err := m.LoadBacktestResult(ctx, id)
	require.NoError(t, err)
	assert.False(t, loaded.SummaryOnly)

	want := orig.PerformanceMetrics.Values()
	got := loaded.PerformanceMetrics.Values()
	require.Len(t, got, len(want))
	for k, v := range want {
		if math.IsInf(v, 0) {
			assert.Equal(t, v, got[k], k)
			continue
		}
		assert.InDelta(t, v, got[k], 1e-9, k)
	}

	require.Len(t, loaded.Trades, len(orig.Trades))
	for i := range orig.Trades {
		assert.InDelta(t, orig.Trades[i].ProfitLoss, loaded.Trades[i].ProfitLoss, 1e-9)
		assert.True(t, orig.Trades[i].EntryTime.Equal(loaded.Trades[i].EntryTime))
		assert.Equal(t, orig.Trades[i].Duration, loaded.Trades[i].Duration)
	}
	require.Len(t, loaded.EquityCurve, len(orig.EquityCurve))
	assert.True(t, loaded.EquityCurve[1].Timestamp.Equal(orig.EquityCurve[1].Timestamp))
	assert.Equal(t, orig.EquityCurve[4].Equity, loaded.EquityCurve[4].Equity)
	assert.True(t, t0.Equal(loaded.StartDate))
	assert.Equal(t, "KRW-BTC", loaded.Config["symbol"])
}

func TestSave_FileFormat(t *testing.T) {
	m := newTestManager(t)
	id, out := m.SaveBacktestResult(context.Background(), sampleResult("KRW-ETH", 10))
	require.True(t, out.FileOK)

	raw, err := os.ReadFile(filepath.Join(m.ResultsDir(), id+".json"))
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "2024-01-01 00:00:00", doc["start_date"])
	assert.Nil(t, doc["portfolio_id"])

	ec := doc["equity_curve"].(map[string]interface{})
	index := ec["index"].([]interface{})
	assert.Equal(t, "2024-01-02 00:00:00", index[1])
	data := ec["data"].(map[string]interface{})
	for _, col := range []string{"equity", "cash", "position_value"} {
		assert.Len(t, data[col], len(index), col)
	}

	metrics := doc["performance_metrics"].(map[string]interface{})
	assert.Equal(t, "Infinity", metrics["sortino_ratio"])

	trade := doc["trades"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "2024-01-02 00:00:00", trade["exit_time"])
}

func TestLoad_FallsBackToDatabaseSummary(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	orig := sampleResult("KRW-BTC", 20, -10)
	id, _ := m.SaveBacktestResult(ctx, orig)
	require.NoError(t, os.Remove(filepath.Join(m.ResultsDir(), id+".json")))

	loaded, err := m.LoadBacktestResult(ctx, id)
	require.NoError(t, err)
	assert.True(t, loaded.SummaryOnly)
	assert.Empty(t, loaded.Trades)
	assert.Empty(t, loaded.EquityCurve)
	assert.Equal(t, orig.PerformanceMetrics.Values(), loaded.PerformanceMetrics.Values())
	assert.Equal(t, 1000.0, loaded.InitialCapital)
	assert.Equal(t, "sma_cross_10_30", loaded.StrategyID)
}

func TestLoad_CorruptFileFallsBack(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	id, _ := m.SaveBacktestResult(ctx, sampleResult("KRW-BTC", 5))
	require.NoError(t, os.WriteFile(filepath.Join(m.ResultsDir(), id+".json"), []byte("{not json"), 0644))

	loaded, err := m.LoadBacktestResult(ctx, id)
	require.NoError(t, err)
	assert.True(t, loaded.SummaryOnly)
}

func TestLoad_NotFound(t *testing.T) {
	m := newTestManager(t)
	_, err := m.LoadBacktestResult(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrResultNotFound))
}

func TestSave_DatabaseFailureStillWritesFile(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.store.db.Close())

	id, out := m.SaveBacktestResult(ctx, sampleResult("KRW-BTC", 5))
	assert.False(t, out.DBOK)
	assert.Error(t, out.DBErr)
	assert.True(t, out.FileOK)
	assert.False(t, out.OK())

	loaded, err := m.LoadBacktestResult(ctx, id)
	require.NoError(t, err)
	assert.Len(t, loaded.Trades, 1)
}

func TestSave_FileFailureKeepsRow(t *testing.T) {
	dir := t.TempDir()
	resultsDir := filepath.Join(dir, "results")
	m, err := NewManager(context.Background(),
		WithResultsDir(resultsDir),
		WithDatabase(filepath.Join(dir, "db", "backtests.db")),
		WithLogger(logger.Discard()))
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, os.RemoveAll(resultsDir))
	require.NoError(t, os.WriteFile(resultsDir, []byte("x"), 0644))

	id, out := m.SaveBacktestResult(context.Background(), sampleResult("KRW-BTC", 5))
	assert.True(t, out.DBOK)
	assert.False(t, out.FileOK)
	assert.Error(t, out.FileErr)

	loaded, err := m.LoadBacktestResult(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, loaded.SummaryOnly)
}

func TestListBacktestResults(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	clock := t0
	m.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	btc := sampleResult("KRW-BTC", 10)
	eth := sampleResult("KRW-ETH", -5)
	eth.Timeframe = "1h"
	late := sampleResult("KRW-BTC", 3)
	late.StartDate = t0.AddDate(0, 6, 0)
	for _, r := range []*BacktestResult{btc, eth, late} {
		_, out := m.SaveBacktestResult(ctx, r)
		require.True(t, out.DBOK)
	}

	all, err := m.ListBacktestResults(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, late.ID, all[0].ID, "newest first")
	assert.Equal(t, -5.0, all[1].Metrics["total_profit_loss"])

	rows, err := m.ListBacktestResults(ctx, Filter{Symbol: "KRW-BTC"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = m.ListBacktestResults(ctx, Filter{Timeframe: "1h"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, eth.ID, rows[0].ID)

	rows, err = m.ListBacktestResults(ctx, Filter{StartFrom: t0.AddDate(0, 1, 0)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, late.ID, rows[0].ID)

	rows, err = m.ListBacktestResults(ctx, Filter{Symbol: "KRW-BTC", StartTo: t0, Limit: 5})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, btc.ID, rows[0].ID)
}

func TestCompareBacktestResults(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	good, _ := m.SaveBacktestResult(ctx, sampleResult("KRW-BTC", 50, 40))
	bad, _ := m.SaveBacktestResult(ctx, sampleResult("KRW-ETH", -30, 10))

	cmp, err := m.CompareBacktestResults(ctx, []string{bad, good, "nope"})
	require.NoError(t, err)

	assert.Equal(t, []string{"nope"}, cmp.Missing)
	assert.Len(t, cmp.Results, 2)
	for _, key := range RankedMetrics {
		assert.Len(t, cmp.Rankings[key], 2, key)
	}
	assert.Equal(t, good, cmp.Rankings["total_return_percent"][0].ID)
	assert.Equal(t, good, cmp.Rankings["max_drawdown"][0].ID, "smaller drawdown ranks first")
	assert.Equal(t, "KRW-ETH", cmp.Rankings["win_rate"][1].Symbol)

	require.Len(t, cmp.NormalizedEquity, 2)
	assert.Equal(t, 100.0, cmp.NormalizedEquity[0].Values[0])
	assert.Contains(t, cmp.MonthlyReturns, good)

	_, err = m.CompareBacktestResults(ctx, []string{"nope"})
	assert.True(t, errors.Is(err, ErrResultNotFound))
}

func TestDeleteBacktestResult(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, _ := m.SaveBacktestResult(ctx, sampleResult("KRW-BTC", 5))
	out := m.DeleteBacktestResult(ctx, id)
	assert.True(t, out.RowDeleted)
	assert.True(t, out.FileDeleted)
	assert.True(t, out.OK())
	_, err := m.LoadBacktestResult(ctx, id)
	assert.True(t, errors.Is(err, ErrResultNotFound))

	// only the file remains
	require.NoError(t, m.store.db.Close())
	id, _ = m.SaveBacktestResult(ctx, sampleResult("KRW-BTC", 5))
	out = m.DeleteBacktestResult(ctx, id)
	assert.Error(t, out.RowErr)
	assert.True(t, out.FileDeleted)
	assert.False(t, out.OK(), "a failed row deletion fails the whole delete")
}

func TestDeleteBacktestResult_PartialAndMissing(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, _ := m.SaveBacktestResult(ctx, sampleResult("KRW-BTC", 5))
	require.NoError(t, os.Remove(filepath.Join(m.ResultsDir(), id+".json")))
	out := m.DeleteBacktestResult(ctx, id)
	assert.True(t, out.RowDeleted)
	assert.False(t, out.FileDeleted)
	assert.True(t, out.OK(), "a missing file is not a failure")

	out = m.DeleteBacktestResult(ctx, "never-saved")
	assert.False(t, out.OK())
	assert.NoError(t, out.RowErr)
	assert.NoError(t, out.FileErr)
}

func TestManager_RejectsPathLikeIDs(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	outside := filepath.Join(filepath.Dir(m.ResultsDir()), "keep.json")
	require.NoError(t, os.WriteFile(outside, []byte("{}"), 0644))

	out := m.DeleteBacktestResult(ctx, "../keep")
	assert.False(t, out.OK())
	assert.True(t, errors.Is(out.FileErr, ErrInvalidID))
	assert.FileExists(t, outside)

	_, err := m.LoadBacktestResult(ctx, "../keep")
	assert.True(t, errors.Is(err, ErrInvalidID))
	_, err = m.LoadPortfolioBacktestResult(ctx, "..")
	assert.True(t, errors.Is(err, ErrInvalidID))

	r := sampleResult("KRW-BTC", 5)
	r.ID = "nested/id"
	_, saved := m.SaveBacktestResult(ctx, r)
	assert.False(t, saved.DBOK)
	assert.False(t, saved.FileOK)
	assert.True(t, errors.Is(saved.FileErr, ErrInvalidID))
	assert.NoDirExists(t, filepath.Join(m.ResultsDir(), "nested"))

	id, saved := m.SaveBacktestResult(ctx, sampleResult("KRW-BTC", 5))
	require.True(t, saved.OK())
	assert.NoError(t, checkID("test", id), "generated ids are valid")
}

func TestPortfolio_SaveLoad(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	btc := sampleResult("KRW-BTC", 50)
	eth := sampleResult("KRW-ETH", -20)
	p := &PortfolioBacktestResult{
		Name:               "majors",
		StartDate:          t0,
		EndDate:            t0.AddDate(0, 0, 2),
		InitialCapital:     2000,
		Weights:            map[string]float64{"KRW-BTC": 0.5, "KRW-ETH": 0.5},
		Results:            map[string]*BacktestResult{"KRW-BTC": btc, "KRW-ETH": eth},
		EquityCurve:        btc.EquityCurve,
		PerformanceMetrics: backtest.ComputeMetrics(append(btc.Trades, eth.Trades...), 2000, 2030, 2),
	}

	id, out := m.SavePortfolioBacktestResult(ctx, p)
	require.True(t, out.OK(), "db=%v file=%v", out.DBErr, out.FileErr)

	loaded, err := m.LoadPortfolioBacktestResult(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "majors", loaded.Name)
	require.Len(t, loaded.Results, 2)
	assert.Len(t, loaded.Results["KRW-ETH"].Trades, 1)
	assert.Len(t, loaded.Results["KRW-BTC"].EquityCurve, len(btc.EquityCurve))
	assert.Equal(t, id, loaded.Results["KRW-BTC"].PortfolioID)
	assert.Equal(t, p.PerformanceMetrics.Values(), loaded.PerformanceMetrics.Values())

	legs, err := m.ListBacktestResults(ctx, Filter{PortfolioID: id})
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	require.NoError(t, os.Remove(filepath.Join(m.ResultsDir(), "portfolio_"+id+".json")))
	summary, err := m.LoadPortfolioBacktestResult(ctx, id)
	require.NoError(t, err)
	assert.True(t, summary.SummaryOnly)
	assert.Equal(t, 0.5, summary.Weights["KRW-BTC"])
	require.Len(t, summary.Results, 2)
	assert.True(t, summary.Results["KRW-ETH"].SummaryOnly)

	_, err = m.LoadPortfolioBacktestResult(ctx, "missing")
	assert.True(t, errors.Is(err, ErrResultNotFound))
}
