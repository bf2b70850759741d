package analysis

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday

func curve(values ...float64) backtest.EquityCurve {
	out := make(backtest.EquityCurve, len(values))
	for i, v := range values {
		out[i] = backtest.EquityPoint{Timestamp: t0.AddDate(0, 0, i), Equity: v, Cash: v}
	}
	return out
}

func trade(exit time.Time, pl, plPercent float64, hours int) backtest.Trade {
	d := time.Duration(hours) * time.Hour
	return backtest.Trade{
		EntryTime:         exit.Add(-d),
		ExitTime:          exit,
		Duration:          d,
		Quantity:          1,
		ProfitLoss:        pl,
		ProfitLossPercent: plPercent,
	}
}

func TestEmptyBundle_EveryMethodIsSafe(t *testing.T) {
	a := New(Bundle{})

	assert.Equal(t, AdvancedMetrics{}, a.CalculateAdvancedMetrics())
	assert.Equal(t, TradeAnalysis{}, a.AnalyzeTrades())
	assert.Empty(t, a.AnalyzeDrawdowns())
	assert.NotNil(t, a.AnalyzeDrawdowns())
	assert.Empty(t, a.AnalyzeMonthlyReturns())

	report := a.GenerateReport()
	require.NotNil(t, report)
	assert.NotNil(t, report.Config)

	_, err := json.Marshal(report)
	assert.NoError(t, err)
}

func TestAnalyzeDrawdowns_WorstFirst(t *testing.T) {
	a := New(Bundle{EquityCurve: curve(100, 90, 95, 100, 110, 99, 88, 120, 110)})
	episodes := a.AnalyzeDrawdowns()

	require.Len(t, episodes, 3)
	for i := 1; i < len(episodes); i++ {
		assert.LessOrEqual(t, episodes[i-1].DrawdownPercent, episodes[i].DrawdownPercent)
	}

	worst := episodes[0]
	assert.InDelta(t, -20.0, worst.DrawdownPercent, 1e-9)
	assert.Equal(t, t0.AddDate(0, 0, 5), worst.StartDate)
	assert.Equal(t, t0.AddDate(0, 0, 6), worst.EndDate)
	assert.Equal(t, t0.AddDate(0, 0, 7), worst.RecoveryDate)
	assert.True(t, worst.Recovered)
	assert.Equal(t, 48*time.Hour, worst.Duration)

	assert.InDelta(t, -10.0, episodes[1].DrawdownPercent, 1e-9)

	open := episodes[2]
	assert.False(t, open.Recovered)
	assert.Equal(t, t0.AddDate(0, 0, 8), open.RecoveryDate)
	assert.InDelta(t, -100.0/12, open.DrawdownPercent, 1e-9)
}

func TestCalculateAdvancedMetrics(t *testing.T) {
	trades := []backtest.Trade{
		trade(t0.Add(24*time.Hour), 200, 20, 10),
		trade(t0.Add(48*time.Hour), -100, -10, 5),
		trade(t0.Add(72*time.Hour), 100, 10, 10),
		trade(t0.Add(96*time.Hour), -50, -5, 5),
	}
	pm := backtest.ComputeMetrics(trades, 1000, 1150, 4)
	a := New(Bundle{Trades: trades, Metrics: pm, EquityCurve: curve(1000, 1200, 1100, 1200, 1150)})

	am := a.CalculateAdvancedMetrics()

	assert.InDelta(t, 150.0/75.0, am.AvgProfitToAvgLoss, 1e-12)
	assert.InDelta(t, 1.0, am.WinLossRatio, 1e-12)
	assert.InDelta(t, 0.5*150-0.5*75, am.Expectancy, 1e-12)

	returns := []float64{20, -10, 10, -5}
	assert.InDelta(t, backtest.Mean(returns)*2/backtest.SampleStdDev(returns), am.SQN, 1e-12)

	// edge = 0.5 * 3 - 1 = 0.5
	assert.InDelta(t, math.Pow(0.5/1.5, 4), am.RiskOfRuin, 1e-12)

	ecMDD := 100.0 / 1200 * 100
	assert.InDelta(t, ecMDD, am.EquityCurveMaxDrawdown, 1e-9)
	assert.InDelta(t, pm.TotalReturnPercent/ecMDD, am.ProfitToMaxDD, 1e-9)
	assert.InDelta(t, pm.TotalReturnPercent/pm.MaxDrawdown, am.RecoveryFactor, 1e-9)
	assert.InDelta(t, pm.AnnualizedReturn/pm.MaxDrawdown, am.CalmarRatio, 1e-9)

	dd := []float64{0, 0, -100.0 / 12, 0, -50.0 / 12}
	ss := 0.0
	for _, v := range dd {
		ss += v * v
	}
	assert.InDelta(t, math.Sqrt(ss/5), am.UlcerIndex, 1e-9)
}

func TestCalculateAdvancedMetrics_AllWinners(t *testing.T) {
	trades := []backtest.Trade{trade(t0.Add(time.Hour), 10, 1, 1)}
	am := New(Bundle{Trades: trades}).CalculateAdvancedMetrics()

	assert.True(t, math.IsInf(am.WinLossRatio, 1))
	assert.True(t, math.IsInf(am.AvgProfitToAvgLoss, 1))
	assert.Zero(t, am.RiskOfRuin)
	assert.Zero(t, am.SQN)
}

func TestRiskOfRuin_NegativeEdge(t *testing.T) {
	assert.Equal(t, 1.0, riskOfRuin(0.3, 1, 10))
	assert.Equal(t, 1.0, riskOfRuin(0.5, 1, 10))
	assert.InDelta(t, 0.0, riskOfRuin(0.9, 10, 500), 1e-12)
}

func TestAnalyzeTrades(t *testing.T) {
	wed := t0.AddDate(0, 0, 2).Add(15 * time.Hour) // Wednesday 15:00
	sun := t0.AddDate(0, 0, 6).Add(9 * time.Hour)  // Sunday 09:00
	trades := []backtest.Trade{
		trade(sun.AddDate(0, 0, 7), 5, 0.5, 2), // exits last
		trade(wed, 10, 1, 4),
		trade(wed.Add(time.Hour), -4, -0.4, 6),
		trade(sun, -2, -0.2, 2),
		trade(sun.Add(time.Hour), 0, 0, 3),
	}
	ta := New(Bundle{Trades: trades}).AnalyzeTrades()

	assert.Equal(t, 5, ta.TotalTrades)
	assert.Equal(t, 2, ta.WinningTrades)
	assert.Equal(t, 3, ta.LosingTrades)
	assert.Equal(t, 7.5, ta.AvgProfit)
	assert.Equal(t, 10.0, ta.MaxProfit)
	assert.Equal(t, 5.0, ta.MinProfit)
	assert.Equal(t, -2.0, ta.AvgLoss)
	assert.Equal(t, -4.0, ta.MaxLoss)
	assert.Equal(t, 0.0, ta.MinLoss)
	assert.Equal(t, 3.0, ta.AvgWinningHoldingHours)
	assert.InDelta(t, 11.0/3, ta.AvgLosingHoldingHours, 1e-12)

	assert.Equal(t, 6.0, ta.ProfitByWeekday[2])
	assert.Equal(t, 3.0, ta.ProfitByWeekday[6])
	assert.Equal(t, 10.0, ta.ProfitByHour[15])
	assert.Equal(t, -4.0, ta.ProfitByHour[16])

	// W L L L W by exit time
	assert.Equal(t, 1, ta.CurrentStreak)
	assert.Equal(t, 1, ta.MaxConsecutiveWins)
	assert.Equal(t, 3, ta.MaxConsecutiveLosses)
}

func TestAnalyzeMonthlyReturns(t *testing.T) {
	c := backtest.EquityCurve{
		{Timestamp: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Equity: 100},
		{Timestamp: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Equity: 110},
		{Timestamp: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Equity: 120},
		{Timestamp: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), Equity: 99},
		{Timestamp: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Equity: 99},
	}
	months := New(Bundle{EquityCurve: c}).AnalyzeMonthlyReturns()

	require.Len(t, months, 3)
	assert.Equal(t, "2024-01", months[0].Label())
	assert.InDelta(t, 10.0, months[0].ReturnPercent, 1e-9)
	assert.InDelta(t, -10.0, months[1].ReturnPercent, 1e-9)
	assert.Equal(t, time.April, months[2].Month)
	assert.Zero(t, months[2].ReturnPercent)
}

func TestGenerateReport(t *testing.T) {
	trades := []backtest.Trade{trade(t0.Add(48*time.Hour), 50, 5, 24)}
	b := Bundle{
		Trades:       trades,
		Metrics:      backtest.ComputeMetrics(trades, 1000, 1050, 3),
		EquityCurve:  curve(1000, 1000, 1050, 1050),
		Config:       map[string]interface{}{"symbol": "KRW-BTC"},
		StrategyName: "sma_cross_10_30",
	}
	r := New(b).GenerateReport()

	assert.Equal(t, "sma_cross_10_30", r.StrategyName)
	assert.Equal(t, "KRW-BTC", r.Config["symbol"])
	assert.Equal(t, 1, r.TradeAnalysis.TotalTrades)
	assert.Len(t, r.MonthlyReturns, 1)
	assert.Empty(t, r.Drawdowns)
	assert.Len(t, r.Trades, 1)
}

func TestGenerateReport_AllWinnersEncodesJSON(t *testing.T) {
	trades := []backtest.Trade{
		trade(t0.Add(24*time.Hour), 30, 3, 12),
		trade(t0.Add(72*time.Hour), 20, 2, 12),
	}
	metrics := backtest.ComputeMetrics(trades, 1000, 1050, 3)
	require.True(t, math.IsInf(metrics.SortinoRatio, 1))

	r := New(Bundle{Trades: trades, Metrics: metrics}).GenerateReport()
	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var doc struct {
		Metrics  map[string]interface{} `json:"performance_metrics"`
		Advanced map[string]interface{} `json:"advanced_metrics"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Infinity", doc.Metrics["sortino_ratio"])
	assert.Equal(t, "Infinity", doc.Advanced["win_loss_ratio"])
	assert.Equal(t, "Infinity", doc.Advanced["avg_profit_to_avg_loss"])
	assert.Equal(t, 2.0, doc.Metrics["trades_count"])
}
