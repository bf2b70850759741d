package backtest

import (
	"encoding/json"
	"math"

	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// PerformanceMetrics summarizes a run. Every field is always set; a run with
// no trades yields zeros (and FinalCapital equal to the initial capital).
type PerformanceMetrics struct {
	TotalReturnPercent float64 `json:"total_return_percent"`
	// MaxDrawdown is the worst peak-to-trough fall of the cumulative per-trade
	// percent return, as a positive number. See analysis for the equity-curve version.
	MaxDrawdown float64 `json:"max_drawdown"`
	WinRate     float64 `json:"win_rate"`
	// ProfitFactor divides by 1 when there are no losing trades; HasLosses tells the cases apart.
	ProfitFactor      float64 `json:"profit_factor"`
	HasLosses         bool    `json:"has_losses"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      float64 `json:"sortino_ratio"`
	TradesCount       int     `json:"trades_count"`
	WinningTrades     int     `json:"winning_trades"`
	LosingTrades      int     `json:"losing_trades"`
	AvgProfitPerTrade float64 `json:"avg_profit_per_trade"`
	AvgHoldingPeriod  float64 `json:"avg_holding_period"` // hours
	AnnualizedReturn  float64 `json:"annualized_return"`
	TotalProfitLoss   float64 `json:"total_profit_loss"`
	FinalCapital      float64 `json:"final_capital"`
}

// MetricKeys lists the flat metric names in display order
var MetricKeys = []string{
	"total_return_percent",
	"max_drawdown",
	"win_rate",
	"profit_factor",
	"has_losses",
	"sharpe_ratio",
	"sortino_ratio",
	"trades_count",
	"winning_trades",
	"losing_trades",
	"avg_profit_per_trade",
	"avg_holding_period",
	"annualized_return",
	"total_profit_loss",
	"final_capital",
}

// Values returns the flat name -> value view used for persistence and comparison
func (m PerformanceMetrics) Values() map[string]float64 {
	hasLosses := 0.0
	if m.HasLosses {
		hasLosses = 1
	}
	return map[string]float64{
		"total_return_percent": m.TotalReturnPercent,
		"max_drawdown":         m.MaxDrawdown,
		"win_rate":             m.WinRate,
		"profit_factor":        m.ProfitFactor,
		"has_losses":           hasLosses,
		"sharpe_ratio":         m.SharpeRatio,
		"sortino_ratio":        m.SortinoRatio,
		"trades_count":         float64(m.TradesCount),
		"winning_trades":       float64(m.WinningTrades),
		"losing_trades":        float64(m.LosingTrades),
		"avg_profit_per_trade": m.AvgProfitPerTrade,
		"avg_holding_period":   m.AvgHoldingPeriod,
		"annualized_return":    m.AnnualizedReturn,
		"total_profit_loss":    m.TotalProfitLoss,
		"final_capital":        m.FinalCapital,
	}
}

// MetricsFromValues rebuilds metrics from the flat view; missing keys stay zero
func MetricsFromValues(v map[string]float64) PerformanceMetrics {
	return PerformanceMetrics{
		TotalReturnPercent: v["total_return_percent"],
		MaxDrawdown:        v["max_drawdown"],
		WinRate:            v["win_rate"],
		ProfitFactor:       v["profit_factor"],
		HasLosses:          v["has_losses"] != 0,
		SharpeRatio:        v["sharpe_ratio"],
		SortinoRatio:       v["sortino_ratio"],
		TradesCount:        int(v["trades_count"]),
		WinningTrades:      int(v["winning_trades"]),
		LosingTrades:       int(v["losing_trades"]),
		AvgProfitPerTrade:  v["avg_profit_per_trade"],
		AvgHoldingPeriod:   v["avg_holding_period"],
		AnnualizedReturn:   v["annualized_return"],
		TotalProfitLoss:    v["total_profit_loss"],
		FinalCapital:       v["final_capital"],
	}
}

// MarshalJSON writes the flat view so non-finite ratios encode as strings
func (m PerformanceMetrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(types.FloatMap(m.Values()))
}

func (m *PerformanceMetrics) UnmarshalJSON(data []byte) error {
	var flat map[string]types.Float
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*m = MetricsFromValues(types.PlainMap(flat))
	return nil
}

// ComputeMetrics derives the summary statistics from closed trades.
// totalDays is the whole-day span of the backtest data.
func ComputeMetrics(trades []Trade, initialCapital, finalCapital float64, totalDays int) PerformanceMetrics {
	if len(trades) == 0 {
		return PerformanceMetrics{FinalCapital: initialCapital}
	}

	m := PerformanceMetrics{
		TradesCount:  len(trades),
		FinalCapital: finalCapital,
	}

	returns := make([]float64, len(trades))
	var grossProfit, grossLoss, totalPL, holdingHours float64
	for i, t := range trades {
		returns[i] = t.ProfitLossPercent
		totalPL += t.ProfitLoss
		holdingHours += t.Duration.Hours()
		if t.ProfitLoss > 0 {
			m.WinningTrades++
			grossProfit += t.ProfitLoss
		} else {
			m.LosingTrades++
			grossLoss += t.ProfitLoss
		}
	}

	if initialCapital > 0 {
		m.TotalReturnPercent = (finalCapital - initialCapital) / initialCapital * 100
	}
	m.WinRate = float64(m.WinningTrades) / float64(len(trades)) * 100
	m.TotalProfitLoss = totalPL
	m.AvgProfitPerTrade = totalPL / float64(len(trades))
	m.AvgHoldingPeriod = holdingHours / float64(len(trades))

	denom := 1.0
	if m.LosingTrades > 0 {
		m.HasLosses = true
		denom = math.Abs(grossLoss)
	}
	if denom > 0 {
		m.ProfitFactor = grossProfit / denom
	}

	m.MaxDrawdown = TradeSequenceMaxDrawdown(returns)
	m.SharpeRatio = sharpeRatio(returns)
	m.SortinoRatio = sortinoRatio(returns)
	m.AnnualizedReturn = AnnualizedReturn(m.TotalReturnPercent, totalDays)
	return m
}

// TradeSequenceMaxDrawdown is the largest fall of the running sum of percent
// returns below its running peak, which starts at zero.
func TradeSequenceMaxDrawdown(returns []float64) float64 {
	cum, peak, mdd := 0.0, 0.0, 0.0
	for _, r := range returns {
		cum += r
		peak = math.Max(peak, cum)
		mdd = math.Max(mdd, peak-cum)
	}
	return mdd
}

// AnnualizedReturn compounds a total percent return over totalDays to a yearly rate
func AnnualizedReturn(totalReturnPercent float64, totalDays int) float64 {
	if totalDays <= 0 {
		return 0
	}
	growth := 1 + totalReturnPercent/100
	if growth <= 0 {
		return -100
	}
	return (math.Pow(growth, 365/float64(totalDays)) - 1) * 100
}

func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	std := SampleStdDev(returns)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return Mean(returns) / std * math.Sqrt(252)
}

func sortinoRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	mean := Mean(returns)
	if len(negative) == 0 {
		if mean > 0 {
			return math.Inf(1)
		}
		return 0
	}
	std := SampleStdDev(negative)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return mean / std * math.Sqrt(252)
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdDev is the standard deviation with ddof=1; NaN for fewer than two values
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	mean := Mean(values)
	ss := 0.0
	for _, v := range values {
		ss += math.Pow(v-mean, 2)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
