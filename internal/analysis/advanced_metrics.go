package analysis

import (
	"encoding/json"
	"math"

	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// AdvancedMetrics complements backtest.PerformanceMetrics. Ratios whose
// denominator is zero are 0, except where noted.
type AdvancedMetrics struct {
	CalmarRatio        float64 `json:"calmar_ratio"`
	UlcerIndex         float64 `json:"ulcer_index"`
	ProfitToMaxDD      float64 `json:"profit_to_max_drawdown"`
	AvgProfitToAvgLoss float64 `json:"avg_profit_to_avg_loss"` // +Inf when winners exist and losses average zero
	WinLossRatio       float64 `json:"win_loss_ratio"`         // +Inf when every trade wins
	Expectancy         float64 `json:"expectancy"`
	SQN                float64 `json:"system_quality_number"`
	RecoveryFactor     float64 `json:"recovery_factor"`
	RiskOfRuin         float64 `json:"risk_of_ruin"`
	// EquityCurveMaxDrawdown is the worst peak-to-trough fall of the equity
	// curve in percent, as a positive number. It differs from the
	// trade-sequence max_drawdown in PerformanceMetrics.
	EquityCurveMaxDrawdown float64 `json:"equity_curve_max_drawdown"`
}

// AdvancedMetricKeys lists the flat names in display order
var AdvancedMetricKeys = []string{
	"calmar_ratio",
	"ulcer_index",
	"profit_to_max_drawdown",
	"avg_profit_to_avg_loss",
	"win_loss_ratio",
	"expectancy",
	"system_quality_number",
	"recovery_factor",
	"risk_of_ruin",
	"equity_curve_max_drawdown",
}

// Values returns the flat name -> value view
func (m AdvancedMetrics) Values() map[string]float64 {
	return map[string]float64{
		"calmar_ratio":              m.CalmarRatio,
		"ulcer_index":               m.UlcerIndex,
		"profit_to_max_drawdown":    m.ProfitToMaxDD,
		"avg_profit_to_avg_loss":    m.AvgProfitToAvgLoss,
		"win_loss_ratio":            m.WinLossRatio,
		"expectancy":                m.Expectancy,
		"system_quality_number":     m.SQN,
		"recovery_factor":           m.RecoveryFactor,
		"risk_of_ruin":              m.RiskOfRuin,
		"equity_curve_max_drawdown": m.EquityCurveMaxDrawdown,
	}
}

// MarshalJSON writes the flat view; win_loss_ratio and avg_profit_to_avg_loss may be "Infinity"
func (m AdvancedMetrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(types.FloatMap(m.Values()))
}

// CalculateAdvancedMetrics derives risk-adjusted ratios from trades, equity and summary metrics
func (a *Analyzer) CalculateAdvancedMetrics() AdvancedMetrics {
	var am AdvancedMetrics
	pm := a.bundle.Metrics

	drawdowns := DrawdownSeries(a.bundle.EquityCurve.Equity())
	am.UlcerIndex = ulcerIndex(drawdowns)
	for _, dd := range drawdowns {
		am.EquityCurveMaxDrawdown = math.Max(am.EquityCurveMaxDrawdown, -dd)
	}

	am.CalmarRatio = safeDiv(pm.AnnualizedReturn, pm.MaxDrawdown)
	am.RecoveryFactor = safeDiv(pm.TotalReturnPercent, pm.MaxDrawdown)
	am.ProfitToMaxDD = safeDiv(pm.TotalReturnPercent, am.EquityCurveMaxDrawdown)

	n := len(a.trades)
	if n == 0 {
		return am
	}

	var profits, losses, returns []float64
	for _, t := range a.trades {
		returns = append(returns, t.ProfitLossPercent)
		if t.ProfitLoss > 0 {
			profits = append(profits, t.ProfitLoss)
		} else {
			losses = append(losses, t.ProfitLoss)
		}
	}
	avgProfit := backtest.Mean(profits)
	avgLoss := math.Abs(backtest.Mean(losses))
	winRate := float64(len(profits)) / float64(n)
	lossRate := 1 - winRate

	switch {
	case avgLoss > 0:
		am.AvgProfitToAvgLoss = avgProfit / avgLoss
	case avgProfit > 0:
		am.AvgProfitToAvgLoss = math.Inf(1)
	}

	if lossRate == 0 {
		am.WinLossRatio = math.Inf(1)
	} else {
		am.WinLossRatio = winRate / lossRate
	}

	am.Expectancy = winRate*avgProfit - lossRate*avgLoss

	if std := backtest.SampleStdDev(returns); n >= 2 && std > 0 {
		am.SQN = backtest.Mean(returns) * math.Sqrt(float64(n)) / std
	}

	am.RiskOfRuin = riskOfRuin(winRate, am.AvgProfitToAvgLoss, n)
	return am
}

// riskOfRuin is ((1-edge)/(1+edge))^n with edge = p*(payoff+1) - 1,
// 1 for a non-positive edge, clamped to [0, 1].
func riskOfRuin(winRate, payoff float64, n int) float64 {
	if math.IsInf(payoff, 1) {
		return 0
	}
	edge := winRate*(payoff+1) - 1
	if edge <= 0 {
		return 1
	}
	if edge >= 1 {
		return 0
	}
	ror := math.Pow((1-edge)/(1+edge), float64(n))
	return math.Max(0, math.Min(1, ror))
}

// DrawdownSeries returns the percent distance of each value below its running peak (<= 0)
func DrawdownSeries(equity []float64) []float64 {
	out := make([]float64, len(equity))
	peak := math.Inf(-1)
	for i, v := range equity {
		peak = math.Max(peak, v)
		if peak > 0 {
			out[i] = (v - peak) / peak * 100
		}
	}
	return out
}

func ulcerIndex(drawdowns []float64) float64 {
	if len(drawdowns) == 0 {
		return 0
	}
	ss := 0.0
	for _, dd := range drawdowns {
		ss += dd * dd
	}
	return math.Sqrt(ss / float64(len(drawdowns)))
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
