package reporting

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04:05"

var metricLabels = map[string]string{
	"total_return_percent":      "Total Return",
	"max_drawdown":              "Max Drawdown (trades)",
	"win_rate":                  "Win Rate",
	"profit_factor":             "Profit Factor",
	"has_losses":                "Has Losses",
	"sharpe_ratio":              "Sharpe Ratio",
	"sortino_ratio":             "Sortino Ratio",
	"trades_count":              "Total Trades",
	"winning_trades":            "Winning Trades",
	"losing_trades":             "Losing Trades",
	"avg_profit_per_trade":      "Avg Profit / Trade",
	"avg_holding_period":        "Avg Holding (h)",
	"annualized_return":         "Annualized Return",
	"total_profit_loss":         "Total P/L",
	"final_capital":             "Final Capital",
	"calmar_ratio":              "Calmar Ratio",
	"ulcer_index":               "Ulcer Index",
	"profit_to_max_drawdown":    "Profit / Max DD",
	"avg_profit_to_avg_loss":    "Avg Profit / Avg Loss",
	"win_loss_ratio":            "Win / Loss Ratio",
	"expectancy":                "Expectancy",
	"system_quality_number":     "SQN",
	"recovery_factor":           "Recovery Factor",
	"risk_of_ruin":              "Risk of Ruin",
	"equity_curve_max_drawdown": "Max Drawdown (equity)",
}

var percentMetrics = map[string]bool{
	"total_return_percent":      true,
	"max_drawdown":              true,
	"win_rate":                  true,
	"annualized_return":         true,
	"equity_curve_max_drawdown": true,
}

var moneyMetrics = map[string]bool{
	"avg_profit_per_trade": true,
	"total_profit_loss":    true,
	"final_capital":        true,
	"expectancy":           true,
}

var countMetrics = map[string]bool{
	"trades_count":   true,
	"winning_trades": true,
	"losing_trades":  true,
}

// MetricLabel returns the display name of a flat metric key
func MetricLabel(key string) string {
	if l, ok := metricLabels[key]; ok {
		return l
	}
	return key
}

// FormatMetric renders a flat metric value for display
func FormatMetric(key string, v float64) string {
	switch {
	case key == "has_losses":
		if v != 0 {
			return "yes"
		}
		return "no"
	case countMetrics[key]:
		return fmt.Sprintf("%d", int(v))
	case percentMetrics[key]:
		return formatPercent(v)
	case moneyMetrics[key]:
		return formatMoney(v)
	case key == "risk_of_ruin":
		return formatPercent(v * 100)
	default:
		return formatRatio(v)
	}
}

// formatMoney rounds half away from zero to two places. Non-finite values
// are not representable as decimals and are printed as floats.
func formatMoney(v float64) string {
	if nonFinite(v) {
		return formatRatio(v)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatPrice(v float64) string {
	if nonFinite(v) {
		return formatRatio(v)
	}
	return decimal.NewFromFloat(v).StringFixed(4)
}

// roundMoney is formatMoney for numeric cells
func roundMoney(v float64) float64 {
	if nonFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func formatPercent(v float64) string {
	if nonFinite(v) {
		return formatRatio(v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

func formatRatio(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func nonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
