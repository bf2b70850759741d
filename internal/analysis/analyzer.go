// Package analysis derives risk statistics, trade breakdowns, drawdown episodes
// and monthly returns from a finished backtest. Every method is safe on a
// bundle with no trades and an empty equity curve.
package analysis

import (
	"sort"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// Bundle is the input to an Analyzer
type Bundle struct {
	Trades       []backtest.Trade
	Metrics      backtest.PerformanceMetrics
	EquityCurve  backtest.EquityCurve
	Config       map[string]interface{}
	StrategyName string
	Signals      []types.Signal
}

// BundleFromResult builds a bundle from a runner result
func BundleFromResult(res *backtest.Result, cfg map[string]interface{}) Bundle {
	if res == nil {
		return Bundle{Config: cfg}
	}
	return Bundle{
		Trades:       res.Trades,
		Metrics:      res.Metrics,
		EquityCurve:  res.EquityCurve,
		Config:       cfg,
		StrategyName: res.Strategy,
		Signals:      res.Signals,
	}
}

// Analyzer is read-only over its bundle
type Analyzer struct {
	bundle Bundle
	trades []backtest.Trade // sorted by exit time
}

// New creates an analyzer
func New(b Bundle) *Analyzer {
	trades := make([]backtest.Trade, len(b.Trades))
	copy(trades, b.Trades)
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].ExitTime.Before(trades[j].ExitTime) })
	return &Analyzer{bundle: b, trades: trades}
}

// Report bundles every analysis of a run for rendering
type Report struct {
	GeneratedAt    time.Time                   `json:"generated_at"`
	StrategyName   string                      `json:"strategy_name"`
	Config         map[string]interface{}      `json:"config"`
	Metrics        backtest.PerformanceMetrics `json:"performance_metrics"`
	Advanced       AdvancedMetrics             `json:"advanced_metrics"`
	TradeAnalysis  TradeAnalysis               `json:"trade_analysis"`
	Drawdowns      []DrawdownEpisode           `json:"drawdowns"`
	MonthlyReturns []MonthlyReturn             `json:"monthly_returns"`
	EquityCurve    backtest.EquityCurve        `json:"-"`
	Trades         []backtest.Trade            `json:"-"`
	Signals        []types.Signal              `json:"-"`
}

// GenerateReport runs every analysis. Charts are left to rendering adapters.
func (a *Analyzer) GenerateReport() *Report {
	cfg := a.bundle.Config
	if cfg == nil {
		cfg = map[string]interface{}{}
	}
	return &Report{
		GeneratedAt:    time.Now(),
		StrategyName:   a.bundle.StrategyName,
		Config:         cfg,
		Metrics:        a.bundle.Metrics,
		Advanced:       a.CalculateAdvancedMetrics(),
		TradeAnalysis:  a.AnalyzeTrades(),
		Drawdowns:      a.AnalyzeDrawdowns(),
		MonthlyReturns: a.AnalyzeMonthlyReturns(),
		EquityCurve:    a.bundle.EquityCurve,
		Trades:         a.trades,
		Signals:        a.bundle.Signals,
	}
}
