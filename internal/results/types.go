package results

import (
	"errors"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/ducminhle1904/upbit-backtester/internal/config"
)

// DateLayout is how every persisted date is written, always in UTC
const DateLayout = "2006-01-02 15:04:05"

// ErrResultNotFound is returned when neither the database nor the results
// directory has the requested id
var ErrResultNotFound = errors.New("backtest result not found")

// ErrInvalidID is returned for ids that cannot name a results file
var ErrInvalidID = errors.New("invalid result id")

// BacktestResult is the persisted form of one run
type BacktestResult struct {
	ID                 string
	StrategyID         string
	Symbol             string
	PortfolioID        string
	Timeframe          string
	StartDate          time.Time
	EndDate            time.Time
	InitialCapital     float64
	Trades             []backtest.Trade
	PerformanceMetrics backtest.PerformanceMetrics
	EquityCurve        backtest.EquityCurve
	Config             map[string]interface{}
	CreatedAt          time.Time

	// SummaryOnly is set when the result was rebuilt from the database row
	// alone; Trades, EquityCurve and Config are then empty.
	SummaryOnly bool
}

// NewBacktestResult wraps a runner result for persistence
func NewBacktestResult(res *backtest.Result, cfg *config.BacktestConfig) *BacktestResult {
	out := &BacktestResult{
		StrategyID:         res.Strategy,
		Symbol:             res.Symbol,
		Timeframe:          res.Timeframe,
		StartDate:          res.StartDate,
		EndDate:            res.EndDate,
		Trades:             res.Trades,
		PerformanceMetrics: res.Metrics,
		EquityCurve:        res.EquityCurve,
	}
	if cfg != nil {
		out.InitialCapital = cfg.InitialCapital
		out.Config = cfg.ToMap()
	}
	return out
}

// PortfolioBacktestResult aggregates per-symbol results under one weighted portfolio
type PortfolioBacktestResult struct {
	ID                 string
	Name               string
	StartDate          time.Time
	EndDate            time.Time
	InitialCapital     float64
	Weights            map[string]float64
	Results            map[string]*BacktestResult
	EquityCurve        backtest.EquityCurve
	PerformanceMetrics backtest.PerformanceMetrics
	Config             map[string]interface{}
	CreatedAt          time.Time
	SummaryOnly        bool
}

// NewPortfolioBacktestResult wraps a portfolio runner result for persistence
func NewPortfolioBacktestResult(name string, pr *backtest.PortfolioResult, cfg *config.BacktestConfig) *PortfolioBacktestResult {
	out := &PortfolioBacktestResult{
		Name:               name,
		StartDate:          pr.StartDate,
		EndDate:            pr.EndDate,
		Weights:            pr.Weights,
		Results:            make(map[string]*BacktestResult, len(pr.Results)),
		EquityCurve:        pr.EquityCurve,
		PerformanceMetrics: pr.Metrics,
	}
	for symbol, res := range pr.Results {
		leg := NewBacktestResult(res, nil)
		if cfg != nil {
			leg.InitialCapital = cfg.InitialCapital * pr.Weights[symbol]
		}
		out.Results[symbol] = leg
	}
	if cfg != nil {
		out.InitialCapital = cfg.InitialCapital
		out.Config = cfg.ToMap()
	}
	return out
}

// SaveOutcome reports each store separately; the two writes are not atomic
type SaveOutcome struct {
	DBOK    bool
	FileOK  bool
	DBErr   error
	FileErr error
}

// OK reports whether both stores were written
func (o SaveOutcome) OK() bool {
	return o.DBOK && o.FileOK
}

// DeleteOutcome reports each store separately. A missing row or file is not
// an error: its Deleted flag is false and its Err is nil.
type DeleteOutcome struct {
	RowDeleted  bool
	FileDeleted bool
	RowErr      error
	FileErr     error
}

// OK is true when at least one representation was removed and no attempted removal failed
func (o DeleteOutcome) OK() bool {
	return (o.RowDeleted || o.FileDeleted) && o.RowErr == nil && o.FileErr == nil
}

// Filter selects summary rows; zero fields match everything
type Filter struct {
	Symbol      string
	StrategyID  string
	PortfolioID string
	Timeframe   string
	StartFrom   time.Time // start_date >= StartFrom
	StartTo     time.Time // start_date <= StartTo
	EndFrom     time.Time
	EndTo       time.Time
	Limit       int
}

// SummaryRow is one database row with the metrics flattened out
type SummaryRow struct {
	ID             string
	StrategyID     string
	Symbol         string
	PortfolioID    string
	Timeframe      string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	CreatedAt      time.Time
	Metrics        map[string]float64
}
