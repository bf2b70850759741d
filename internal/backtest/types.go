package backtest

import (
	"time"

	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// SideLong is the only position side the simulator opens
const SideLong = "long"

// Position is the open holding between a buy fill and its matching sell
type Position struct {
	Side       string
	EntryPrice float64 // fill price including slippage
	Quantity   float64
	EntryTime  time.Time
	EntryFee   float64
}

// Trade is a closed round trip. Prices are fill prices.
type Trade struct {
	ID                string        `json:"id"`
	Symbol            string        `json:"symbol"`
	Side              string        `json:"side"`
	EntryTime         time.Time     `json:"entry_time"`
	EntryPrice        float64       `json:"entry_price"`
	ExitTime          time.Time     `json:"exit_time"`
	ExitPrice         float64       `json:"exit_price"`
	Quantity          float64       `json:"quantity"`
	EntryFee          float64       `json:"entry_fee"`
	ExitFee           float64       `json:"exit_fee"`
	TotalFee          float64       `json:"total_fee"`
	ProfitLoss        float64       `json:"profit_loss"`
	ProfitLossPercent float64       `json:"profit_loss_percent"`
	Duration          time.Duration `json:"duration"`
}

// EntryAmount is the capital committed at entry, excluding the entry fee
func (t Trade) EntryAmount() float64 {
	return t.Quantity * t.EntryPrice
}

// ExitAmount is the gross sale value before the exit fee
func (t Trade) ExitAmount() float64 {
	return t.Quantity * t.ExitPrice
}

// EquityPoint is one bar of the equity curve
type EquityPoint struct {
	Timestamp     time.Time
	Equity        float64
	Cash          float64
	PositionValue float64
}

// EquityCurve is aligned to the bars of a run
type EquityCurve []EquityPoint

// Equity returns the equity column
func (c EquityCurve) Equity() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Equity
	}
	return out
}

// Timestamps returns the index of the curve
func (c EquityCurve) Timestamps() []time.Time {
	out := make([]time.Time, len(c))
	for i, p := range c {
		out[i] = p.Timestamp
	}
	return out
}

// State is the mutable part of a run. A fresh State is created for every
// ExecuteBacktest call and by Reset.
type State struct {
	CurrentCapital float64
	Position       *Position
	Trades         []Trade
}

func newState(initialCapital float64) *State {
	return &State{
		CurrentCapital: initialCapital,
		Trades:         make([]Trade, 0),
	}
}

// Result is what a completed run produces
type Result struct {
	Symbol      string
	Strategy    string
	Timeframe   string
	StartDate   time.Time
	EndDate     time.Time
	Trades      []Trade
	Metrics     PerformanceMetrics
	EquityCurve EquityCurve
	// Signals is the strategy output, one per bar of the equity curve
	Signals []types.Signal
}
