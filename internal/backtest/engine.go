package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/upbit-backtester/internal/config"
	bterrors "github.com/ducminhle1904/upbit-backtester/internal/errors"
	"github.com/ducminhle1904/upbit-backtester/internal/indicators"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/internal/monitoring"
	"github.com/ducminhle1904/upbit-backtester/internal/strategy"
	"github.com/ducminhle1904/upbit-backtester/pkg/data"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

const component = "backtest_runner"

// Runner simulates one strategy over one symbol, timeframe and date range.
// A Runner is not safe for concurrent use; run parallel backtests on separate instances.
type Runner struct {
	strategy  strategy.Strategy
	storage   data.MarketDataStorage
	cfg       config.BacktestConfig
	processor *indicators.Processor
	log       *logger.Logger

	state *State
	frame *types.Frame
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the run logger
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithProcessor overrides the indicator processor
func WithProcessor(p *indicators.Processor) Option {
	return func(r *Runner) { r.processor = p }
}

// NewRunner validates cfg and builds a runner. storage may be nil when the
// caller drives ProcessSignals directly.
func NewRunner(strat strategy.Strategy, storage data.MarketDataStorage, cfg *config.BacktestConfig, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, bterrors.NewConfigurationError(component, "NewRunner", "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strat == nil {
		return nil, bterrors.NewConfigurationError(component, "NewRunner", "strategy is required")
	}

	r := &Runner{
		strategy: strat,
		storage:  storage,
		cfg:      *cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.OrDefault(r.log)
	if r.processor == nil {
		r.processor = indicators.NewProcessor(r.log)
	}
	r.state = newState(cfg.InitialCapital)
	return r, nil
}

// State returns the live run state
func (r *Runner) State() *State {
	return r.state
}

// Reset discards capital, position and trades from any previous run
func (r *Runner) Reset() {
	r.state = newState(r.cfg.InitialCapital)
	r.frame = nil
}

// PrepareData loads bars for the configured range and adds the strategy's indicators
func (r *Runner) PrepareData(ctx context.Context) (*types.Frame, error) {
	if r.storage == nil {
		return nil, bterrors.NewBacktestError(bterrors.ErrorCategoryData, component, "PrepareData", "no market data storage configured")
	}

	bars, err := r.storage.LoadMarketData(ctx, r.cfg.Symbol, r.cfg.Timeframe, r.cfg.StartDate, r.cfg.EndDate)
	if err != nil {
		return nil, bterrors.WrapError(err, bterrors.ErrorCategoryData, component, "PrepareData")
	}
	if len(bars) == 0 {
		r.log.Warning("no market data for %s %s", r.cfg.Symbol, r.cfg.Timeframe)
	}

	frame := r.processor.CalculateIndicators(types.NewFrame(bars), r.strategy.RequiredIndicators())
	r.frame = frame
	return frame, nil
}

// GenerateSignals asks the strategy for one signal per bar
func (r *Runner) GenerateSignals(frame *types.Frame) ([]types.Signal, error) {
	signals, err := r.strategy.GenerateSignals(frame)
	if err != nil {
		return nil, bterrors.NewStrategyError(component, "GenerateSignals", err)
	}
	if len(signals) != frame.Len() {
		return nil, bterrors.NewStrategyError(component, "GenerateSignals",
			fmt.Errorf("strategy %s returned %d signals for %d bars", r.strategy.GetName(), len(signals), frame.Len()))
	}

	buys, sells, holds := types.CountSignals(signals)
	r.log.Info("signals for %s: %d buy, %d sell, %d hold", r.cfg.Symbol, buys, sells, holds)
	return signals, nil
}

// ExecuteBacktest runs the whole pipeline on fresh state
func (r *Runner) ExecuteBacktest(ctx context.Context) (*Result, error) {
	health := monitoring.DefaultHealthChecker()
	health.RunStarted(r.cfg.Symbol)
	result, err := r.executeBacktest(ctx)
	health.RunFinished(r.cfg.Symbol, err)
	return result, err
}

func (r *Runner) executeBacktest(ctx context.Context) (*Result, error) {
	started := time.Now()
	r.Reset()

	frame, err := r.PrepareData(ctx)
	if err != nil {
		return nil, err
	}
	signals, err := r.GenerateSignals(frame)
	if err != nil {
		return nil, err
	}
	if err := r.ProcessSignals(frame, signals); err != nil {
		return nil, err
	}

	result := &Result{
		Symbol:      r.cfg.Symbol,
		Strategy:    r.strategy.GetName(),
		Timeframe:   r.cfg.Timeframe,
		StartDate:   r.cfg.StartDate,
		EndDate:     r.cfg.EndDate,
		Trades:      r.state.Trades,
		Metrics:     r.CalculatePerformanceMetrics(),
		EquityCurve: r.GenerateEquityCurve(frame),
		Signals:     append([]types.Signal(nil), signals...),
	}
	if frame.Len() > 0 {
		if result.StartDate.IsZero() {
			result.StartDate = frame.Bars[0].Timestamp
		}
		if result.EndDate.IsZero() {
			result.EndDate = frame.Bars[frame.Len()-1].Timestamp
		}
	}

	monitoring.RecordRun(r.strategy.GetName(), r.cfg.Symbol, time.Since(started))
	r.log.Info("backtest %s on %s finished: %d trades, return %.2f%%",
		r.strategy.GetName(), r.cfg.Symbol, len(result.Trades), result.Metrics.TotalReturnPercent)
	return result, nil
}

// ProcessSignals walks the bars once, buying on 1 when flat and selling on -1
// when long. A position still open on the final bar is closed at its close.
func (r *Runner) ProcessSignals(frame *types.Frame, signals []types.Signal) error {
	if len(signals) != frame.Len() {
		return bterrors.NewStrategyError(component, "ProcessSignals",
			fmt.Errorf("%d signals for %d bars", len(signals), frame.Len()))
	}
	r.frame = frame

	last := frame.Len() - 1
	for i, bar := range frame.Bars {
		switch signals[i] {
		case types.SignalBuy:
			if r.state.Position == nil && i < last {
				r.ExecuteBuyOrder(bar.Timestamp, bar.Close)
			}
		case types.SignalSell:
			if r.state.Position != nil {
				r.ExecuteSellOrder(bar.Timestamp, bar.Close)
			}
		}
	}

	if r.state.Position != nil && last >= 0 {
		bar := frame.Bars[last]
		r.log.Info("closing open position at end of data: %s @ %.4f", bar.Timestamp.Format(time.DateTime), bar.Close)
		r.ExecuteSellOrder(bar.Timestamp, bar.Close)
	}
	return nil
}

// ExecuteBuyOrder spends all current capital, less the fee, at price*(1+slippage).
// It returns false when the order is ignored.
func (r *Runner) ExecuteBuyOrder(ts time.Time, price float64) bool {
	st := r.state
	if st.Position != nil {
		r.log.Warning("buy at %s ignored: position already open", ts.Format(time.DateTime))
		return false
	}
	if price <= 0 || st.CurrentCapital <= 0 {
		r.log.Warning("buy at %s ignored: price %.4f, capital %.2f", ts.Format(time.DateTime), price, st.CurrentCapital)
		return false
	}

	fill := price * (1 + r.cfg.Slippage)
	fee := st.CurrentCapital * r.cfg.FeeRate
	amount := st.CurrentCapital - fee
	qty := amount / fill

	st.Position = &Position{
		Side:       SideLong,
		EntryPrice: fill,
		Quantity:   qty,
		EntryTime:  ts,
		EntryFee:   fee,
	}
	st.CurrentCapital = 0

	monitoring.RecordFill(r.cfg.Symbol, "buy")
	r.log.Trade("BUY %s qty=%.8f @ %.4f fee=%.4f time=%s", r.cfg.Symbol, qty, fill, fee, ts.Format(time.DateTime))
	return true
}

// ExecuteSellOrder closes the open position at price*(1-slippage) and records
// the trade. It returns nil when there is nothing to sell.
func (r *Runner) ExecuteSellOrder(ts time.Time, price float64) *Trade {
	st := r.state
	pos := st.Position
	if pos == nil {
		r.log.Warning("sell at %s ignored: no open position", ts.Format(time.DateTime))
		return nil
	}
	if !ts.After(pos.EntryTime) {
		r.log.Warning("sell at %s ignored: not after entry %s", ts.Format(time.DateTime), pos.EntryTime.Format(time.DateTime))
		return nil
	}

	fill := price * (1 - r.cfg.Slippage)
	sellAmount := pos.Quantity * fill
	fee := sellAmount * r.cfg.FeeRate
	entryAmount := pos.Quantity * pos.EntryPrice
	totalFee := pos.EntryFee + fee
	pl := sellAmount - entryAmount - totalFee

	plPercent := 0.0
	if entryAmount > 0 {
		plPercent = pl / entryAmount * 100
	}

	trade := Trade{
		ID:                uuid.NewString(),
		Symbol:            r.cfg.Symbol,
		Side:              pos.Side,
		EntryTime:         pos.EntryTime,
		EntryPrice:        pos.EntryPrice,
		ExitTime:          ts,
		ExitPrice:         fill,
		Quantity:          pos.Quantity,
		EntryFee:          pos.EntryFee,
		ExitFee:           fee,
		TotalFee:          totalFee,
		ProfitLoss:        pl,
		ProfitLossPercent: plPercent,
		Duration:          ts.Sub(pos.EntryTime),
	}

	st.CurrentCapital = sellAmount - fee
	st.Position = nil
	st.Trades = append(st.Trades, trade)

	monitoring.RecordFill(r.cfg.Symbol, "sell")
	r.log.Trade("SELL %s qty=%.8f @ %.4f fee=%.4f pnl=%.2f (%.2f%%) time=%s",
		r.cfg.Symbol, trade.Quantity, fill, fee, pl, plPercent, ts.Format(time.DateTime))
	return &trade
}

// CalculatePerformanceMetrics summarizes the closed trades of the current state
func (r *Runner) CalculatePerformanceMetrics() PerformanceMetrics {
	finalCapital := r.state.CurrentCapital
	if pos := r.state.Position; pos != nil {
		finalCapital += pos.Quantity * pos.EntryPrice
	}
	return ComputeMetrics(r.state.Trades, r.cfg.InitialCapital, finalCapital, r.totalDays())
}

// totalDays is the whole-day span of the loaded data, or of the trades when no data is loaded
func (r *Runner) totalDays() int {
	var first, last time.Time
	if r.frame.Len() > 0 {
		first = r.frame.Bars[0].Timestamp
		last = r.frame.Bars[r.frame.Len()-1].Timestamp
	} else if n := len(r.state.Trades); n > 0 {
		first = r.state.Trades[0].EntryTime
		last = r.state.Trades[n-1].ExitTime
	}
	return int(last.Sub(first).Hours() / 24)
}

// GenerateEquityCurve replays the recorded trades over the frame's bars.
// Open positions are marked at close * quantity, without fees.
func (r *Runner) GenerateEquityCurve(frame *types.Frame) EquityCurve {
	curve := make(EquityCurve, frame.Len())
	initial := r.cfg.InitialCapital

	entries := make(map[int64]Trade, len(r.state.Trades))
	exits := make(map[int64]Trade, len(r.state.Trades))
	for _, t := range r.state.Trades {
		entries[t.EntryTime.UnixNano()] = t
		exits[t.ExitTime.UnixNano()] = t
	}

	cash := initial
	qty := 0.0
	for i, bar := range frame.Bars {
		key := bar.Timestamp.UnixNano()
		if t, ok := exits[key]; ok && qty > 0 {
			cash = t.ExitAmount() - t.ExitFee
			qty = 0
		}
		if t, ok := entries[key]; ok && qty == 0 {
			cash = 0
			qty = t.Quantity
		}
		posValue := qty * bar.Close
		curve[i] = EquityPoint{
			Timestamp:     bar.Timestamp,
			Equity:        cash + posValue,
			Cash:          cash,
			PositionValue: posValue,
		}
	}
	return curve
}
