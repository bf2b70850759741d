package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/config"
	bterrors "github.com/ducminhle1904/upbit-backtester/internal/errors"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/internal/strategy"
	"github.com/ducminhle1904/upbit-backtester/pkg/data"
)

// StrategyFactory builds a fresh strategy for one symbol of a portfolio
type StrategyFactory func(symbol string) (strategy.Strategy, error)

// PortfolioResult combines per-symbol runs into one weighted portfolio
type PortfolioResult struct {
	Weights     map[string]float64
	Results     map[string]*Result
	EquityCurve EquityCurve
	Metrics     PerformanceMetrics
	StartDate   time.Time
	EndDate     time.Time
}

// symbolJob is a single backtest task
type symbolJob struct {
	symbol string
	cfg    config.BacktestConfig
}

// symbolOutcome is the result of a job
type symbolOutcome struct {
	symbol   string
	result   *Result
	duration time.Duration
	err      error
}

// PortfolioRunner runs one independent Runner per symbol on a worker pool.
// Each symbol starts with initial_capital * weight.
type PortfolioRunner struct {
	storage     data.MarketDataStorage
	factory     StrategyFactory
	workerCount int
	log         *logger.Logger
}

// NewPortfolioRunner creates a runner; workerCount <= 0 uses one worker per CPU
func NewPortfolioRunner(storage data.MarketDataStorage, factory StrategyFactory, workerCount int, l *logger.Logger) *PortfolioRunner {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	return &PortfolioRunner{
		storage:     storage,
		factory:     factory,
		workerCount: workerCount,
		log:         logger.OrDefault(l),
	}
}

// Run backtests every weighted symbol using base for all other settings.
// Weights are normalized to sum to 1; if they sum to zero they are made equal.
// The first failing symbol aborts the portfolio.
func (p *PortfolioRunner) Run(ctx context.Context, base *config.BacktestConfig, weights map[string]float64) (*PortfolioResult, error) {
	if base == nil {
		return nil, bterrors.NewConfigurationError("portfolio_runner", "Run", "config is required")
	}
	if len(weights) == 0 {
		return nil, bterrors.NewConfigurationError("portfolio_runner", "Run", "at least one symbol is required")
	}
	norm, err := normalizeWeights(weights)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan symbolJob, len(norm))
	outcomes := make(chan symbolOutcome, len(norm))

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, &wg, jobs, outcomes)
	}

	for _, symbol := range sortedKeys(norm) {
		cfg := *base
		cfg.Symbol = symbol
		cfg.InitialCapital = base.InitialCapital * norm[symbol]
		jobs <- symbolJob{symbol: symbol, cfg: cfg}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make(map[string]*Result, len(norm))
	var firstErr error
	for out := range outcomes {
		if out.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("portfolio symbol %s: %w", out.symbol, out.err)
				cancel()
			}
			continue
		}
		p.log.Info("portfolio leg %s done in %s", out.symbol, out.duration.Round(time.Millisecond))
		results[out.symbol] = out.result
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return combinePortfolio(base.InitialCapital, norm, results), nil
}

// worker processes jobs until the queue is drained or ctx is cancelled
func (p *PortfolioRunner) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan symbolJob, outcomes chan<- symbolOutcome) {
	defer wg.Done()
	for job := range jobs {
		if ctx.Err() != nil {
			outcomes <- symbolOutcome{symbol: job.symbol, err: ctx.Err()}
			continue
		}
		outcomes <- p.processJob(ctx, job)
	}
}

// processJob runs a single symbol on its own Runner
func (p *PortfolioRunner) processJob(ctx context.Context, job symbolJob) symbolOutcome {
	started := time.Now()
	out := symbolOutcome{symbol: job.symbol}

	strat, err := p.factory(job.symbol)
	if err != nil {
		out.err = err
		return out
	}
	runner, err := NewRunner(strat, p.storage, &job.cfg, WithLogger(p.log))
	if err != nil {
		out.err = err
		return out
	}
	out.result, out.err = runner.ExecuteBacktest(ctx)
	out.duration = time.Since(started)
	return out
}

func normalizeWeights(weights map[string]float64) (map[string]float64, error) {
	total := 0.0
	for symbol, w := range weights {
		if w < 0 {
			return nil, bterrors.NewConfigurationError("portfolio_runner", "Run",
				fmt.Sprintf("weight for %s must not be negative", symbol))
		}
		total += w
	}
	out := make(map[string]float64, len(weights))
	for symbol, w := range weights {
		if total == 0 {
			out[symbol] = 1 / float64(len(weights))
		} else {
			out[symbol] = w / total
		}
	}
	return out, nil
}

// combinePortfolio sums the legs' equity on the union of their timestamps,
// carrying each leg's last value forward (its starting capital before its first bar).
func combinePortfolio(initialCapital float64, weights map[string]float64, results map[string]*Result) *PortfolioResult {
	pr := &PortfolioResult{
		Weights: weights,
		Results: results,
	}

	stampSet := make(map[int64]time.Time)
	var trades []Trade
	finalCapital := 0.0
	for _, res := range results {
		for _, pt := range res.EquityCurve {
			stampSet[pt.Timestamp.UnixNano()] = pt.Timestamp
		}
		trades = append(trades, res.Trades...)
		finalCapital += res.Metrics.FinalCapital
		if pr.StartDate.IsZero() || res.StartDate.Before(pr.StartDate) {
			pr.StartDate = res.StartDate
		}
		if res.EndDate.After(pr.EndDate) {
			pr.EndDate = res.EndDate
		}
	}

	stamps := make([]time.Time, 0, len(stampSet))
	for _, ts := range stampSet {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	type leg struct {
		curve EquityCurve
		idx   int
		last  EquityPoint
	}
	legs := make([]*leg, 0, len(results))
	for _, symbol := range sortedKeys(weights) {
		res, ok := results[symbol]
		if !ok {
			continue
		}
		start := initialCapital * weights[symbol]
		legs = append(legs, &leg{curve: res.EquityCurve, last: EquityPoint{Equity: start, Cash: start}})
	}

	pr.EquityCurve = make(EquityCurve, len(stamps))
	for i, ts := range stamps {
		pt := EquityPoint{Timestamp: ts}
		for _, l := range legs {
			for l.idx < len(l.curve) && !l.curve[l.idx].Timestamp.After(ts) {
				l.last = l.curve[l.idx]
				l.idx++
			}
			pt.Equity += l.last.Equity
			pt.Cash += l.last.Cash
			pt.PositionValue += l.last.PositionValue
		}
		pr.EquityCurve[i] = pt
	}

	sort.Slice(trades, func(i, j int) bool { return trades[i].ExitTime.Before(trades[j].ExitTime) })
	days := 0
	if len(stamps) > 1 {
		days = int(stamps[len(stamps)-1].Sub(stamps[0]).Hours() / 24)
	}
	if len(results) == 0 {
		finalCapital = initialCapital
	}
	pr.Metrics = ComputeMetrics(trades, initialCapital, finalCapital, days)
	if len(trades) == 0 {
		pr.Metrics.FinalCapital = finalCapital
	}
	return pr
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
