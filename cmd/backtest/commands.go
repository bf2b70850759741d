package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ducminhle1904/upbit-backtester/internal/analysis"
	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/ducminhle1904/upbit-backtester/internal/config"
	"github.com/ducminhle1904/upbit-backtester/internal/exchange/bybit"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/internal/results"
	"github.com/ducminhle1904/upbit-backtester/internal/strategy"
	"github.com/ducminhle1904/upbit-backtester/pkg/data"
	"github.com/ducminhle1904/upbit-backtester/pkg/reporting"
)

type app struct {
	flags *cliFlags
	cfg   *config.BacktestConfig
	log   *logger.Logger
}

// storage picks the market data source from the config
func (a *app) storage() (data.MarketDataStorage, error) {
	switch strings.ToLower(a.cfg.DataSource) {
	case "bybit":
		client := bybit.NewClient(bybit.Config{
			APIKey:    os.Getenv("BYBIT_API_KEY"),
			APISecret: os.Getenv("BYBIT_API_SECRET"),
			Testnet:   strings.EqualFold(os.Getenv("BYBIT_TESTNET"), "true"),
		})
		a.log.Info("loading market data from Bybit %s", client.GetEnvironment())
		return bybit.NewKlineStorage(client, a.log), nil
	case "csv", "":
		if a.cfg.DataFile == "" {
			return nil, fmt.Errorf("no data file: use -data or set data_file")
		}
		format, err := data.CSVFormatByName(a.cfg.CSVFormat)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(a.cfg.DataFile)
		if err != nil {
			return nil, fmt.Errorf("data path: %w", err)
		}
		if info.IsDir() {
			return data.NewCSVStorageRoot(a.cfg.DataFile, a.log).WithFormat(format), nil
		}
		return data.NewCSVStorage(a.cfg.DataFile, a.log).WithFormat(format), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", a.cfg.DataSource)
	}
}

func (a *app) openManager(ctx context.Context) (*results.Manager, error) {
	opts := []results.Option{
		results.WithResultsDir(a.cfg.ResultsDir),
		results.WithLogger(a.log),
	}
	if a.cfg.DatabasePath != "" {
		opts = append(opts, results.WithDatabase(a.cfg.DatabasePath))
	}
	return results.NewManager(ctx, opts...)
}

func (a *app) reporter() *reporting.DefaultReporter {
	return reporting.NewDefaultReporter(os.Stdout)
}

func (a *app) runBacktest(ctx context.Context) error {
	strat, err := strategy.CreateStrategy(a.cfg.Strategy, a.cfg.StrategyParams)
	if err != nil {
		return err
	}
	storage, err := a.storage()
	if err != nil {
		return err
	}
	runner, err := backtest.NewRunner(strat, storage, a.cfg, backtest.WithLogger(a.log))
	if err != nil {
		return err
	}

	res, err := runner.ExecuteBacktest(ctx)
	if err != nil {
		return err
	}

	cfgMap := a.cfg.ToMap()
	report := analysis.New(analysis.BundleFromResult(res, cfgMap)).GenerateReport()
	if err := a.writeReport(report, res.Symbol, res.Timeframe); err != nil {
		return err
	}

	if !a.flags.Save {
		return nil
	}
	mgr, err := a.openManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	id, out := mgr.SaveBacktestResult(ctx, results.NewBacktestResult(res, a.cfg))
	return reportSave("backtest", id, out)
}

func (a *app) runPortfolio(ctx context.Context) error {
	weights, err := parseKeyValues(a.flags.Portfolio)
	if err != nil {
		return fmt.Errorf("-portfolio: %w", err)
	}
	storage, err := a.storage()
	if err != nil {
		return err
	}

	factory := func(string) (strategy.Strategy, error) {
		return strategy.CreateStrategy(a.cfg.Strategy, a.cfg.StrategyParams)
	}
	pr, err := backtest.NewPortfolioRunner(storage, factory, a.flags.Workers, a.log).Run(ctx, a.cfg, weights)
	if err != nil {
		return err
	}

	symbols := make([]string, 0, len(pr.Results))
	var trades []backtest.Trade
	for symbol, res := range pr.Results {
		symbols = append(symbols, symbol)
		trades = append(trades, res.Trades...)
	}
	sort.Strings(symbols)
	name := strings.Join(symbols, "+")

	cfgMap := a.cfg.ToMap()
	cfgMap["weights"] = pr.Weights
	report := analysis.New(analysis.Bundle{
		Trades:       trades,
		Metrics:      pr.Metrics,
		EquityCurve:  pr.EquityCurve,
		Config:       cfgMap,
		StrategyName: a.cfg.Strategy,
	}).GenerateReport()
	if err := a.writeReport(report, name, a.cfg.Timeframe); err != nil {
		return err
	}

	if !a.flags.Save {
		return nil
	}
	mgr, err := a.openManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	id, out := mgr.SavePortfolioBacktestResult(ctx, results.NewPortfolioBacktestResult(name, pr, a.cfg))
	return reportSave("portfolio", id, out)
}

func (a *app) writeReport(report *analysis.Report, symbol, timeframe string) error {
	r := a.reporter()
	r.OutputReport(report, symbol, timeframe)

	if a.flags.CSV != "" {
		if err := r.WriteTradesCSV(report, a.flags.CSV); err != nil {
			return fmt.Errorf("failed to write trades CSV: %w", err)
		}
		fmt.Printf("📄 Trades written to %s\n", a.flags.CSV)
	}
	if a.flags.XLSX != "" {
		if err := r.WriteReportXLSX(report, a.flags.XLSX); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		fmt.Printf("📊 Workbook written to %s\n", a.flags.XLSX)
	}
	return nil
}

// reportSave prints the outcome; a partial save is reported but not fatal
func reportSave(kind, id string, out results.SaveOutcome) error {
	switch {
	case out.OK():
		fmt.Printf("💾 Saved %s result %s\n", kind, id)
		return nil
	case out.DBOK || out.FileOK:
		fmt.Printf("⚠️  Saved %s result %s partially (database=%t, file=%t)\n", kind, id, out.DBOK, out.FileOK)
		return nil
	}
	return fmt.Errorf("failed to save %s result: database: %v; file: %v", kind, out.DBErr, out.FileErr)
}

func (a *app) listResults(ctx context.Context) error {
	mgr, err := a.openManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	filter := results.Filter{StartFrom: a.cfg.StartDate, EndTo: a.cfg.EndDate}
	if a.flags.isSet("symbol") {
		filter.Symbol = a.cfg.Symbol
	}
	if a.flags.isSet("timeframe") {
		filter.Timeframe = a.cfg.Timeframe
	}
	rows, err := mgr.ListBacktestResults(ctx, filter)
	if err != nil {
		return err
	}
	a.reporter().OutputSummaryRows(rows)
	return nil
}

func (a *app) compareResults(ctx context.Context, ids []string) error {
	if len(ids) < 2 {
		return fmt.Errorf("-compare needs at least two ids")
	}
	mgr, err := a.openManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	cmp, err := mgr.CompareBacktestResults(ctx, ids)
	if err != nil {
		return err
	}
	r := a.reporter()
	r.OutputComparison(cmp)
	if a.flags.XLSX != "" {
		if err := r.WriteComparisonXLSX(cmp, a.flags.XLSX); err != nil {
			return fmt.Errorf("failed to write comparison workbook: %w", err)
		}
		fmt.Printf("📊 Comparison workbook written to %s\n", a.flags.XLSX)
	}
	return nil
}

func (a *app) deleteResult(ctx context.Context, id string) error {
	mgr, err := a.openManager(ctx)
	if err != nil {
		return err
	}
	defer mgr.Close()

	out := mgr.DeleteBacktestResult(ctx, id)
	if !out.OK() {
		if out.RowErr == nil && out.FileErr == nil {
			return fmt.Errorf("result %s not found", id)
		}
		return fmt.Errorf("failed to delete %s: database: %v; file: %v", id, out.RowErr, out.FileErr)
	}
	fmt.Printf("🗑️  Deleted %s (database=%t, file=%t)\n", id, out.RowDeleted, out.FileDeleted)
	return nil
}
