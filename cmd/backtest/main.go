package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/config"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/internal/monitoring"
	"github.com/ducminhle1904/upbit-backtester/internal/strategy"
)

func main() {
	fs := flag.NewFlagSet(appName, flag.ExitOnError)
	f := registerFlags(fs)
	fs.Usage = usage(fs)
	_ = fs.Parse(os.Args[1:])
	f.markSet(fs)

	if f.Version {
		printVersion()
		return
	}
	if err := f.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, f *cliFlags) error {
	if err := config.LoadEnvFile(f.EnvFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	cfg, err := buildConfig(f)
	if err != nil {
		return err
	}

	log := logger.Default()
	if f.Quiet {
		log = logger.Discard()
	}
	if f.LogDir != "" {
		fileLog, err := logger.NewFileLogger(f.LogDir, cfg.Symbol, cfg.Timeframe)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		defer fileLog.Close()
		log = fileLog
	}

	if f.MetricsAddr != "" {
		srv := startMetricsServer(f.MetricsAddr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	app := &app{flags: f, cfg: cfg, log: log}
	switch {
	case f.List:
		return app.listResults(ctx)
	case f.Compare != "":
		return app.compareResults(ctx, splitIDs(f.Compare))
	case f.Delete != "":
		return app.deleteResult(ctx, f.Delete)
	case f.Portfolio != "":
		return app.runPortfolio(ctx)
	default:
		return app.runBacktest(ctx)
	}
}

// buildConfig layers defaults, the config file, BACKTEST_* variables and
// finally the flags given on the command line
func buildConfig(f *cliFlags) (*config.BacktestConfig, error) {
	cfg, err := config.Load(f.ConfigFile)
	if err != nil {
		return nil, err
	}

	if f.isSet("symbol") {
		cfg.Symbol = f.Symbol
	}
	if f.isSet("timeframe") {
		cfg.Timeframe = f.Timeframe
	}
	if f.isSet("data") {
		cfg.DataFile = f.DataFile
	}
	if f.isSet("source") {
		cfg.DataSource = f.Source
	}
	if f.isSet("csv-format") {
		cfg.CSVFormat = f.CSVFormat
	}
	if f.isSet("strategy") {
		cfg.Strategy = f.Strategy
	}
	if f.isSet("capital") {
		cfg.InitialCapital = f.Capital
	}
	if f.isSet("fee") {
		cfg.FeeRate = f.Fee
	}
	if f.isSet("slippage") {
		cfg.Slippage = f.Slippage
	}
	if f.isSet("results-dir") {
		cfg.ResultsDir = f.ResultsDir
		cfg.DatabasePath = ""
	}
	if f.isSet("start") {
		if cfg.StartDate, err = config.ParseDate(f.Start); err != nil {
			return nil, fmt.Errorf("-start: %w", err)
		}
	}
	if f.isSet("end") {
		if cfg.EndDate, err = config.ParseDate(f.End); err != nil {
			return nil, fmt.Errorf("-end: %w", err)
		}
	}
	if f.isSet("params") {
		params, err := parseKeyValues(f.Params)
		if err != nil {
			return nil, fmt.Errorf("-params: %w", err)
		}
		for k, v := range params {
			cfg.StrategyParams[k] = v
		}
	}
	return cfg, nil
}

func startMetricsServer(addr string, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", monitoring.DefaultHealthChecker())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server: %v", err)
		}
	}()
	return srv
}

func strategyNames() []string {
	return strategy.GetAvailableStrategies()
}
