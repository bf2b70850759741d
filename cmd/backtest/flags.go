package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ducminhle1904/upbit-backtester/internal/strategy"
)

type cliFlags struct {
	ConfigFile  string
	EnvFile     string
	DataFile    string
	Source      string
	CSVFormat   string
	Symbol      string
	Timeframe   string
	Start       string
	End         string
	Strategy    string
	Params      string
	Capital     float64
	Fee         float64
	Slippage    float64
	Portfolio   string
	Workers     int
	ResultsDir  string
	XLSX        string
	CSV         string
	Save        bool
	List        bool
	Compare     string
	Delete      string
	MetricsAddr string
	LogDir      string
	Quiet       bool
	Version     bool

	// set holds the names of flags given on the command line
	set map[string]bool
}

func registerFlags(fs *flag.FlagSet) *cliFlags {
	f := &cliFlags{}
	fs.StringVar(&f.ConfigFile, "config", "", "JSON config file")
	fs.StringVar(&f.EnvFile, "env", "", "Environment file (default .env when present)")
	fs.StringVar(&f.DataFile, "data", "", "CSV data file, or a data root directory searched by symbol/timeframe")
	fs.StringVar(&f.Source, "source", "", "Market data source: csv or bybit")
	fs.StringVar(&f.CSVFormat, "csv-format", "", "CSV layout: default or upbit (KST timestamps)")
	fs.StringVar(&f.Symbol, "symbol", "", "Symbol, e.g. KRW-BTC")
	fs.StringVar(&f.Timeframe, "timeframe", "", "Bar timeframe, e.g. 1h, 4h, 1d")
	fs.StringVar(&f.Start, "start", "", "Start date (YYYY-MM-DD)")
	fs.StringVar(&f.End, "end", "", "End date (YYYY-MM-DD)")
	fs.StringVar(&f.Strategy, "strategy", "", "Strategy: "+strings.Join(strategyNames(), ", "))
	fs.StringVar(&f.Params, "params", "", "Strategy parameters, e.g. fast=10,slow=30")
	fs.Float64Var(&f.Capital, "capital", 0, "Initial capital")
	fs.Float64Var(&f.Fee, "fee", 0, "Fee rate per fill, e.g. 0.0005")
	fs.Float64Var(&f.Slippage, "slippage", 0, "Slippage rate per fill, e.g. 0.0002")
	fs.StringVar(&f.Portfolio, "portfolio", "", "Weighted symbols, e.g. KRW-BTC:0.6,KRW-ETH:0.4")
	fs.IntVar(&f.Workers, "workers", 0, "Portfolio workers (default one per CPU)")
	fs.StringVar(&f.ResultsDir, "results-dir", "", "Directory for saved results and the SQLite database")
	fs.StringVar(&f.XLSX, "xlsx", "", "Write the report (or -compare) workbook to this path")
	fs.StringVar(&f.CSV, "csv", "", "Write the trade list to this path")
	fs.BoolVar(&f.Save, "save", false, "Persist the result")
	fs.BoolVar(&f.List, "list", false, "List saved results and exit")
	fs.StringVar(&f.Compare, "compare", "", "Compare saved results, e.g. id1,id2")
	fs.StringVar(&f.Delete, "delete", "", "Delete a saved result")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9102")
	fs.StringVar(&f.LogDir, "log-dir", "", "Also write a session log file under this directory")
	fs.BoolVar(&f.Quiet, "quiet", false, "Only print the report")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	return f
}

func (f *cliFlags) markSet(fs *flag.FlagSet) {
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
}

func (f *cliFlags) isSet(name string) bool {
	return f.set[name]
}

func (f *cliFlags) validate() error {
	v := newFlagValidator()
	if f.Source != "" {
		v.validateChoice("source", f.Source, []string{"csv", "bybit"})
	}
	if f.CSVFormat != "" {
		v.validateChoice("csv-format", f.CSVFormat, []string{"default", "upbit"})
	}
	if f.isSet("capital") {
		v.validatePositive("capital", f.Capital)
	}
	if f.isSet("fee") {
		v.validateRate("fee", f.Fee)
	}
	if f.isSet("slippage") {
		v.validateRate("slippage", f.Slippage)
	}
	v.validateFile("config", f.ConfigFile)
	v.validateFile("env", f.EnvFile)
	modes := 0
	for _, on := range []bool{f.List, f.Compare != "", f.Delete != ""} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		v.addError("-list, -compare and -delete are mutually exclusive")
	}
	return v.err()
}

// flagValidator collects every problem before reporting
type flagValidator struct {
	errors []string
}

func newFlagValidator() *flagValidator {
	return &flagValidator{}
}

func (v *flagValidator) validateChoice(name, value string, choices []string) {
	for _, c := range choices {
		if value == c {
			return
		}
	}
	v.addError(fmt.Sprintf("-%s must be one of [%s], got: %s", name, strings.Join(choices, ", "), value))
}

func (v *flagValidator) validatePositive(name string, value float64) {
	if value <= 0 {
		v.addError(fmt.Sprintf("-%s must be positive, got: %g", name, value))
	}
}

func (v *flagValidator) validateRate(name string, value float64) {
	if value < 0 || value >= 1 {
		v.addError(fmt.Sprintf("-%s must be in [0, 1), got: %g", name, value))
	}
}

func (v *flagValidator) validateFile(name, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.addError(fmt.Sprintf("-%s file does not exist: %s", name, path))
	}
}

func (v *flagValidator) addError(msg string) {
	v.errors = append(v.errors, msg)
}

func (v *flagValidator) err() error {
	switch len(v.errors) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("validation error: %s", v.errors[0])
	}
	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}

// parseKeyValues parses "a=1,b=2" (or "a:1,b:2") into a map
func parseKeyValues(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sep := strings.IndexAny(part, "=:")
		if sep <= 0 {
			return nil, fmt.Errorf("expected key=value, got %q", part)
		}
		key := strings.TrimSpace(part[:sep])
		val, err := strconv.ParseFloat(strings.TrimSpace(part[sep+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", key, part[sep+1:])
		}
		out[key] = val
	}
	return out, nil
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		name := filepath.Base(os.Args[0])
		fmt.Fprintf(fs.Output(), "%s - backtest strategies on Upbit market data\n\n", appName)
		fmt.Fprintf(fs.Output(), "USAGE:\n  %s [OPTIONS]\n\n", name)
		fmt.Fprintf(fs.Output(), "EXAMPLES:\n")
		fmt.Fprintf(fs.Output(), "  # SMA crossover on a CSV file, saved and exported\n")
		fmt.Fprintf(fs.Output(), "  %s -data data/KRW-BTC_1d.csv -symbol KRW-BTC -strategy sma_cross -params fast=10,slow=30 -save -xlsx out/report.xlsx\n\n", name)
		fmt.Fprintf(fs.Output(), "  # Two-symbol portfolio from a data root\n")
		fmt.Fprintf(fs.Output(), "  %s -data data -portfolio KRW-BTC:0.6,KRW-ETH:0.4 -timeframe 4h\n\n", name)
		fmt.Fprintf(fs.Output(), "  # Compare saved runs\n")
		fmt.Fprintf(fs.Output(), "  %s -compare 1f0e...,7ab2... -xlsx out/compare.xlsx\n\n", name)
		fmt.Fprintf(fs.Output(), "STRATEGIES (-params defaults):\n")
		for _, name := range strategy.GetAvailableStrategies() {
			fmt.Fprintf(fs.Output(), "  %-10s %s\n", name, strategy.FormatParameters(strategy.GetDefaultParameters(name)))
		}
		fmt.Fprintf(fs.Output(), "\n")
		fmt.Fprintf(fs.Output(), "OPTIONS:\n")
		fs.PrintDefaults()
	}
}
