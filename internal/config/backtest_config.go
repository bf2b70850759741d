package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	bterrors "github.com/ducminhle1904/upbit-backtester/internal/errors"
	"github.com/joho/godotenv"
)

// Default values for a backtest configuration
const (
	DefaultTimeframe      = "1d"
	DefaultInitialCapital = 1_000_000.0
	DefaultFeeRate        = 0.0005
	DefaultSlippage       = 0.0002
	DefaultResultsDir     = "data/backtest_results"
	DefaultDatabaseFile   = "backtests.db"
	DefaultStrategy       = "sma_cross"
	DefaultDataSource     = "csv"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// BacktestConfig holds everything a single backtest run needs
type BacktestConfig struct {
	Symbol         string
	Timeframe      string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	FeeRate        float64
	Slippage       float64

	ResultsDir   string
	DatabasePath string
	DataFile     string
	DataSource   string
	CSVFormat    string

	Strategy       string
	StrategyParams map[string]float64
}

// fileConfig mirrors the flat JSON layout; pointers distinguish absent keys from zero values
type fileConfig struct {
	Symbol         *string            `json:"symbol"`
	Timeframe      *string            `json:"timeframe"`
	StartDate      *string            `json:"start_date"`
	EndDate        *string            `json:"end_date"`
	InitialCapital *float64           `json:"initial_capital"`
	FeeRate        *float64           `json:"fee_rate"`
	Slippage       *float64           `json:"slippage"`
	ResultsDir     *string            `json:"results_dir"`
	DatabasePath   *string            `json:"database_path"`
	DataFile       *string            `json:"data_file"`
	DataSource     *string            `json:"data_source"`
	CSVFormat      *string            `json:"csv_format"`
	Strategy       *string            `json:"strategy"`
	StrategyParams map[string]float64 `json:"strategy_params"`
}

// NewDefaultBacktestConfig returns a config with every default applied
func NewDefaultBacktestConfig() *BacktestConfig {
	return &BacktestConfig{
		Timeframe:      DefaultTimeframe,
		InitialCapital: DefaultInitialCapital,
		FeeRate:        DefaultFeeRate,
		Slippage:       DefaultSlippage,
		ResultsDir:     DefaultResultsDir,
		DatabasePath:   filepath.Join(DefaultResultsDir, DefaultDatabaseFile),
		DataSource:     DefaultDataSource,
		Strategy:       DefaultStrategy,
		StrategyParams: make(map[string]float64),
	}
}

// Load builds a config from defaults, an optional JSON file and BACKTEST_* environment variables.
// It does not validate; call Validate once every source has been applied.
func Load(path string) (*BacktestConfig, error) {
	cfg := NewDefaultBacktestConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		if err := cfg.applyJSON(data); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process environment.
// A missing default file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
		return godotenv.Load()
	}
	return godotenv.Load(path)
}

func (c *BacktestConfig) applyJSON(data []byte) error {
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.Symbol != nil {
		c.Symbol = *fc.Symbol
	}
	if fc.Timeframe != nil {
		c.Timeframe = *fc.Timeframe
	}
	if fc.StartDate != nil {
		t, err := ParseDate(*fc.StartDate)
		if err != nil {
			return fmt.Errorf("start_date: %w", err)
		}
		c.StartDate = t
	}
	if fc.EndDate != nil {
		t, err := ParseDate(*fc.EndDate)
		if err != nil {
			return fmt.Errorf("end_date: %w", err)
		}
		c.EndDate = t
	}
	if fc.InitialCapital != nil {
		c.InitialCapital = *fc.InitialCapital
	}
	if fc.FeeRate != nil {
		c.FeeRate = *fc.FeeRate
	}
	if fc.Slippage != nil {
		c.Slippage = *fc.Slippage
	}
	if fc.ResultsDir != nil {
		c.ResultsDir = *fc.ResultsDir
		if fc.DatabasePath == nil {
			c.DatabasePath = filepath.Join(c.ResultsDir, DefaultDatabaseFile)
		}
	}
	if fc.DatabasePath != nil {
		c.DatabasePath = *fc.DatabasePath
	}
	if fc.DataFile != nil {
		c.DataFile = *fc.DataFile
	}
	if fc.DataSource != nil {
		c.DataSource = *fc.DataSource
	}
	if fc.CSVFormat != nil {
		c.CSVFormat = *fc.CSVFormat
	}
	if fc.Strategy != nil {
		c.Strategy = *fc.Strategy
	}
	for k, v := range fc.StrategyParams {
		c.StrategyParams[k] = v
	}
	return nil
}

func (c *BacktestConfig) applyEnv() error {
	c.Symbol = getEnv("BACKTEST_SYMBOL", c.Symbol)
	c.Timeframe = getEnv("BACKTEST_TIMEFRAME", c.Timeframe)
	c.ResultsDir = getEnv("BACKTEST_RESULTS_DIR", c.ResultsDir)
	c.DatabasePath = getEnv("BACKTEST_DATABASE_PATH", c.DatabasePath)
	c.DataFile = getEnv("BACKTEST_DATA_FILE", c.DataFile)
	c.DataSource = getEnv("BACKTEST_DATA_SOURCE", c.DataSource)
	c.CSVFormat = getEnv("BACKTEST_CSV_FORMAT", c.CSVFormat)
	c.Strategy = getEnv("BACKTEST_STRATEGY", c.Strategy)

	var err error
	if c.InitialCapital, err = getEnvFloat("BACKTEST_INITIAL_CAPITAL", c.InitialCapital); err != nil {
		return err
	}
	if c.FeeRate, err = getEnvFloat("BACKTEST_FEE_RATE", c.FeeRate); err != nil {
		return err
	}
	if c.Slippage, err = getEnvFloat("BACKTEST_SLIPPAGE", c.Slippage); err != nil {
		return err
	}
	if c.StartDate, err = getEnvDate("BACKTEST_START_DATE", c.StartDate); err != nil {
		return err
	}
	if c.EndDate, err = getEnvDate("BACKTEST_END_DATE", c.EndDate); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations a run cannot start from
func (c *BacktestConfig) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return bterrors.NewConfigurationError("config", "Validate", "symbol is required")
	}
	if c.Timeframe == "" {
		return bterrors.NewConfigurationError("config", "Validate", "timeframe is required")
	}
	if c.InitialCapital <= 0 {
		return bterrors.NewConfigurationError("config", "Validate",
			fmt.Sprintf("initial_capital must be positive, got %.2f", c.InitialCapital))
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return bterrors.NewConfigurationError("config", "Validate",
			fmt.Sprintf("fee_rate must be in [0, 1), got %f", c.FeeRate))
	}
	if c.Slippage < 0 || c.Slippage >= 1 {
		return bterrors.NewConfigurationError("config", "Validate",
			fmt.Sprintf("slippage must be in [0, 1), got %f", c.Slippage))
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return bterrors.NewConfigurationError("config", "Validate", "end_date is before start_date")
	}
	return nil
}

// ToMap returns the flat key/value view stored alongside persisted results
func (c *BacktestConfig) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"symbol":          c.Symbol,
		"timeframe":       c.Timeframe,
		"initial_capital": c.InitialCapital,
		"fee_rate":        c.FeeRate,
		"slippage":        c.Slippage,
		"strategy":        c.Strategy,
	}
	if !c.StartDate.IsZero() {
		m["start_date"] = c.StartDate.Format("2006-01-02 15:04:05")
	}
	if !c.EndDate.IsZero() {
		m["end_date"] = c.EndDate.Format("2006-01-02 15:04:05")
	}
	if len(c.StrategyParams) > 0 {
		params := make(map[string]interface{}, len(c.StrategyParams))
		for k, v := range c.StrategyParams {
			params[k] = v
		}
		m["strategy_params"] = params
	}
	return m
}

// Param returns a strategy parameter or def when unset
func (c *BacktestConfig) Param(name string, def float64) float64 {
	if v, ok := c.StrategyParams[name]; ok {
		return v
	}
	return def
}

// ParseDate accepts a date, a date-time or an RFC3339 timestamp
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, bterrors.NewConfigurationError("config", "applyEnv", fmt.Sprintf("%s: invalid number %q", key, val))
	}
	return f, nil
}

func getEnvDate(key string, defaultVal time.Time) (time.Time, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	t, err := ParseDate(val)
	if err != nil {
		return time.Time{}, bterrors.NewConfigurationError("config", "applyEnv", fmt.Sprintf("%s: %v", key, err))
	}
	return t, nil
}
