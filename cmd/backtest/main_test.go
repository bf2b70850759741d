package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseArgs(t *testing.T, args ...string) *cliFlags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := registerFlags(fs)
	require.NoError(t, fs.Parse(args))
	f.markSet(fs)
	return f
}

func TestParseKeyValues(t *testing.T) {
	got, err := parseKeyValues("fast=5, slow=20")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"fast": 5, "slow": 20}, got)

	got, err = parseKeyValues("KRW-BTC:0.6,KRW-ETH:0.4")
	require.NoError(t, err)
	assert.Equal(t, 0.6, got["KRW-BTC"])

	_, err = parseKeyValues("fast")
	assert.Error(t, err)
	_, err = parseKeyValues("fast=x")
	assert.Error(t, err)

	got, err = parseKeyValues("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitIDs(" a, ,b "))
	assert.Nil(t, splitIDs(""))
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"symbol": "KRW-ETH",
		"timeframe": "4h",
		"fee_rate": 0.001,
		"strategy": "rsi",
		"csv_format": "default",
		"strategy_params": {"window": 10}
	}`), 0644))

	f := parseArgs(t, "-config", cfgPath, "-symbol", "KRW-BTC", "-params", "oversold=25",
		"-start", "2024-01-01", "-results-dir", filepath.Join(dir, "out"), "-csv-format", "upbit")
	require.NoError(t, f.validate())

	cfg, err := buildConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "KRW-BTC", cfg.Symbol)
	assert.Equal(t, "4h", cfg.Timeframe)
	assert.Equal(t, 0.001, cfg.FeeRate)
	assert.Equal(t, "rsi", cfg.Strategy)
	assert.Equal(t, "upbit", cfg.CSVFormat)
	assert.Equal(t, 10.0, cfg.StrategyParams["window"])
	assert.Equal(t, 25.0, cfg.StrategyParams["oversold"])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.ResultsDir)
	assert.Empty(t, cfg.DatabasePath)
}

func TestBuildConfig_UnsetFlagsKeepDefaults(t *testing.T) {
	cfg, err := buildConfig(parseArgs(t))
	require.NoError(t, err)
	assert.Equal(t, 0.0005, cfg.FeeRate)
	assert.Equal(t, "1d", cfg.Timeframe)
}

func TestValidateFlags(t *testing.T) {
	assert.NoError(t, parseArgs(t, "-source", "bybit").validate())
	assert.Error(t, parseArgs(t, "-source", "ftp").validate())
	assert.Error(t, parseArgs(t, "-csv-format", "binance").validate())
	assert.Error(t, parseArgs(t, "-fee", "1.5").validate())
	assert.Error(t, parseArgs(t, "-capital", "0").validate())
	assert.Error(t, parseArgs(t, "-list", "-delete", "x").validate())
	assert.Error(t, parseArgs(t, "-config", "does/not/exist.json").validate())
}

func TestUsage_ListsStrategyDefaults(t *testing.T) {
	var buf bytes.Buffer
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(&buf)
	registerFlags(fs)
	usage(fs)()

	out := buf.String()
	assert.Contains(t, out, "sma_cross  fast=10,slow=30")
	assert.Contains(t, out, "rsi        overbought=70,oversold=30,window=14")
	assert.Contains(t, out, "-params")
}
