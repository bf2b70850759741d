package data

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileLocator implements FileLocator for standard file system operations
type DefaultFileLocator struct{}

// NewDefaultFileLocator creates a new default file locator
func NewDefaultFileLocator() *DefaultFileLocator {
	return &DefaultFileLocator{}
}

// FindDataFile looks for, in order:
//
//	{root}/{SYMBOL}/{timeframe}/candles.csv
//	{root}/{SYMBOL}_{timeframe}.csv
//	{root}/{SYMBOL}.csv
//
// and returns an empty string when none exist.
func (f *DefaultFileLocator) FindDataFile(dataRoot, symbol, timeframe string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	timeframe = strings.TrimSpace(timeframe)

	candidates := []string{
		filepath.Join(dataRoot, symbol, timeframe, "candles.csv"),
		filepath.Join(dataRoot, symbol+"_"+timeframe+".csv"),
		filepath.Join(dataRoot, symbol+".csv"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
