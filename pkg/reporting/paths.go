package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultReportsRoot is where reports go when no directory is configured
const DefaultReportsRoot = "results"

// DefaultPathManager resolves report locations
type DefaultPathManager struct{}

// NewDefaultPathManager creates a path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// GetDefaultOutputDir returns results/<SYMBOL>_<timeframe>
func (p *DefaultPathManager) GetDefaultOutputDir(symbol, timeframe string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	tf := strings.ToLower(strings.TrimSpace(timeframe))
	if s == "" {
		s = "UNKNOWN"
	}
	if tf == "" {
		tf = "unknown"
	}
	return filepath.Join(DefaultReportsRoot, fmt.Sprintf("%s_%s", s, tf))
}

// EnsureDirectoryExists creates the parent directory of path
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// DefaultOutputDir is a convenience wrapper around the default path manager
func DefaultOutputDir(symbol, timeframe string) string {
	return NewDefaultPathManager().GetDefaultOutputDir(symbol, timeframe)
}
