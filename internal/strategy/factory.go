package strategy

import (
	"fmt"
	"sort"
	"strings"
)

// CreateStrategy builds a built-in strategy from its name and numeric params.
// Params are merged over GetDefaultParameters; keys the strategy does not use are rejected.
func CreateStrategy(name string, params map[string]float64) (Strategy, error) {
	defaults := GetDefaultParameters(name)
	merged := make(map[string]float64, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range params {
		if _, ok := defaults[k]; !ok && len(defaults) > 0 {
			return nil, fmt.Errorf("strategy %s: unknown parameter %q (accepted: %s)", name, k, FormatParameters(defaults))
		}
		merged[k] = v
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sma_cross", "sma", "":
		return NewSMACross(int(merged["fast"]), int(merged["slow"]))
	case "rsi", "rsi_reversion":
		return NewRSIReversion(int(merged["window"]), merged["oversold"], merged["overbought"])
	default:
		return nil, fmt.Errorf("unknown strategy: %s (supported: %s)", name, strings.Join(GetAvailableStrategies(), ", "))
	}
}

// GetAvailableStrategies returns the names accepted by CreateStrategy
func GetAvailableStrategies() []string {
	return []string{
		"sma_cross", // fast/slow SMA crossover
		"rsi",       // RSI oversold/overbought reversion
	}
}

// GetDefaultParameters returns default parameters for a strategy
func GetDefaultParameters(name string) map[string]float64 {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sma_cross", "sma", "":
		return map[string]float64{"fast": 10, "slow": 30}
	case "rsi", "rsi_reversion":
		return map[string]float64{"window": 14, "oversold": 30, "overbought": 70}
	default:
		return map[string]float64{}
	}
}

// FormatParameters renders params as sorted "k=v" pairs, the -params syntax
func FormatParameters(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, ",")
}
