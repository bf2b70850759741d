package results

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/analysis"
)

// RankedMetrics lists the compared metrics; all rank higher-is-better except
// max_drawdown
var RankedMetrics = []string{
	"total_return_percent",
	"max_drawdown",
	"win_rate",
	"sharpe_ratio",
	"sortino_ratio",
	"profit_factor",
	"trades_count",
}

// RankEntry is one result's position in a metric ranking
type RankEntry struct {
	ID     string
	Symbol string
	Value  float64
}

// NormalizedCurve is an equity curve rebased to 100 at its first point
type NormalizedCurve struct {
	ID         string
	Symbol     string
	Timestamps []time.Time
	Values     []float64
}

// Comparison holds rankings and the series a rendering adapter needs
type Comparison struct {
	Results          []*BacktestResult
	Rankings         map[string][]RankEntry
	NormalizedEquity []NormalizedCurve
	MonthlyReturns   map[string][]analysis.MonthlyReturn
	Missing          []string
}

// CompareBacktestResults loads each id and ranks them, best first. Ids that
// cannot be loaded are listed in Missing; it fails only when none load.
func (m *Manager) CompareBacktestResults(ctx context.Context, ids []string) (*Comparison, error) {
	cmp := &Comparison{
		Rankings:       make(map[string][]RankEntry, len(RankedMetrics)),
		MonthlyReturns: make(map[string][]analysis.MonthlyReturn),
	}

	for _, id := range ids {
		r, err := m.LoadBacktestResult(ctx, id)
		if err != nil {
			if !errors.Is(err, ErrResultNotFound) {
				m.log.Error("comparison: loading %s: %v", id, err)
			} else {
				m.log.Warning("comparison: result %s not found", id)
			}
			cmp.Missing = append(cmp.Missing, id)
			continue
		}
		cmp.Results = append(cmp.Results, r)
	}
	if len(cmp.Results) == 0 {
		return nil, fmt.Errorf("no results to compare: %w", ErrResultNotFound)
	}

	for _, key := range RankedMetrics {
		entries := make([]RankEntry, 0, len(cmp.Results))
		for _, r := range cmp.Results {
			entries = append(entries, RankEntry{
				ID:     r.ID,
				Symbol: r.Symbol,
				Value:  r.PerformanceMetrics.Values()[key],
			})
		}
		ascending := key == "max_drawdown"
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i].Value, entries[j].Value
			if math.IsNaN(a) || math.IsNaN(b) {
				return !math.IsNaN(a) && math.IsNaN(b)
			}
			if ascending {
				return a < b
			}
			return a > b
		})
		cmp.Rankings[key] = entries
	}

	for _, r := range cmp.Results {
		if len(r.EquityCurve) == 0 {
			continue
		}
		nc := NormalizedCurve{
			ID:         r.ID,
			Symbol:     r.Symbol,
			Timestamps: r.EquityCurve.Timestamps(),
			Values:     make([]float64, len(r.EquityCurve)),
		}
		base := r.EquityCurve[0].Equity
		for i, pt := range r.EquityCurve {
			if base != 0 {
				nc.Values[i] = pt.Equity / base * 100
			}
		}
		cmp.NormalizedEquity = append(cmp.NormalizedEquity, nc)

		a := analysis.New(analysis.Bundle{EquityCurve: r.EquityCurve})
		cmp.MonthlyReturns[r.ID] = a.AnalyzeMonthlyReturns()
	}
	return cmp, nil
}
