package analysis

import (
	"sort"
	"time"
)

// DrawdownEpisode is one fall below a running equity peak and the recovery
// back to it. EndDate is the trough. An episode still open at the end of the
// data uses the last bar as its recovery date and has Recovered false.
type DrawdownEpisode struct {
	DrawdownPercent float64       `json:"drawdown_percent"`
	StartDate       time.Time     `json:"start_date"`
	EndDate         time.Time     `json:"end_date"`
	RecoveryDate    time.Time     `json:"recovery_date"`
	Duration        time.Duration `json:"duration"`
	Bars            int           `json:"bars"`
	Recovered       bool          `json:"recovered"`
}

// AnalyzeDrawdowns finds every drawdown episode on the equity curve, worst first
func (a *Analyzer) AnalyzeDrawdowns() []DrawdownEpisode {
	curve := a.bundle.EquityCurve
	dd := DrawdownSeries(curve.Equity())
	episodes := make([]DrawdownEpisode, 0)

	open := false
	var cur DrawdownEpisode
	start := 0
	for i, v := range dd {
		switch {
		case v < 0 && !open:
			open = true
			start = i
			cur = DrawdownEpisode{
				DrawdownPercent: v,
				StartDate:       curve[i].Timestamp,
				EndDate:         curve[i].Timestamp,
			}
		case v < 0 && open:
			if v < cur.DrawdownPercent {
				cur.DrawdownPercent = v
				cur.EndDate = curve[i].Timestamp
			}
		case v == 0 && open:
			cur.RecoveryDate = curve[i].Timestamp
			cur.Recovered = true
			cur.Bars = i - start + 1
			cur.Duration = cur.RecoveryDate.Sub(cur.StartDate)
			episodes = append(episodes, cur)
			open = false
		}
	}
	if open {
		last := len(curve) - 1
		cur.RecoveryDate = curve[last].Timestamp
		cur.Bars = last - start + 1
		cur.Duration = cur.RecoveryDate.Sub(cur.StartDate)
		episodes = append(episodes, cur)
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].DrawdownPercent < episodes[j].DrawdownPercent
	})
	return episodes
}
