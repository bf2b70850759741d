package analysis

import "time"

// MonthlyReturn is the simple return of one calendar month of the equity curve
type MonthlyReturn struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	StartEquity   float64    `json:"start_equity"`
	EndEquity     float64    `json:"end_equity"`
	ReturnPercent float64    `json:"return_percent"`
}

// Label formats the month as YYYY-MM
func (m MonthlyReturn) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// AnalyzeMonthlyReturns groups the equity curve by calendar month. The first
// month is measured from its first value, later months from the previous
// month's last value.
func (a *Analyzer) AnalyzeMonthlyReturns() []MonthlyReturn {
	months := make([]MonthlyReturn, 0)
	for _, pt := range a.bundle.EquityCurve {
		y, m, _ := pt.Timestamp.Date()
		n := len(months)
		if n > 0 && months[n-1].Year == y && months[n-1].Month == m {
			months[n-1].EndEquity = pt.Equity
			continue
		}
		months = append(months, MonthlyReturn{Year: y, Month: m, StartEquity: pt.Equity, EndEquity: pt.Equity})
	}

	for i := range months {
		base := months[i].StartEquity
		if i > 0 {
			base = months[i-1].EndEquity
		}
		months[i].ReturnPercent = safeDiv(months[i].EndEquity-base, base) * 100
	}
	return months
}
