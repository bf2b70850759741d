package reporting

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/upbit-backtester/internal/analysis"
	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/ducminhle1904/upbit-backtester/internal/results"
)

// DefaultMaxTrades caps the trade list printed by OutputReport
const DefaultMaxTrades = 20

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DefaultConsoleReporter prints go-pretty tables
type DefaultConsoleReporter struct {
	out       io.Writer
	MaxTrades int // <= 0 prints every trade
}

// NewDefaultConsoleReporter writes to w; nil means stdout
func NewDefaultConsoleReporter(w io.Writer) *DefaultConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &DefaultConsoleReporter{out: w, MaxTrades: DefaultMaxTrades}
}

func (r *DefaultConsoleReporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func (r *DefaultConsoleReporter) render(t table.Writer) {
	t.Render()
	fmt.Fprintln(r.out)
}

// OutputReport prints metrics, advanced metrics, the trade breakdown,
// the worst drawdowns, monthly returns and the trade list
func (r *DefaultConsoleReporter) OutputReport(report *analysis.Report, symbol, timeframe string) {
	if report == nil {
		return
	}

	title := "BACKTEST RESULTS"
	if symbol != "" {
		title = fmt.Sprintf("BACKTEST RESULTS %s %s", strings.ToUpper(symbol), timeframe)
	}
	t := r.newTable(title)
	if report.StrategyName != "" {
		t.AppendRow(table.Row{"Strategy", report.StrategyName})
		t.AppendSeparator()
	}
	values := report.Metrics.Values()
	for _, key := range backtest.MetricKeys {
		t.AppendRow(table.Row{MetricLabel(key), FormatMetric(key, values[key])})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 24, Align: text.AlignLeft},
		{Number: 2, WidthMin: 16, Align: text.AlignRight},
	})
	r.render(t)

	adv := report.Advanced.Values()
	t = r.newTable("RISK METRICS")
	for _, key := range analysis.AdvancedMetricKeys {
		t.AppendRow(table.Row{MetricLabel(key), FormatMetric(key, adv[key])})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 24, Align: text.AlignLeft},
		{Number: 2, WidthMin: 16, Align: text.AlignRight},
	})
	r.render(t)

	if report.TradeAnalysis.TotalTrades > 0 {
		r.outputTradeAnalysis(report.TradeAnalysis)
	}
	if len(report.Drawdowns) > 0 {
		r.outputDrawdowns(report.Drawdowns, 5)
	}
	if len(report.MonthlyReturns) > 0 {
		r.outputMonthly(report.MonthlyReturns)
	}
	if len(report.Trades) > 0 {
		r.outputTrades(report.Trades)
	}
}

func (r *DefaultConsoleReporter) outputTradeAnalysis(ta analysis.TradeAnalysis) {
	t := r.newTable("TRADE ANALYSIS")
	t.AppendHeader(table.Row{"", "Winners", "Losers"})
	t.AppendRows([]table.Row{
		{"Count", ta.WinningTrades, ta.LosingTrades},
		{"Average", formatMoney(ta.AvgProfit), formatMoney(ta.AvgLoss)},
		{"Largest", formatMoney(ta.MaxProfit), formatMoney(ta.MaxLoss)},
		{"Smallest", formatMoney(ta.MinProfit), formatMoney(ta.MinLoss)},
		{"Avg Holding (h)", formatRatio(ta.AvgWinningHoldingHours), formatRatio(ta.AvgLosingHoldingHours)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Current Streak", ta.CurrentStreak, ""},
		{"Max Consecutive", ta.MaxConsecutiveWins, ta.MaxConsecutiveLosses},
	})
	r.render(t)

	t = r.newTable("P/L BY EXIT WEEKDAY")
	header := table.Row{}
	row := table.Row{}
	for i, name := range weekdayNames {
		header = append(header, name)
		row = append(row, formatMoney(ta.ProfitByWeekday[i]))
	}
	t.AppendHeader(header)
	t.AppendRow(row)
	r.render(t)
}

func (r *DefaultConsoleReporter) outputDrawdowns(episodes []analysis.DrawdownEpisode, limit int) {
	t := r.newTable("WORST DRAWDOWNS")
	t.AppendHeader(table.Row{"#", "Depth", "Start", "Trough", "Recovery", "Bars"})
	for i, ep := range episodes {
		if i >= limit {
			break
		}
		recovery := formatTime(ep.RecoveryDate)
		if !ep.Recovered {
			recovery += " (open)"
		}
		t.AppendRow(table.Row{i + 1, formatPercent(ep.DrawdownPercent), formatTime(ep.StartDate),
			formatTime(ep.EndDate), recovery, ep.Bars})
	}
	r.render(t)
}

func (r *DefaultConsoleReporter) outputMonthly(months []analysis.MonthlyReturn) {
	t := r.newTable("MONTHLY RETURNS")
	t.AppendHeader(table.Row{"Month", "Start", "End", "Return"})
	for _, m := range months {
		t.AppendRow(table.Row{m.Label(), formatMoney(m.StartEquity), formatMoney(m.EndEquity), formatPercent(m.ReturnPercent)})
	}
	r.render(t)
}

func (r *DefaultConsoleReporter) outputTrades(trades []backtest.Trade) {
	shown := trades
	title := "TRADES"
	if r.MaxTrades > 0 && len(trades) > r.MaxTrades {
		shown = trades[len(trades)-r.MaxTrades:]
		title = fmt.Sprintf("LAST %d OF %d TRADES", r.MaxTrades, len(trades))
	}
	t := r.newTable(title)
	t.AppendHeader(table.Row{"Entry", "Exit", "Entry Price", "Exit Price", "Qty", "Fees", "P/L", "P/L %"})
	for _, tr := range shown {
		t.AppendRow(table.Row{
			formatTime(tr.EntryTime), formatTime(tr.ExitTime),
			formatPrice(tr.EntryPrice), formatPrice(tr.ExitPrice),
			fmt.Sprintf("%.6f", tr.Quantity), formatMoney(tr.TotalFee),
			formatMoney(tr.ProfitLoss), formatPercent(tr.ProfitLossPercent),
		})
	}
	r.render(t)
}

// OutputComparison prints one ranking table per metric plus the monthly
// returns side by side
func (r *DefaultConsoleReporter) OutputComparison(cmp *results.Comparison) {
	if cmp == nil {
		return
	}

	t := r.newTable("COMPARED RESULTS")
	t.AppendHeader(table.Row{"ID", "Strategy", "Symbol", "Timeframe", "Start", "End"})
	for _, res := range cmp.Results {
		t.AppendRow(table.Row{res.ID, res.StrategyID, res.Symbol, res.Timeframe,
			formatTime(res.StartDate), formatTime(res.EndDate)})
	}
	r.render(t)

	t = r.newTable("RANKINGS")
	t.AppendHeader(table.Row{"Metric", "Rank", "ID", "Symbol", "Value"})
	for i, key := range results.RankedMetrics {
		if i > 0 {
			t.AppendSeparator()
		}
		for rank, e := range cmp.Rankings[key] {
			label := ""
			if rank == 0 {
				label = MetricLabel(key)
			}
			t.AppendRow(table.Row{label, rank + 1, e.ID, e.Symbol, FormatMetric(key, e.Value)})
		}
	}
	r.render(t)

	if len(cmp.NormalizedEquity) > 0 {
		r.outputNormalizedEquity(cmp.NormalizedEquity)
	}
	if len(cmp.MonthlyReturns) > 0 {
		r.outputMonthlyComparison(cmp)
	}
	if len(cmp.Missing) > 0 {
		fmt.Fprintf(r.out, "Not found: %s\n\n", strings.Join(cmp.Missing, ", "))
	}
}

// outputNormalizedEquity summarizes each rebased curve; the full series goes
// to the comparison workbook
func (r *DefaultConsoleReporter) outputNormalizedEquity(curves []results.NormalizedCurve) {
	t := r.newTable("NORMALIZED EQUITY (start = 100)")
	t.AppendHeader(table.Row{"ID", "Symbol", "Points", "Final", "Peak", "Trough"})
	for _, c := range curves {
		if len(c.Values) == 0 {
			t.AppendRow(table.Row{shortID(c.ID), c.Symbol, 0, "-", "-", "-"})
			continue
		}
		peak, trough := c.Values[0], c.Values[0]
		for _, v := range c.Values[1:] {
			peak = math.Max(peak, v)
			trough = math.Min(trough, v)
		}
		t.AppendRow(table.Row{shortID(c.ID), c.Symbol, len(c.Values),
			formatRatio(c.Values[len(c.Values)-1]), formatRatio(peak), formatRatio(trough)})
	}
	r.render(t)
}

func (r *DefaultConsoleReporter) outputMonthlyComparison(cmp *results.Comparison) {
	labels := make(map[string]bool)
	byID := make(map[string]map[string]float64, len(cmp.MonthlyReturns))
	for id, months := range cmp.MonthlyReturns {
		byID[id] = make(map[string]float64, len(months))
		for _, m := range months {
			labels[m.Label()] = true
			byID[id][m.Label()] = m.ReturnPercent
		}
	}
	sorted := make([]string, 0, len(labels))
	for l := range labels {
		sorted = append(sorted, l)
	}
	sort.Strings(sorted)

	t := r.newTable("MONTHLY RETURNS")
	header := table.Row{"Month"}
	for _, res := range cmp.Results {
		header = append(header, res.Symbol+" "+shortID(res.ID))
	}
	t.AppendHeader(header)
	for _, l := range sorted {
		row := table.Row{l}
		for _, res := range cmp.Results {
			if v, ok := byID[res.ID][l]; ok {
				row = append(row, formatPercent(v))
			} else {
				row = append(row, "-")
			}
		}
		t.AppendRow(row)
	}
	r.render(t)
}

// OutputSummaryRows prints the rows returned by a result listing
func (r *DefaultConsoleReporter) OutputSummaryRows(rows []results.SummaryRow) {
	t := r.newTable(fmt.Sprintf("SAVED BACKTESTS (%d)", len(rows)))
	t.AppendHeader(table.Row{"ID", "Strategy", "Symbol", "TF", "Start", "End", "Return", "Trades", "Created"})
	for _, row := range rows {
		portfolio := ""
		if row.PortfolioID != "" {
			portfolio = " [" + shortID(row.PortfolioID) + "]"
		}
		t.AppendRow(table.Row{
			row.ID, row.StrategyID, row.Symbol + portfolio, row.Timeframe,
			formatTime(row.StartDate), formatTime(row.EndDate),
			FormatMetric("total_return_percent", row.Metrics["total_return_percent"]),
			FormatMetric("trades_count", row.Metrics["trades_count"]),
			formatTime(row.CreatedAt),
		})
	}
	r.render(t)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
