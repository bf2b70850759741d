package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/upbit-backtester/internal/analysis"
	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// Workbook sheet names
const (
	SummarySheet      = "Summary"
	TradesSheet       = "Trades"
	EquitySheet       = "Equity"
	MonthlySheet      = "Monthly"
	DrawdownsSheet    = "Drawdowns"
	DistributionSheet = "Distribution"
)

// DefaultExcelReporter writes a workbook with summary, trades, equity,
// monthly and drawdown sheets plus charts
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates an Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteReportXLSX renders report to path
func (r *DefaultExcelReporter) WriteReportXLSX(report *analysis.Report, path string) error {
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	for _, s := range []string{TradesSheet, EquitySheet, MonthlySheet, DrawdownsSheet, DistributionSheet} {
		if _, err := fx.NewSheet(s); err != nil {
			return err
		}
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, report, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, report.Trades, styles); err != nil {
		return err
	}
	if err := r.writeEquitySheet(fx, report.EquityCurve, report.Signals, styles); err != nil {
		return err
	}
	if err := r.writeMonthlySheet(fx, report.MonthlyReturns, styles); err != nil {
		return err
	}
	if err := r.writeDrawdownsSheet(fx, report.Drawdowns, styles); err != nil {
		return err
	}
	if err := r.writeDistributionSheet(fx, report.TradeAnalysis, styles); err != nil {
		return err
	}

	fx.SetActiveSheet(0)
	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}
	right := &excelize.Alignment{Horizontal: "right"}

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.SectionStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12, Color: "2F4F4F"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E8EEF4"}, Pattern: 1},
	})
	if err != nil {
		return styles, err
	}

	moneyFmt := "#,##0.00"
	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt, Alignment: right, Border: border})
	if err != nil {
		return styles, err
	}

	// values are already in percent, not fractions
	pctFmt := `0.00"%"`
	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{CustomNumFmt: &pctFmt, Alignment: right, Border: border})
	if err != nil {
		return styles, err
	}
	styles.RedPercentStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &pctFmt,
		Font:         &excelize.Font{Color: "FF0000"},
		Alignment:    right,
		Border:       border,
	})
	if err != nil {
		return styles, err
	}
	styles.GreenPercentStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &pctFmt,
		Font:         &excelize.Font{Color: "008000"},
		Alignment:    right,
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	numFmt := "0.0000"
	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{CustomNumFmt: &numFmt, Alignment: right, Border: border})
	if err != nil {
		return styles, err
	}

	dateFmt := "yyyy-mm-dd hh:mm"
	styles.DateStyle, err = fx.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt, Border: border})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{Border: border})
	return styles, err
}

func (r *DefaultExcelReporter) writeHeader(fx *excelize.File, sheet string, headers []string, styles ExcelStyles) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := fx.SetCellStyle(sheet, cell, cell, styles.HeaderStyle); err != nil {
			return err
		}
	}
	return fx.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// setNumber writes v with style; non-finite values become text
func setNumber(fx *excelize.File, sheet, cell string, v float64, style int) error {
	if nonFinite(v) {
		return fx.SetCellValue(sheet, cell, formatRatio(v))
	}
	if err := fx.SetCellValue(sheet, cell, v); err != nil {
		return err
	}
	return fx.SetCellStyle(sheet, cell, cell, style)
}

func setTime(fx *excelize.File, sheet, cell string, t time.Time, style int) error {
	if t.IsZero() {
		return fx.SetCellValue(sheet, cell, "")
	}
	if err := fx.SetCellValue(sheet, cell, t.UTC()); err != nil {
		return err
	}
	return fx.SetCellStyle(sheet, cell, cell, style)
}

func signedPercentStyle(v float64, styles ExcelStyles) int {
	switch {
	case v > 0:
		return styles.GreenPercentStyle
	case v < 0:
		return styles.RedPercentStyle
	}
	return styles.PercentStyle
}

func metricStyle(key string, v float64, styles ExcelStyles) int {
	switch {
	case percentMetrics[key]:
		return signedPercentStyle(v, styles)
	case moneyMetrics[key]:
		return styles.CurrencyStyle
	}
	return styles.NumberStyle
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, report *analysis.Report, styles ExcelStyles) error {
	sheet := SummarySheet
	fx.SetColWidth(sheet, "A", "A", 28)
	fx.SetColWidth(sheet, "B", "B", 22)

	row := 1
	section := func(title string) error {
		cell := fmt.Sprintf("A%d", row)
		if err := fx.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
		end := fmt.Sprintf("B%d", row)
		row++
		return fx.SetCellStyle(sheet, cell, end, styles.SectionStyle)
	}

	if err := section("Backtest"); err != nil {
		return err
	}
	fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Strategy")
	fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), report.StrategyName)
	row++
	for _, key := range sortedConfigKeys(report.Config) {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), key)
		fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), fmt.Sprint(report.Config[key]))
		row++
	}
	fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Generated")
	setTime(fx, sheet, fmt.Sprintf("B%d", row), report.GeneratedAt, styles.DateStyle)
	row += 2

	if err := section("Performance"); err != nil {
		return err
	}
	values := report.Metrics.Values()
	for _, key := range backtest.MetricKeys {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), MetricLabel(key))
		cell := fmt.Sprintf("B%d", row)
		if key == "has_losses" {
			fx.SetCellValue(sheet, cell, FormatMetric(key, values[key]))
		} else if err := setNumber(fx, sheet, cell, values[key], metricStyle(key, values[key], styles)); err != nil {
			return err
		}
		row++
	}
	row++

	if err := section("Risk"); err != nil {
		return err
	}
	adv := report.Advanced.Values()
	for _, key := range analysis.AdvancedMetricKeys {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), MetricLabel(key))
		v := adv[key]
		if key == "risk_of_ruin" {
			v *= 100
		}
		style := metricStyle(key, v, styles)
		if key == "risk_of_ruin" {
			style = styles.PercentStyle
		}
		if err := setNumber(fx, sheet, fmt.Sprintf("B%d", row), v, style); err != nil {
			return err
		}
		row++
	}
	row++

	ta := report.TradeAnalysis
	if err := section("Trades"); err != nil {
		return err
	}
	rows := []struct {
		label string
		value float64
		style int
	}{
		{"Average Win", ta.AvgProfit, styles.CurrencyStyle},
		{"Largest Win", ta.MaxProfit, styles.CurrencyStyle},
		{"Average Loss", ta.AvgLoss, styles.CurrencyStyle},
		{"Largest Loss", ta.MaxLoss, styles.CurrencyStyle},
		{"Avg Winning Hold (h)", ta.AvgWinningHoldingHours, styles.NumberStyle},
		{"Avg Losing Hold (h)", ta.AvgLosingHoldingHours, styles.NumberStyle},
		{"Current Streak", float64(ta.CurrentStreak), styles.BaseStyle},
		{"Max Consecutive Wins", float64(ta.MaxConsecutiveWins), styles.BaseStyle},
		{"Max Consecutive Losses", float64(ta.MaxConsecutiveLosses), styles.BaseStyle},
	}
	for _, rr := range rows {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), rr.label)
		if err := setNumber(fx, sheet, fmt.Sprintf("B%d", row), rr.value, rr.style); err != nil {
			return err
		}
		row++
	}
	row++

	if err := section("P/L by Exit Weekday"); err != nil {
		return err
	}
	for i, name := range weekdayNames {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), name)
		if err := setNumber(fx, sheet, fmt.Sprintf("B%d", row), roundMoney(ta.ProfitByWeekday[i]), styles.CurrencyStyle); err != nil {
			return err
		}
		row++
	}
	return nil
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, trades []backtest.Trade, styles ExcelStyles) error {
	sheet := TradesSheet
	headers := []string{"#", "Entry Time", "Exit Time", "Entry Price", "Exit Price", "Quantity",
		"Entry Fee", "Exit Fee", "P/L", "P/L %", "Holding (h)", "Running Capital"}
	widths := []float64{6, 18, 18, 14, 14, 14, 12, 12, 14, 10, 12, 16}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		fx.SetColWidth(sheet, col, col, w)
	}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	running := 0.0
	if len(trades) > 0 {
		running = trades[0].EntryAmount() + trades[0].EntryFee
	}
	for i, t := range trades {
		row := i + 2
		running += t.ProfitLoss
		cell := func(col int) string {
			c, _ := excelize.CoordinatesToCellName(col, row)
			return c
		}
		fx.SetCellValue(sheet, cell(1), i+1)
		setTime(fx, sheet, cell(2), t.EntryTime, styles.DateStyle)
		setTime(fx, sheet, cell(3), t.ExitTime, styles.DateStyle)
		cells := []struct {
			col   int
			v     float64
			style int
		}{
			{4, t.EntryPrice, styles.NumberStyle},
			{5, t.ExitPrice, styles.NumberStyle},
			{6, t.Quantity, styles.NumberStyle},
			{7, roundMoney(t.EntryFee), styles.CurrencyStyle},
			{8, roundMoney(t.ExitFee), styles.CurrencyStyle},
			{9, roundMoney(t.ProfitLoss), styles.CurrencyStyle},
			{10, t.ProfitLossPercent, signedPercentStyle(t.ProfitLossPercent, styles)},
			{11, t.Duration.Hours(), styles.NumberStyle},
			{12, roundMoney(running), styles.CurrencyStyle},
		}
		for _, c := range cells {
			if err := setNumber(fx, sheet, cell(c.col), c.v, c.style); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeEquitySheet writes timestamp, equity, cash, position value and
// drawdown columns, plus buy/sell marker columns when signals align with
// the curve, and charts equity and drawdown
func (r *DefaultExcelReporter) writeEquitySheet(fx *excelize.File, curve backtest.EquityCurve, signals []types.Signal, styles ExcelStyles) error {
	sheet := EquitySheet
	fx.SetColWidth(sheet, "A", "A", 18)
	fx.SetColWidth(sheet, "B", "G", 14)
	if err := r.writeHeader(fx, sheet, []string{"Timestamp", "Equity", "Cash", "Position Value", "Drawdown %", "Buy Signal", "Sell Signal"}, styles); err != nil {
		return err
	}
	markers := len(signals) == len(curve)

	dd := analysis.DrawdownSeries(curve.Equity())
	for i, pt := range curve {
		row := i + 2
		setTime(fx, sheet, fmt.Sprintf("A%d", row), pt.Timestamp, styles.DateStyle)
		setNumber(fx, sheet, fmt.Sprintf("B%d", row), roundMoney(pt.Equity), styles.CurrencyStyle)
		setNumber(fx, sheet, fmt.Sprintf("C%d", row), roundMoney(pt.Cash), styles.CurrencyStyle)
		setNumber(fx, sheet, fmt.Sprintf("D%d", row), roundMoney(pt.PositionValue), styles.CurrencyStyle)
		if err := setNumber(fx, sheet, fmt.Sprintf("E%d", row), dd[i], styles.PercentStyle); err != nil {
			return err
		}
		if !markers {
			continue
		}
		switch signals[i] {
		case types.SignalBuy:
			setNumber(fx, sheet, fmt.Sprintf("F%d", row), roundMoney(pt.Equity), styles.CurrencyStyle)
		case types.SignalSell:
			setNumber(fx, sheet, fmt.Sprintf("G%d", row), roundMoney(pt.Equity), styles.CurrencyStyle)
		}
	}
	if len(curve) < 2 {
		return nil
	}

	last := len(curve) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", sheet, last)
	series := []excelize.ChartSeries{{
		Name:       fmt.Sprintf("%s!$B$1", sheet),
		Categories: categories,
		Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, last),
		Marker:     excelize.ChartMarker{Symbol: "none"},
	}}
	legend := "none"
	if markers {
		series = append(series,
			signalSeries(sheet, "F", categories, last, "triangle", "2E7D32"),
			signalSeries(sheet, "G", categories, last, "diamond", "C62828"))
		legend = "bottom"
	}
	if err := fx.AddChart(sheet, "I2", &excelize.Chart{
		Type:         excelize.Line,
		Series:       series,
		Title:        []excelize.RichTextRun{{Text: "Equity Curve"}},
		Legend:       excelize.ChartLegend{Position: legend},
		ShowBlanksAs: "gap",
		Dimension:    excelize.ChartDimension{Width: 720, Height: 320},
	}); err != nil {
		return fmt.Errorf("equity chart: %w", err)
	}
	if err := fx.AddChart(sheet, "I20", &excelize.Chart{
		Type: excelize.Area,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$E$1", sheet),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$E$2:$E$%d", sheet, last),
			Fill:       excelize.Fill{Type: "pattern", Color: []string{"E06666"}, Pattern: 1},
		}},
		Title:     []excelize.RichTextRun{{Text: "Drawdown %"}},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 240},
	}); err != nil {
		return fmt.Errorf("drawdown chart: %w", err)
	}
	return nil
}

// signalSeries plots one marker column over the equity line without connecting lines
func signalSeries(sheet, col, categories string, last int, symbol, color string) excelize.ChartSeries {
	return excelize.ChartSeries{
		Name:       fmt.Sprintf("%s!$%s$1", sheet, col),
		Categories: categories,
		Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheet, col, col, last),
		Line:       excelize.ChartLine{Type: excelize.ChartLineNone},
		Marker: excelize.ChartMarker{
			Symbol: symbol,
			Size:   7,
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		},
	}
}

func (r *DefaultExcelReporter) writeMonthlySheet(fx *excelize.File, months []analysis.MonthlyReturn, styles ExcelStyles) error {
	sheet := MonthlySheet
	fx.SetColWidth(sheet, "A", "D", 14)
	if err := r.writeHeader(fx, sheet, []string{"Month", "Start Equity", "End Equity", "Return %"}, styles); err != nil {
		return err
	}
	for i, m := range months {
		row := i + 2
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.Label())
		setNumber(fx, sheet, fmt.Sprintf("B%d", row), roundMoney(m.StartEquity), styles.CurrencyStyle)
		setNumber(fx, sheet, fmt.Sprintf("C%d", row), roundMoney(m.EndEquity), styles.CurrencyStyle)
		if err := setNumber(fx, sheet, fmt.Sprintf("D%d", row), m.ReturnPercent, signedPercentStyle(m.ReturnPercent, styles)); err != nil {
			return err
		}
	}
	if len(months) == 0 {
		return nil
	}

	last := len(months) + 1
	if err := fx.AddChart(sheet, "F2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$D$1", sheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("%s!$D$2:$D$%d", sheet, last),
		}},
		Title:     []excelize.RichTextRun{{Text: "Monthly Returns"}},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: 640, Height: 320},
	}); err != nil {
		return fmt.Errorf("monthly chart: %w", err)
	}
	return nil
}

func (r *DefaultExcelReporter) writeDrawdownsSheet(fx *excelize.File, episodes []analysis.DrawdownEpisode, styles ExcelStyles) error {
	sheet := DrawdownsSheet
	fx.SetColWidth(sheet, "A", "A", 6)
	fx.SetColWidth(sheet, "B", "B", 12)
	fx.SetColWidth(sheet, "C", "E", 18)
	fx.SetColWidth(sheet, "F", "H", 12)
	headers := []string{"#", "Depth %", "Start", "Trough", "Recovery", "Bars", "Days", "Recovered"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}
	for i, ep := range episodes {
		row := i + 2
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1)
		setNumber(fx, sheet, fmt.Sprintf("B%d", row), ep.DrawdownPercent, styles.RedPercentStyle)
		setTime(fx, sheet, fmt.Sprintf("C%d", row), ep.StartDate, styles.DateStyle)
		setTime(fx, sheet, fmt.Sprintf("D%d", row), ep.EndDate, styles.DateStyle)
		setTime(fx, sheet, fmt.Sprintf("E%d", row), ep.RecoveryDate, styles.DateStyle)
		fx.SetCellValue(sheet, fmt.Sprintf("F%d", row), ep.Bars)
		setNumber(fx, sheet, fmt.Sprintf("G%d", row), ep.Duration.Hours()/24, styles.NumberStyle)
		recovered := "no"
		if ep.Recovered {
			recovered = "yes"
		}
		if err := fx.SetCellValue(sheet, fmt.Sprintf("H%d", row), recovered); err != nil {
			return err
		}
	}
	return nil
}

func sortedConfigKeys(cfg map[string]interface{}) []string {
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeDistributionSheet tabulates profit by exit weekday and hour plus the
// winner/loser split, with a 2x2 grid of charts beside the tables
func (r *DefaultExcelReporter) writeDistributionSheet(fx *excelize.File, ta analysis.TradeAnalysis, styles ExcelStyles) error {
	sheet := DistributionSheet
	fx.SetColWidth(sheet, "A", "I", 12)
	headers := []string{"Weekday", "P/L", "", "Hour", "P/L", "", "Bucket", "Trades", "Avg Hold (h)"}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	for i, name := range weekdayNames {
		row := i + 2
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), name)
		if err := setNumber(fx, sheet, fmt.Sprintf("B%d", row), roundMoney(ta.ProfitByWeekday[i]), styles.CurrencyStyle); err != nil {
			return err
		}
	}
	for h := 0; h < 24; h++ {
		row := h + 2
		fx.SetCellValue(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("%02d", h))
		if err := setNumber(fx, sheet, fmt.Sprintf("E%d", row), roundMoney(ta.ProfitByHour[h]), styles.CurrencyStyle); err != nil {
			return err
		}
	}
	buckets := []struct {
		label string
		count int
		hours float64
	}{
		{"Winners", ta.WinningTrades, ta.AvgWinningHoldingHours},
		{"Losers", ta.LosingTrades, ta.AvgLosingHoldingHours},
	}
	for i, b := range buckets {
		row := i + 2
		fx.SetCellValue(sheet, fmt.Sprintf("G%d", row), b.label)
		fx.SetCellValue(sheet, fmt.Sprintf("H%d", row), b.count)
		if err := setNumber(fx, sheet, fmt.Sprintf("I%d", row), b.hours, styles.NumberStyle); err != nil {
			return err
		}
	}
	if ta.TotalTrades == 0 {
		return nil
	}

	charts := []struct {
		cell   string
		typ    excelize.ChartType
		title  string
		name   string
		labels string
		values string
	}{
		{"K2", excelize.Col, "P/L by Exit Weekday", "$B$1", "$A$2:$A$8", "$B$2:$B$8"},
		{"S2", excelize.Col, "P/L by Exit Hour", "$E$1", "$D$2:$D$25", "$E$2:$E$25"},
		{"K20", excelize.Pie, "Winning vs Losing Trades", "$H$1", "$G$2:$G$3", "$H$2:$H$3"},
		{"S20", excelize.Col, "Avg Holding Hours", "$I$1", "$G$2:$G$3", "$I$2:$I$3"},
	}
	for _, c := range charts {
		legend := "none"
		if c.typ == excelize.Pie {
			legend = "bottom"
		}
		if err := fx.AddChart(sheet, c.cell, &excelize.Chart{
			Type: c.typ,
			Series: []excelize.ChartSeries{{
				Name:       sheet + "!" + c.name,
				Categories: sheet + "!" + c.labels,
				Values:     sheet + "!" + c.values,
			}},
			Title:     []excelize.RichTextRun{{Text: c.title}},
			Legend:    excelize.ChartLegend{Position: legend},
			Dimension: excelize.ChartDimension{Width: 480, Height: 300},
		}); err != nil {
			return fmt.Errorf("%s chart: %w", c.title, err)
		}
	}
	return nil
}

// WriteReportXLSX is a convenience wrapper around the default reporter
func WriteReportXLSX(report *analysis.Report, path string) error {
	return NewDefaultExcelReporter().WriteReportXLSX(report, path)
}
