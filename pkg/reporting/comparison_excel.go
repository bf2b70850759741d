package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/upbit-backtester/internal/results"
)

// Comparison workbook sheet names
const (
	RankingsSheet       = "Rankings"
	NormalizedSheet     = "NormalizedEquity"
	MonthlyCompareSheet = "MonthlyReturns"
)

// WriteComparisonXLSX renders rankings, normalized equity curves and monthly
// returns of a comparison, each data sheet with a chart
func (r *DefaultExcelReporter) WriteComparisonXLSX(cmp *results.Comparison, path string) error {
	if cmp == nil {
		return fmt.Errorf("nothing to write")
	}
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), RankingsSheet); err != nil {
		return err
	}
	for _, s := range []string{NormalizedSheet, MonthlyCompareSheet} {
		if _, err := fx.NewSheet(s); err != nil {
			return err
		}
	}
	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeRankingsSheet(fx, cmp, styles); err != nil {
		return err
	}
	if err := r.writeNormalizedSheet(fx, cmp, styles); err != nil {
		return err
	}
	if err := r.writeMonthlyCompareSheet(fx, cmp, styles); err != nil {
		return err
	}

	fx.SetActiveSheet(0)
	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) writeRankingsSheet(fx *excelize.File, cmp *results.Comparison, styles ExcelStyles) error {
	sheet := RankingsSheet
	fx.SetColWidth(sheet, "A", "A", 24)
	fx.SetColWidth(sheet, "B", "B", 6)
	fx.SetColWidth(sheet, "C", "C", 38)
	fx.SetColWidth(sheet, "D", "E", 14)
	if err := r.writeHeader(fx, sheet, []string{"Metric", "Rank", "ID", "Symbol", "Value"}, styles); err != nil {
		return err
	}
	row := 2
	for _, key := range results.RankedMetrics {
		for rank, e := range cmp.Rankings[key] {
			fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), MetricLabel(key))
			fx.SetCellValue(sheet, fmt.Sprintf("B%d", row), rank+1)
			fx.SetCellValue(sheet, fmt.Sprintf("C%d", row), e.ID)
			fx.SetCellValue(sheet, fmt.Sprintf("D%d", row), e.Symbol)
			if err := setNumber(fx, sheet, fmt.Sprintf("E%d", row), e.Value, metricStyle(key, e.Value, styles)); err != nil {
				return err
			}
			row++
		}
	}
	if len(cmp.Missing) > 0 {
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row+1), "Not found")
		for i, id := range cmp.Missing {
			fx.SetCellValue(sheet, fmt.Sprintf("C%d", row+1+i), id)
		}
	}
	return nil
}

// writeNormalizedSheet aligns every curve on the union of timestamps; a curve
// without a point at a timestamp leaves the cell blank
func (r *DefaultExcelReporter) writeNormalizedSheet(fx *excelize.File, cmp *results.Comparison, styles ExcelStyles) error {
	sheet := NormalizedSheet
	curves := cmp.NormalizedEquity

	headers := []string{"Timestamp"}
	for _, c := range curves {
		headers = append(headers, c.Symbol+" "+shortID(c.ID))
	}
	fx.SetColWidth(sheet, "A", "A", 18)
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}

	stampSet := make(map[int64]time.Time)
	for _, c := range curves {
		for _, ts := range c.Timestamps {
			stampSet[ts.UnixNano()] = ts
		}
	}
	stamps := make([]time.Time, 0, len(stampSet))
	for _, ts := range stampSet {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	rowOf := make(map[int64]int, len(stamps))
	for i, ts := range stamps {
		rowOf[ts.UnixNano()] = i + 2
		setTime(fx, sheet, fmt.Sprintf("A%d", i+2), ts, styles.DateStyle)
	}

	for ci, c := range curves {
		col, _ := excelize.ColumnNumberToName(ci + 2)
		fx.SetColWidth(sheet, col, col, 16)
		for i, ts := range c.Timestamps {
			cell := fmt.Sprintf("%s%d", col, rowOf[ts.UnixNano()])
			if err := setNumber(fx, sheet, cell, c.Values[i], styles.NumberStyle); err != nil {
				return err
			}
		}
	}
	if len(curves) == 0 || len(stamps) < 2 {
		return nil
	}

	last := len(stamps) + 1
	series := make([]excelize.ChartSeries, len(curves))
	for ci := range curves {
		col, _ := excelize.ColumnNumberToName(ci + 2)
		series[ci] = excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", sheet, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheet, col, col, last),
			Marker:     excelize.ChartMarker{Symbol: "none"},
		}
	}
	anchor, _ := excelize.CoordinatesToCellName(len(curves)+3, 2)
	if err := fx.AddChart(sheet, anchor, &excelize.Chart{
		Type:         excelize.Line,
		Series:       series,
		Title:        []excelize.RichTextRun{{Text: "Normalized Equity (start = 100)"}},
		Legend:       excelize.ChartLegend{Position: "bottom"},
		ShowBlanksAs: "span",
		Dimension:    excelize.ChartDimension{Width: 720, Height: 360},
	}); err != nil {
		return fmt.Errorf("normalized equity chart: %w", err)
	}
	return nil
}

func (r *DefaultExcelReporter) writeMonthlyCompareSheet(fx *excelize.File, cmp *results.Comparison, styles ExcelStyles) error {
	sheet := MonthlyCompareSheet

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

	headers := []string{"Month"}
	for _, res := range cmp.Results {
		headers = append(headers, res.Symbol+" "+shortID(res.ID))
	}
	if err := r.writeHeader(fx, sheet, headers, styles); err != nil {
		return err
	}
	for i, l := range sorted {
		row := i + 2
		fx.SetCellValue(sheet, fmt.Sprintf("A%d", row), l)
		for ci, res := range cmp.Results {
			v, ok := byID[res.ID][l]
			if !ok {
				continue
			}
			col, _ := excelize.ColumnNumberToName(ci + 2)
			if err := setNumber(fx, sheet, fmt.Sprintf("%s%d", col, row), v, signedPercentStyle(v, styles)); err != nil {
				return err
			}
		}
	}
	if len(sorted) == 0 || len(cmp.Results) == 0 {
		return nil
	}

	last := len(sorted) + 1
	series := make([]excelize.ChartSeries, len(cmp.Results))
	for ci := range cmp.Results {
		col, _ := excelize.ColumnNumberToName(ci + 2)
		series[ci] = excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", sheet, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheet, col, col, last),
		}
	}
	anchor, _ := excelize.CoordinatesToCellName(len(cmp.Results)+3, 2)
	if err := fx.AddChart(sheet, anchor, &excelize.Chart{
		Type:      excelize.Col,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: "Monthly Returns %"}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 320},
	}); err != nil {
		return fmt.Errorf("monthly comparison chart: %w", err)
	}
	return nil
}

// WriteComparisonXLSX is a convenience wrapper around the default reporter
func WriteComparisonXLSX(cmp *results.Comparison, path string) error {
	return NewDefaultExcelReporter().WriteComparisonXLSX(cmp, path)
}
