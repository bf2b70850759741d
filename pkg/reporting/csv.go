package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ducminhle1904/upbit-backtester/internal/analysis"
)

var tradeCSVHeader = []string{
	"Trade_ID",
	"Entry_Time",
	"Exit_Time",
	"Entry_Price",
	"Exit_Price",
	"Quantity",
	"Entry_Fee",
	"Exit_Fee",
	"Trade_PnL",
	"Trade_PnL_%",
	"Holding_Hours",
	"Win_Loss",
}

// DefaultCSVReporter writes the trade list as CSV
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteTradesCSV writes one row per trade followed by a summary row.
// A path ending in .xlsx writes the full workbook instead.
func (r *DefaultCSVReporter) WriteTradesCSV(report *analysis.Report, path string) error {
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return err
	}
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return NewDefaultExcelReporter().WriteReportXLSX(report, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tradeCSVHeader); err != nil {
		return err
	}

	var totalPnL, totalFees float64
	for _, t := range report.Trades {
		totalPnL += t.ProfitLoss
		totalFees += t.TotalFee
		winLoss := "W"
		if t.ProfitLoss <= 0 {
			winLoss = "L"
		}
		row := []string{
			t.ID,
			formatTime(t.EntryTime),
			formatTime(t.ExitTime),
			strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(t.ExitPrice, 'f', -1, 64),
			strconv.FormatFloat(t.Quantity, 'f', 8, 64),
			formatMoney(t.EntryFee),
			formatMoney(t.ExitFee),
			formatMoney(t.ProfitLoss),
			fmt.Sprintf("%.4f", t.ProfitLossPercent),
			fmt.Sprintf("%.2f", t.Duration.Hours()),
			winLoss,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	summary := make([]string, len(tradeCSVHeader))
	summary[len(summary)-1] = fmt.Sprintf("SUMMARY: total_pnl=%s; total_fees=%s; win_rate=%.2f%%; total_trades=%d",
		formatMoney(totalPnL), formatMoney(totalFees), report.Metrics.WinRate, len(report.Trades))
	if err := w.Write(summary); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// WriteTradesCSV is a convenience wrapper around the default reporter
func WriteTradesCSV(report *analysis.Report, path string) error {
	return NewDefaultCSVReporter().WriteTradesCSV(report, path)
}
