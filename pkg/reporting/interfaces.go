// Package reporting renders analysis reports and result comparisons as
// console tables, CSV files and XLSX workbooks.
package reporting

import (
	"github.com/ducminhle1904/upbit-backtester/internal/analysis"
	"github.com/ducminhle1904/upbit-backtester/internal/results"
)

// ConsoleReporter renders to a terminal
type ConsoleReporter interface {
	OutputReport(report *analysis.Report, symbol, timeframe string)
	OutputComparison(cmp *results.Comparison)
	OutputSummaryRows(rows []results.SummaryRow)
}

// FileReporter writes report files
type FileReporter interface {
	WriteTradesCSV(report *analysis.Report, path string) error
	WriteReportXLSX(report *analysis.Report, path string) error
	WriteComparisonXLSX(cmp *results.Comparison, path string) error
}

// PathManager resolves output locations
type PathManager interface {
	GetDefaultOutputDir(symbol, timeframe string) string
	EnsureDirectoryExists(path string) error
}

// ExcelStyles holds workbook style ids
type ExcelStyles struct {
	HeaderStyle       int
	CurrencyStyle     int
	PercentStyle      int
	NumberStyle       int
	DateStyle         int
	BaseStyle         int
	RedPercentStyle   int
	GreenPercentStyle int
	SectionStyle      int
}

// ReportingConfig selects which outputs a ReportingManager produces
type ReportingConfig struct {
	EnableConsole   bool
	OutputDirectory string // empty uses the default per symbol/timeframe
	ExcelEnabled    bool
	CSVEnabled      bool
}
