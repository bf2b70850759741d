package reporting

import (
	"io"
	"path/filepath"

	"github.com/ducminhle1904/upbit-backtester/internal/analysis"
	"github.com/ducminhle1904/upbit-backtester/internal/results"
)

// DefaultReporter combines the console, file and path reporters
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	paths   *DefaultPathManager
}

var (
	_ ConsoleReporter = (*DefaultReporter)(nil)
	_ FileReporter    = (*DefaultReporter)(nil)
	_ PathManager     = (*DefaultReporter)(nil)
)

// NewDefaultReporter prints to w (stdout when nil)
func NewDefaultReporter(w io.Writer) *DefaultReporter {
	return &DefaultReporter{
		console: NewDefaultConsoleReporter(w),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		paths:   NewDefaultPathManager(),
	}
}

func (r *DefaultReporter) OutputReport(report *analysis.Report, symbol, timeframe string) {
	r.console.OutputReport(report, symbol, timeframe)
}

func (r *DefaultReporter) OutputComparison(cmp *results.Comparison) {
	r.console.OutputComparison(cmp)
}

func (r *DefaultReporter) OutputSummaryRows(rows []results.SummaryRow) {
	r.console.OutputSummaryRows(rows)
}

func (r *DefaultReporter) WriteTradesCSV(report *analysis.Report, path string) error {
	return r.csv.WriteTradesCSV(report, path)
}

func (r *DefaultReporter) WriteReportXLSX(report *analysis.Report, path string) error {
	return r.excel.WriteReportXLSX(report, path)
}

func (r *DefaultReporter) WriteComparisonXLSX(cmp *results.Comparison, path string) error {
	return r.excel.WriteComparisonXLSX(cmp, path)
}

func (r *DefaultReporter) GetDefaultOutputDir(symbol, timeframe string) string {
	return r.paths.GetDefaultOutputDir(symbol, timeframe)
}

func (r *DefaultReporter) EnsureDirectoryExists(path string) error {
	return r.paths.EnsureDirectoryExists(path)
}

// ReportingManager produces the outputs selected by its config
type ReportingManager struct {
	reporter *DefaultReporter
	config   ReportingConfig
}

// NewReportingManager creates a manager printing to w (stdout when nil)
func NewReportingManager(config ReportingConfig, w io.Writer) *ReportingManager {
	return &ReportingManager{
		reporter: NewDefaultReporter(w),
		config:   config,
	}
}

// ReportResults prints and writes report; it returns the files written
func (m *ReportingManager) ReportResults(report *analysis.Report, symbol, timeframe string) ([]string, error) {
	if m.config.EnableConsole {
		m.reporter.OutputReport(report, symbol, timeframe)
	}

	outputDir := m.config.OutputDirectory
	if outputDir == "" {
		outputDir = m.reporter.GetDefaultOutputDir(symbol, timeframe)
	}

	var written []string
	if m.config.CSVEnabled {
		path := filepath.Join(outputDir, "trades.csv")
		if err := m.reporter.WriteTradesCSV(report, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if m.config.ExcelEnabled {
		path := filepath.Join(outputDir, "report.xlsx")
		if err := m.reporter.WriteReportXLSX(report, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
