package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/ducminhle1904/upbit-backtester/internal/config"
	bterrors "github.com/ducminhle1904/upbit-backtester/internal/errors"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/internal/monitoring"
)

// validID keeps ids to a single path element; generated UUIDs always match
var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

const (
	component = "results_manager"
	storeDB   = "sqlite"
	storeFile = "json"
)

// Manager persists results to SQLite summary rows plus one JSON file per
// result. The two stores are written independently.
type Manager struct {
	dir    string
	dbPath string
	store  *sqliteStore
	log    *logger.Logger
	now    func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithResultsDir sets where JSON files are written
func WithResultsDir(dir string) Option {
	return func(m *Manager) { m.dir = dir }
}

// WithDatabase sets the SQLite file; the default lives in the results directory
func WithDatabase(path string) Option {
	return func(m *Manager) { m.dbPath = path }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates the results directory and opens the database
func NewManager(ctx context.Context, opts ...Option) (*Manager, error) {
	m := &Manager{
		dir: config.DefaultResultsDir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logger.OrDefault(m.log)
	if m.dbPath == "" {
		m.dbPath = filepath.Join(m.dir, config.DefaultDatabaseFile)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, bterrors.NewPersistenceError(component, "NewManager", err)
	}
	if dir := filepath.Dir(m.dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, bterrors.NewPersistenceError(component, "NewManager", err)
		}
	}

	store, err := openSQLiteStore(ctx, m.dbPath)
	if err != nil {
		return nil, bterrors.NewPersistenceError(component, "NewManager", err)
	}
	m.store = store
	return m, nil
}

// Close releases the database
func (m *Manager) Close() error {
	return m.store.Close()
}

// ResultsDir returns the JSON directory
func (m *Manager) ResultsDir() string {
	return m.dir
}

func checkID(op, id string) error {
	if validID.MatchString(id) {
		return nil
	}
	return bterrors.WrapError(fmt.Errorf("%w: %q", ErrInvalidID, id), bterrors.ErrorCategoryValidation, component, op)
}

func (m *Manager) resultPath(id string) string {
	return filepath.Join(m.dir, id+".json")
}

func (m *Manager) portfolioPath(id string) string {
	return filepath.Join(m.dir, "portfolio_"+id+".json")
}

func (m *Manager) failure(store, op string, err error) error {
	monitoring.RecordPersistenceFailure(store, op)
	m.log.Error("%s %s failed: %v", store, op, err)
	return bterrors.NewPersistenceError(component, op, err).WithContext("store", store)
}

// SaveBacktestResult assigns an id if needed, writes the summary row and then
// the JSON file. The file is written even when the database write fails.
func (m *Manager) SaveBacktestResult(ctx context.Context, r *BacktestResult) (string, SaveOutcome) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := checkID("SaveBacktestResult", r.ID); err != nil {
		return r.ID, SaveOutcome{DBErr: err, FileErr: err}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}

	var out SaveOutcome
	if err := m.store.SaveResult(ctx, r); err != nil {
		out.DBErr = m.failure(storeDB, "SaveBacktestResult", err)
	} else {
		out.DBOK = true
	}

	if err := writeJSON(m.resultPath(r.ID), encodeResult(r)); err != nil {
		out.FileErr = m.failure(storeFile, "SaveBacktestResult", err)
	} else {
		out.FileOK = true
	}

	if out.OK() {
		m.log.Info("saved backtest result %s", r.ID)
	}
	return r.ID, out
}

// LoadBacktestResult prefers the JSON file and falls back to a summary-only
// result built from the database row.
func (m *Manager) LoadBacktestResult(ctx context.Context, id string) (*BacktestResult, error) {
	if err := checkID("LoadBacktestResult", id); err != nil {
		return nil, err
	}
	var rf resultFile
	found, err := readJSON(m.resultPath(id), &rf)
	if err != nil {
		m.failure(storeFile, "LoadBacktestResult", err)
	}
	if found && err == nil {
		r, err := decodeResult(rf)
		if err == nil {
			return r, nil
		}
		m.failure(storeFile, "LoadBacktestResult", err)
	}

	row, err := m.store.GetResult(ctx, id)
	if isNoRows(err) {
		return nil, fmt.Errorf("%s: %w", id, ErrResultNotFound)
	}
	if err != nil {
		return nil, m.failure(storeDB, "LoadBacktestResult", err)
	}
	m.log.Warning("result %s has no readable file, returning database summary only", id)
	return &BacktestResult{
		ID:                 row.ID,
		StrategyID:         row.StrategyID,
		Symbol:             row.Symbol,
		PortfolioID:        row.PortfolioID,
		Timeframe:          row.Timeframe,
		StartDate:          row.StartDate,
		EndDate:            row.EndDate,
		InitialCapital:     row.InitialCapital,
		Trades:             []backtest.Trade{},
		PerformanceMetrics: backtest.MetricsFromValues(row.Metrics),
		EquityCurve:        backtest.EquityCurve{},
		Config:             map[string]interface{}{},
		CreatedAt:          row.CreatedAt,
		SummaryOnly:        true,
	}, nil
}

// SavePortfolioBacktestResult writes the portfolio row plus a row per leg, then
// one JSON file embedding every leg. Legs are tagged with the portfolio id.
func (m *Manager) SavePortfolioBacktestResult(ctx context.Context, p *PortfolioBacktestResult) (string, SaveOutcome) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	if err := checkID("SavePortfolioBacktestResult", p.ID); err != nil {
		return p.ID, SaveOutcome{DBErr: err, FileErr: err}
	}
	for _, leg := range p.Results {
		if leg.ID == "" {
			leg.ID = uuid.NewString()
		}
		if err := checkID("SavePortfolioBacktestResult", leg.ID); err != nil {
			return p.ID, SaveOutcome{DBErr: err, FileErr: err}
		}
		if leg.CreatedAt.IsZero() {
			leg.CreatedAt = p.CreatedAt
		}
		leg.PortfolioID = p.ID
	}

	var out SaveOutcome
	if err := m.store.SavePortfolio(ctx, p); err != nil {
		out.DBErr = m.failure(storeDB, "SavePortfolioBacktestResult", err)
	} else {
		out.DBOK = true
	}
	if err := writeJSON(m.portfolioPath(p.ID), encodePortfolio(p)); err != nil {
		out.FileErr = m.failure(storeFile, "SavePortfolioBacktestResult", err)
	} else {
		out.FileOK = true
	}
	return p.ID, out
}

// LoadPortfolioBacktestResult mirrors LoadBacktestResult for portfolios. The
// summary-only fallback carries the legs' database summaries.
func (m *Manager) LoadPortfolioBacktestResult(ctx context.Context, id string) (*PortfolioBacktestResult, error) {
	if err := checkID("LoadPortfolioBacktestResult", id); err != nil {
		return nil, err
	}
	var pf portfolioFile
	found, err := readJSON(m.portfolioPath(id), &pf)
	if err != nil {
		m.failure(storeFile, "LoadPortfolioBacktestResult", err)
	}
	if found && err == nil {
		p, err := decodePortfolio(pf)
		if err == nil {
			return p, nil
		}
		m.failure(storeFile, "LoadPortfolioBacktestResult", err)
	}

	row, err := m.store.GetPortfolio(ctx, id)
	if isNoRows(err) {
		return nil, fmt.Errorf("portfolio %s: %w", id, ErrResultNotFound)
	}
	if err != nil {
		return nil, m.failure(storeDB, "LoadPortfolioBacktestResult", err)
	}

	p := &PortfolioBacktestResult{
		ID:                 row.ID,
		Name:               row.Name,
		StartDate:          row.StartDate,
		EndDate:            row.EndDate,
		InitialCapital:     row.InitialCapital,
		Weights:            row.Weights,
		Results:            make(map[string]*BacktestResult),
		EquityCurve:        backtest.EquityCurve{},
		PerformanceMetrics: backtest.MetricsFromValues(row.Metrics),
		Config:             map[string]interface{}{},
		CreatedAt:          row.CreatedAt,
		SummaryOnly:        true,
	}
	legs, err := m.store.ListResults(ctx, Filter{PortfolioID: id})
	if err != nil {
		return nil, m.failure(storeDB, "LoadPortfolioBacktestResult", err)
	}
	for _, leg := range legs {
		p.Results[leg.Symbol] = &BacktestResult{
			ID:                 leg.ID,
			StrategyID:         leg.StrategyID,
			Symbol:             leg.Symbol,
			PortfolioID:        leg.PortfolioID,
			Timeframe:          leg.Timeframe,
			StartDate:          leg.StartDate,
			EndDate:            leg.EndDate,
			InitialCapital:     leg.InitialCapital,
			Trades:             []backtest.Trade{},
			PerformanceMetrics: backtest.MetricsFromValues(leg.Metrics),
			EquityCurve:        backtest.EquityCurve{},
			Config:             map[string]interface{}{},
			CreatedAt:          leg.CreatedAt,
			SummaryOnly:        true,
		}
	}
	m.log.Warning("portfolio %s has no readable file, returning database summary only", id)
	return p, nil
}

// ListBacktestResults queries the database only; rows carry no trades or equity
func (m *Manager) ListBacktestResults(ctx context.Context, f Filter) ([]SummaryRow, error) {
	rows, err := m.store.ListResults(ctx, f)
	if err != nil {
		return nil, m.failure(storeDB, "ListBacktestResults", err)
	}
	return rows, nil
}

// DeleteBacktestResult removes the row and the file independently
func (m *Manager) DeleteBacktestResult(ctx context.Context, id string) DeleteOutcome {
	var out DeleteOutcome
	if err := checkID("DeleteBacktestResult", id); err != nil {
		out.RowErr, out.FileErr = err, err
		return out
	}

	deleted, err := m.store.DeleteResult(ctx, id)
	switch {
	case err != nil:
		out.RowErr = m.failure(storeDB, "DeleteBacktestResult", err)
	case !deleted:
		m.log.Warning("no database row for result %s", id)
	default:
		out.RowDeleted = true
	}

	err = os.Remove(m.resultPath(id))
	switch {
	case errors.Is(err, os.ErrNotExist):
		m.log.Warning("no result file for %s", id)
	case err != nil:
		out.FileErr = m.failure(storeFile, "DeleteBacktestResult", err)
	default:
		out.FileDeleted = true
	}

	if out.OK() {
		m.log.Info("deleted backtest result %s (row=%t file=%t)", id, out.RowDeleted, out.FileDeleted)
	}
	return out
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// readJSON reports found=false without error when the file does not exist
func readJSON(path string, v interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%s: %w", path, err)
	}
	return true, nil
}
