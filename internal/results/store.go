package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/upbit-backtester/pkg/types"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const createdAtLayout = "2006-01-02 15:04:05.000000"

const schema = `
CREATE TABLE IF NOT EXISTS backtest_results (
	id                  TEXT PRIMARY KEY,
	strategy_id         TEXT NOT NULL,
	symbol              TEXT NOT NULL,
	portfolio_id        TEXT,
	timeframe           TEXT NOT NULL,
	start_date          TEXT,
	end_date            TEXT,
	initial_capital     TEXT NOT NULL,
	performance_metrics TEXT NOT NULL,
	created_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_results_symbol ON backtest_results(symbol);
CREATE INDEX IF NOT EXISTS idx_backtest_results_portfolio ON backtest_results(portfolio_id);

CREATE TABLE IF NOT EXISTS portfolio_backtest_results (
	id                  TEXT PRIMARY KEY,
	name                TEXT,
	start_date          TEXT,
	end_date            TEXT,
	initial_capital     TEXT NOT NULL,
	weights             TEXT NOT NULL,
	performance_metrics TEXT NOT NULL,
	created_at          TEXT NOT NULL
);`

// sqliteStore holds the summary rows
type sqliteStore struct {
	db *sql.DB
}

// openSQLiteStore opens (or creates) the database at dbPath and ensures the schema
func openSQLiteStore(ctx context.Context, dbPath string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// a single connection serializes writers and keeps in-memory databases alive
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func parseMoney(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeMetrics(values map[string]float64) (string, error) {
	b, err := json.Marshal(types.FloatMap(values))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetrics(s string) (map[string]float64, error) {
	var m map[string]types.Float
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return types.PlainMap(m), nil
}

const upsertResult = `INSERT OR REPLACE INTO backtest_results
	(id, strategy_id, symbol, portfolio_id, timeframe, start_date, end_date, initial_capital, performance_metrics, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertResultRow(ctx context.Context, tx *sql.Tx, r *BacktestResult) error {
	metrics, err := encodeMetrics(r.PerformanceMetrics.Values())
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, upsertResult,
		r.ID, r.StrategyID, r.Symbol, nullable(r.PortfolioID), r.Timeframe,
		formatDate(r.StartDate), formatDate(r.EndDate), money(r.InitialCapital),
		metrics, r.CreatedAt.UTC().Format(createdAtLayout))
	return err
}

// SaveResult writes one summary row in a transaction that is rolled back on error
func (s *sqliteStore) SaveResult(ctx context.Context, r *BacktestResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := insertResultRow(ctx, tx, r); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SavePortfolio writes the portfolio row and one row per leg atomically
func (s *sqliteStore) SavePortfolio(ctx context.Context, p *PortfolioBacktestResult) error {
	weights, err := json.Marshal(p.Weights)
	if err != nil {
		return err
	}
	metrics, err := encodeMetrics(p.PerformanceMetrics.Values())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO portfolio_backtest_results
		(id, name, start_date, end_date, initial_capital, weights, performance_metrics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, formatDate(p.StartDate), formatDate(p.EndDate), money(p.InitialCapital),
		string(weights), metrics, p.CreatedAt.UTC().Format(createdAtLayout))
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, leg := range p.Results {
		if err := insertResultRow(ctx, tx, leg); err != nil {
			tx.Rollback()
			return fmt.Errorf("leg %s: %w", leg.Symbol, err)
		}
	}
	return tx.Commit()
}

const selectRow = `SELECT id, strategy_id, symbol, portfolio_id, timeframe, start_date, end_date,
	initial_capital, performance_metrics, created_at FROM backtest_results`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(sc rowScanner) (*SummaryRow, error) {
	var (
		row                    SummaryRow
		portfolioID            sql.NullString
		start, end             sql.NullString
		capital, metrics, made string
	)
	if err := sc.Scan(&row.ID, &row.StrategyID, &row.Symbol, &portfolioID, &row.Timeframe,
		&start, &end, &capital, &metrics, &made); err != nil {
		return nil, err
	}
	row.PortfolioID = portfolioID.String
	row.StartDate, _ = parseDate(start.String)
	row.EndDate, _ = parseDate(end.String)
	row.InitialCapital = parseMoney(capital)
	row.CreatedAt, _ = time.ParseInLocation(createdAtLayout, made, time.UTC)

	values, err := decodeMetrics(metrics)
	if err != nil {
		return nil, fmt.Errorf("row %s performance_metrics: %w", row.ID, err)
	}
	row.Metrics = values
	return &row, nil
}

// GetResult returns the summary row or sql.ErrNoRows
func (s *sqliteStore) GetResult(ctx context.Context, id string) (*SummaryRow, error) {
	return scanSummary(s.db.QueryRowContext(ctx, selectRow+" WHERE id = ?", id))
}

// ListResults returns rows matching f, newest first
func (s *sqliteStore) ListResults(ctx context.Context, f Filter) ([]SummaryRow, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, arg interface{}) {
		where = append(where, clause)
		args = append(args, arg)
	}
	if f.Symbol != "" {
		add("symbol = ?", f.Symbol)
	}
	if f.StrategyID != "" {
		add("strategy_id = ?", f.StrategyID)
	}
	if f.PortfolioID != "" {
		add("portfolio_id = ?", f.PortfolioID)
	}
	if f.Timeframe != "" {
		add("timeframe = ?", f.Timeframe)
	}
	if !f.StartFrom.IsZero() {
		add("start_date >= ?", formatDate(f.StartFrom))
	}
	if !f.StartTo.IsZero() {
		add("start_date <= ?", formatDate(f.StartTo))
	}
	if !f.EndFrom.IsZero() {
		add("end_date >= ?", formatDate(f.EndFrom))
	}
	if !f.EndTo.IsZero() {
		add("end_date <= ?", formatDate(f.EndTo))
	}

	query := selectRow
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SummaryRow, 0)
	for rows.Next() {
		row, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

// portfolioRow is the summary part of a portfolio
type portfolioRow struct {
	ID             string
	Name           string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	Weights        map[string]float64
	Metrics        map[string]float64
	CreatedAt      time.Time
}

// GetPortfolio returns the portfolio row or sql.ErrNoRows
func (s *sqliteStore) GetPortfolio(ctx context.Context, id string) (*portfolioRow, error) {
	var (
		row                             portfolioRow
		name, start, end                sql.NullString
		capital, weights, metrics, made string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, start_date, end_date, initial_capital, weights,
		performance_metrics, created_at FROM portfolio_backtest_results WHERE id = ?`, id).
		Scan(&row.ID, &name, &start, &end, &capital, &weights, &metrics, &made)
	if err != nil {
		return nil, err
	}
	row.Name = name.String
	row.StartDate, _ = parseDate(start.String)
	row.EndDate, _ = parseDate(end.String)
	row.InitialCapital = parseMoney(capital)
	row.CreatedAt, _ = time.ParseInLocation(createdAtLayout, made, time.UTC)
	if err := json.Unmarshal([]byte(weights), &row.Weights); err != nil {
		return nil, fmt.Errorf("portfolio %s weights: %w", id, err)
	}
	if row.Metrics, err = decodeMetrics(metrics); err != nil {
		return nil, fmt.Errorf("portfolio %s performance_metrics: %w", id, err)
	}
	return &row, nil
}

// DeleteResult removes a row; deleted is false when there was none
func (s *sqliteStore) DeleteResult(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM backtest_results WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
