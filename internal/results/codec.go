package results

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/backtest"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// equityColumns are the data keys of a serialized equity curve
var equityColumns = []string{"equity", "cash", "position_value"}

type equityFile struct {
	Index []string                 `json:"index"`
	Data  map[string][]types.Float `json:"data"`
}

type tradeFile struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Side              string  `json:"side"`
	EntryTime         string  `json:"entry_time"`
	EntryPrice        float64 `json:"entry_price"`
	ExitTime          string  `json:"exit_time"`
	ExitPrice         float64 `json:"exit_price"`
	Quantity          float64 `json:"quantity"`
	EntryFee          float64 `json:"entry_fee"`
	ExitFee           float64 `json:"exit_fee"`
	TotalFee          float64 `json:"total_fee"`
	ProfitLoss        float64 `json:"profit_loss"`
	ProfitLossPercent float64 `json:"profit_loss_percent"`
	Duration          string  `json:"duration"`
}

type resultFile struct {
	ID                 string                 `json:"id"`
	StrategyID         string                 `json:"strategy_id"`
	Symbol             string                 `json:"symbol"`
	PortfolioID        *string                `json:"portfolio_id"`
	Timeframe          string                 `json:"timeframe"`
	StartDate          string                 `json:"start_date"`
	EndDate            string                 `json:"end_date"`
	InitialCapital     float64                `json:"initial_capital"`
	Trades             []tradeFile            `json:"trades"`
	PerformanceMetrics map[string]types.Float `json:"performance_metrics"`
	EquityCurve        *equityFile            `json:"equity_curve"`
	Config             map[string]interface{} `json:"config"`
	CreatedAt          string                 `json:"created_at"`
}

type portfolioFile struct {
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	StartDate          string                 `json:"start_date"`
	EndDate            string                 `json:"end_date"`
	InitialCapital     float64                `json:"initial_capital"`
	Weights            map[string]float64     `json:"weights"`
	Results            map[string]resultFile  `json:"results"`
	EquityCurve        *equityFile            `json:"equity_curve"`
	PerformanceMetrics map[string]types.Float `json:"performance_metrics"`
	Config             map[string]interface{} `json:"config"`
	CreatedAt          string                 `json:"created_at"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func encodeEquity(curve backtest.EquityCurve) *equityFile {
	ef := &equityFile{
		Index: make([]string, len(curve)),
		Data:  make(map[string][]types.Float, len(equityColumns)),
	}
	equity := make([]types.Float, len(curve))
	cash := make([]types.Float, len(curve))
	posValue := make([]types.Float, len(curve))
	for i, pt := range curve {
		ef.Index[i] = formatDate(pt.Timestamp)
		equity[i] = types.Float(pt.Equity)
		cash[i] = types.Float(pt.Cash)
		posValue[i] = types.Float(pt.PositionValue)
	}
	ef.Data["equity"] = equity
	ef.Data["cash"] = cash
	ef.Data["position_value"] = posValue
	return ef
}

func decodeEquity(ef *equityFile) (backtest.EquityCurve, error) {
	if ef == nil {
		return backtest.EquityCurve{}, nil
	}
	curve := make(backtest.EquityCurve, len(ef.Index))
	for _, col := range equityColumns {
		if values, ok := ef.Data[col]; ok && len(values) != len(ef.Index) {
			return nil, fmt.Errorf("equity column %s has %d values for %d index entries", col, len(values), len(ef.Index))
		}
	}
	for i, s := range ef.Index {
		ts, err := parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("equity index %d: %w", i, err)
		}
		pt := backtest.EquityPoint{Timestamp: ts}
		if v := ef.Data["equity"]; v != nil {
			pt.Equity = float64(v[i])
		}
		if v := ef.Data["cash"]; v != nil {
			pt.Cash = float64(v[i])
		}
		if v := ef.Data["position_value"]; v != nil {
			pt.PositionValue = float64(v[i])
		}
		curve[i] = pt
	}
	return curve, nil
}

func encodeTrades(trades []backtest.Trade) []tradeFile {
	out := make([]tradeFile, len(trades))
	for i, t := range trades {
		out[i] = tradeFile{
			ID:                t.ID,
			Symbol:            t.Symbol,
			Side:              t.Side,
			EntryTime:         formatDate(t.EntryTime),
			EntryPrice:        t.EntryPrice,
			ExitTime:          formatDate(t.ExitTime),
			ExitPrice:         t.ExitPrice,
			Quantity:          t.Quantity,
			EntryFee:          t.EntryFee,
			ExitFee:           t.ExitFee,
			TotalFee:          t.TotalFee,
			ProfitLoss:        t.ProfitLoss,
			ProfitLossPercent: t.ProfitLossPercent,
			Duration:          t.Duration.String(),
		}
	}
	return out
}

func decodeTrades(in []tradeFile) ([]backtest.Trade, error) {
	out := make([]backtest.Trade, len(in))
	for i, tf := range in {
		entry, err := parseDate(tf.EntryTime)
		if err != nil {
			return nil, fmt.Errorf("trade %d entry_time: %w", i, err)
		}
		exit, err := parseDate(tf.ExitTime)
		if err != nil {
			return nil, fmt.Errorf("trade %d exit_time: %w", i, err)
		}
		duration := exit.Sub(entry)
		if tf.Duration != "" {
			if d, err := time.ParseDuration(tf.Duration); err == nil {
				duration = d
			}
		}
		out[i] = backtest.Trade{
			ID:                tf.ID,
			Symbol:            tf.Symbol,
			Side:              tf.Side,
			EntryTime:         entry,
			EntryPrice:        tf.EntryPrice,
			ExitTime:          exit,
			ExitPrice:         tf.ExitPrice,
			Quantity:          tf.Quantity,
			EntryFee:          tf.EntryFee,
			ExitFee:           tf.ExitFee,
			TotalFee:          tf.TotalFee,
			ProfitLoss:        tf.ProfitLoss,
			ProfitLossPercent: tf.ProfitLossPercent,
			Duration:          duration,
		}
	}
	return out, nil
}

func encodeResult(r *BacktestResult) resultFile {
	rf := resultFile{
		ID:                 r.ID,
		StrategyID:         r.StrategyID,
		Symbol:             r.Symbol,
		Timeframe:          r.Timeframe,
		StartDate:          formatDate(r.StartDate),
		EndDate:            formatDate(r.EndDate),
		InitialCapital:     r.InitialCapital,
		Trades:             encodeTrades(r.Trades),
		PerformanceMetrics: types.FloatMap(r.PerformanceMetrics.Values()),
		EquityCurve:        encodeEquity(r.EquityCurve),
		Config:             r.Config,
		CreatedAt:          formatDate(r.CreatedAt),
	}
	if r.PortfolioID != "" {
		pid := r.PortfolioID
		rf.PortfolioID = &pid
	}
	if rf.Config == nil {
		rf.Config = map[string]interface{}{}
	}
	return rf
}

func decodeResult(rf resultFile) (*BacktestResult, error) {
	start, err := parseDate(rf.StartDate)
	if err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}
	end, err := parseDate(rf.EndDate)
	if err != nil {
		return nil, fmt.Errorf("end_date: %w", err)
	}
	created, err := parseDate(rf.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	trades, err := decodeTrades(rf.Trades)
	if err != nil {
		return nil, err
	}
	curve, err := decodeEquity(rf.EquityCurve)
	if err != nil {
		return nil, err
	}

	r := &BacktestResult{
		ID:                 rf.ID,
		StrategyID:         rf.StrategyID,
		Symbol:             rf.Symbol,
		Timeframe:          rf.Timeframe,
		StartDate:          start,
		EndDate:            end,
		InitialCapital:     rf.InitialCapital,
		Trades:             trades,
		PerformanceMetrics: backtest.MetricsFromValues(types.PlainMap(rf.PerformanceMetrics)),
		EquityCurve:        curve,
		Config:             rf.Config,
		CreatedAt:          created,
	}
	if rf.PortfolioID != nil {
		r.PortfolioID = *rf.PortfolioID
	}
	return r, nil
}

func encodePortfolio(p *PortfolioBacktestResult) portfolioFile {
	pf := portfolioFile{
		ID:                 p.ID,
		Name:               p.Name,
		StartDate:          formatDate(p.StartDate),
		EndDate:            formatDate(p.EndDate),
		InitialCapital:     p.InitialCapital,
		Weights:            p.Weights,
		Results:            make(map[string]resultFile, len(p.Results)),
		EquityCurve:        encodeEquity(p.EquityCurve),
		PerformanceMetrics: types.FloatMap(p.PerformanceMetrics.Values()),
		Config:             p.Config,
		CreatedAt:          formatDate(p.CreatedAt),
	}
	for symbol, r := range p.Results {
		pf.Results[symbol] = encodeResult(r)
	}
	return pf
}

func decodePortfolio(pf portfolioFile) (*PortfolioBacktestResult, error) {
	start, err := parseDate(pf.StartDate)
	if err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}
	end, err := parseDate(pf.EndDate)
	if err != nil {
		return nil, fmt.Errorf("end_date: %w", err)
	}
	created, err := parseDate(pf.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	curve, err := decodeEquity(pf.EquityCurve)
	if err != nil {
		return nil, err
	}

	p := &PortfolioBacktestResult{
		ID:                 pf.ID,
		Name:               pf.Name,
		StartDate:          start,
		EndDate:            end,
		InitialCapital:     pf.InitialCapital,
		Weights:            pf.Weights,
		Results:            make(map[string]*BacktestResult, len(pf.Results)),
		EquityCurve:        curve,
		PerformanceMetrics: backtest.MetricsFromValues(types.PlainMap(pf.PerformanceMetrics)),
		Config:             pf.Config,
		CreatedAt:          created,
	}
	for symbol, rf := range pf.Results {
		child, err := decodeResult(rf)
		if err != nil {
			return nil, fmt.Errorf("portfolio leg %s: %w", symbol, err)
		}
		p.Results[symbol] = child
	}
	return p, nil
}
