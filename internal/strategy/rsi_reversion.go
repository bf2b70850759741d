package strategy

import (
	"fmt"

	"github.com/ducminhle1904/upbit-backtester/internal/indicators"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// RSIReversion buys when RSI drops below the oversold level and sells when it
// rises above the overbought level.
type RSIReversion struct {
	window     int
	oversold   float64
	overbought float64
}

// NewRSIReversion creates the strategy
func NewRSIReversion(window int, oversold, overbought float64) (*RSIReversion, error) {
	if window <= 0 {
		return nil, fmt.Errorf("rsi: window must be positive, got %d", window)
	}
	if oversold <= 0 || overbought >= 100 || oversold >= overbought {
		return nil, fmt.Errorf("rsi: need 0 < oversold < overbought < 100, got %.1f/%.1f", oversold, overbought)
	}
	return &RSIReversion{window: window, oversold: oversold, overbought: overbought}, nil
}

func (r *RSIReversion) GetName() string {
	return fmt.Sprintf("rsi_%d", r.window)
}

func (r *RSIReversion) RequiredIndicators() []indicators.Spec {
	return []indicators.Spec{
		{Name: "rsi", Params: map[string]interface{}{"window": float64(r.window)}},
	}
}

func (r *RSIReversion) GenerateSignals(frame *types.Frame) ([]types.Signal, error) {
	col := fmt.Sprintf("RSI_%d", r.window)
	rsi, ok := frame.Columns[col]
	if !ok {
		return nil, fmt.Errorf("rsi: missing column %s", col)
	}

	signals := make([]types.Signal, frame.Len())
	for i, v := range rsi {
		switch {
		case v < r.oversold:
			signals[i] = types.SignalBuy
		case v > r.overbought:
			signals[i] = types.SignalSell
		}
	}
	return signals, nil
}
