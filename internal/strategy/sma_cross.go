package strategy

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/upbit-backtester/internal/indicators"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// SMACross buys when the fast SMA crosses above the slow one and sells on the
// opposite cross.
type SMACross struct {
	fast int
	slow int
}

// NewSMACross creates the strategy; fast must be shorter than slow
func NewSMACross(fast, slow int) (*SMACross, error) {
	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, fmt.Errorf("sma_cross: need 0 < fast < slow, got %d/%d", fast, slow)
	}
	return &SMACross{fast: fast, slow: slow}, nil
}

func (s *SMACross) GetName() string {
	return fmt.Sprintf("sma_cross_%d_%d", s.fast, s.slow)
}

func (s *SMACross) RequiredIndicators() []indicators.Spec {
	return []indicators.Spec{
		{Name: "sma", Params: map[string]interface{}{"window": float64(s.fast)}},
		{Name: "sma", Params: map[string]interface{}{"window": float64(s.slow)}},
	}
}

func (s *SMACross) GenerateSignals(frame *types.Frame) ([]types.Signal, error) {
	fastCol := fmt.Sprintf("SMA_%d", s.fast)
	slowCol := fmt.Sprintf("SMA_%d", s.slow)
	fast, ok := frame.Columns[fastCol]
	if !ok {
		return nil, fmt.Errorf("sma_cross: missing column %s", fastCol)
	}
	slow, ok := frame.Columns[slowCol]
	if !ok {
		return nil, fmt.Errorf("sma_cross: missing column %s", slowCol)
	}

	signals := make([]types.Signal, frame.Len())
	for i := 1; i < len(signals); i++ {
		if anyNaN(fast[i-1], slow[i-1], fast[i], slow[i]) {
			continue
		}
		switch {
		case fast[i-1] <= slow[i-1] && fast[i] > slow[i]:
			signals[i] = types.SignalBuy
		case fast[i-1] >= slow[i-1] && fast[i] < slow[i]:
			signals[i] = types.SignalSell
		}
	}
	return signals, nil
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
