package strategy

import (
	"fmt"

	"github.com/ducminhle1904/upbit-backtester/internal/indicators"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// Static replays a precomputed signal series, e.g. one exported from another tool
type Static struct {
	name    string
	signals []types.Signal
}

// NewStatic creates a strategy that always returns signals
func NewStatic(name string, signals []types.Signal) *Static {
	return &Static{name: name, signals: signals}
}

func (s *Static) GetName() string { return s.name }

func (s *Static) RequiredIndicators() []indicators.Spec { return nil }

func (s *Static) GenerateSignals(frame *types.Frame) ([]types.Signal, error) {
	if len(s.signals) != frame.Len() {
		return nil, fmt.Errorf("static: have %d signals for %d bars", len(s.signals), frame.Len())
	}
	out := make([]types.Signal, len(s.signals))
	copy(out, s.signals)
	return out, nil
}
