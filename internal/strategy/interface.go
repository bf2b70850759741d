package strategy

import (
	"github.com/ducminhle1904/upbit-backtester/internal/indicators"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// Strategy turns a frame of bars plus indicator columns into one signal per bar
type Strategy interface {
	// GenerateSignals returns a slice aligned 1:1 with frame.Bars
	GenerateSignals(frame *types.Frame) ([]types.Signal, error)

	// RequiredIndicators lists the indicator columns GenerateSignals reads
	RequiredIndicators() []indicators.Spec

	// GetName returns the name of the strategy
	GetName() string
}
