package indicators

import "fmt"

// EMA represents the Exponential Moving Average technical indicator.
// It is seeded with the first value rather than an SMA, so every bar has a value.
type EMA struct {
	period int
	alpha  float64
}

// NewEMA creates a new EMA indicator
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1), // Standard EMA alpha calculation
	}
}

// Calculate returns the EMA series
func (e *EMA) Calculate(values []float64) ([]float64, error) {
	if e.period <= 0 {
		return nil, fmt.Errorf("invalid EMA window %d", e.period)
	}
	return ewmAlpha(values, e.Alpha()), nil
}

// Alpha returns the smoothing factor
func (e *EMA) Alpha() float64 {
	return e.alpha
}

// GetName returns the column name produced by this indicator
func (e *EMA) GetName() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

// GetRequiredPeriods returns the minimum number of periods needed
func (e *EMA) GetRequiredPeriods() int {
	return e.period
}
