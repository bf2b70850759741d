package indicators

import "fmt"

// SMA represents the Simple Moving Average technical indicator
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// Calculate returns the SMA series; the first period-1 values are NaN
func (s *SMA) Calculate(values []float64) ([]float64, error) {
	if s.period <= 0 {
		return nil, fmt.Errorf("invalid SMA window %d", s.period)
	}
	return rollingMean(values, s.period), nil
}

// GetName returns the column name produced by this indicator
func (s *SMA) GetName() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

// GetRequiredPeriods returns the minimum number of periods needed
func (s *SMA) GetRequiredPeriods() int {
	return s.period
}
