package indicators

import (
	"fmt"
	"math"
)

// RSI calculates the Relative Strength Index using plain rolling means of
// gains and losses rather than Wilder smoothing.
type RSI struct {
	period int
}

// NewRSI creates a new RSI instance with the given period
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Calculate returns the RSI series. The first period values are NaN.
// A window with no losses gives 100; a window with no movement gives NaN.
func (r *RSI) Calculate(prices []float64) ([]float64, error) {
	if r.period <= 0 {
		return nil, fmt.Errorf("invalid RSI window %d", r.period)
	}

	out := nanSeries(len(prices))
	if len(prices) < r.period+1 {
		return out, nil
	}

	gains := make([]float64, len(prices)-1)
	losses := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = math.Abs(change)
		}
	}

	avgGain := rollingMean(gains, r.period)
	avgLoss := rollingMean(losses, r.period)
	for i := r.period - 1; i < len(gains); i++ {
		rs := avgGain[i] / avgLoss[i]
		out[i+1] = 100 - 100/(1+rs)
	}
	return out, nil
}

// GetName returns the column name produced by this indicator
func (r *RSI) GetName() string {
	return fmt.Sprintf("RSI_%d", r.period)
}

// GetRequiredPeriods returns the minimum number of periods needed
func (r *RSI) GetRequiredPeriods() int {
	return r.period + 1
}
