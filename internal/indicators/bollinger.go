package indicators

import "fmt"

// BollingerBands holds the band parameters
type BollingerBands struct {
	period int
	stdDev float64
}

// BandSeries is the output of BollingerBands.Calculate
type BandSeries struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// NewBollingerBands creates bands with the given window and stdev multiplier
func NewBollingerBands(period int, stdDev float64) *BollingerBands {
	return &BollingerBands{period: period, stdDev: stdDev}
}

// Calculate computes the middle SMA and the bands at ±stdDev sample deviations
func (bb *BollingerBands) Calculate(prices []float64) (BandSeries, error) {
	if bb.period < 2 {
		return BandSeries{}, fmt.Errorf("invalid Bollinger window %d", bb.period)
	}

	middle := rollingMean(prices, bb.period)
	std := rollingStd(prices, bb.period)
	upper := make([]float64, len(prices))
	lower := make([]float64, len(prices))
	for i := range prices {
		upper[i] = middle[i] + bb.stdDev*std[i]
		lower[i] = middle[i] - bb.stdDev*std[i]
	}
	return BandSeries{Upper: upper, Middle: middle, Lower: lower}, nil
}

// GetRequiredPeriods returns the minimum number of periods needed
func (bb *BollingerBands) GetRequiredPeriods() int {
	return bb.period
}
