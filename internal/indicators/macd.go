package indicators

import "fmt"

// MACD holds the fast, slow and signal spans
type MACD struct {
	fast   int
	slow   int
	signal int
}

// MACDSeries is the output of MACD.Calculate
type MACDSeries struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// NewMACD creates a MACD indicator
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{fast: fast, slow: slow, signal: signal}
}

// Calculate returns EMA(fast) - EMA(slow), its EMA(signal), and their difference
func (m *MACD) Calculate(prices []float64) (MACDSeries, error) {
	if m.fast <= 0 || m.slow <= 0 || m.signal <= 0 {
		return MACDSeries{}, fmt.Errorf("invalid MACD spans %d/%d/%d", m.fast, m.slow, m.signal)
	}

	fastEMA := ewm(prices, m.fast)
	slowEMA := ewm(prices, m.slow)
	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signal := ewm(line, m.signal)
	hist := make([]float64, len(prices))
	for i := range prices {
		hist[i] = line[i] - signal[i]
	}
	return MACDSeries{MACD: line, Signal: signal, Histogram: hist}, nil
}

// GetRequiredPeriods returns the minimum number of periods needed
func (m *MACD) GetRequiredPeriods() int {
	return m.slow + m.signal
}
