package indicators

import "math"

// nanSeries returns a slice of n NaN values
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// rollingMean is the mean of each full trailing window; earlier entries are NaN.
// A window containing NaN yields NaN.
func rollingMean(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// rollingStd is the sample standard deviation (ddof=1) of each full trailing window
func rollingStd(values []float64, window int) []float64 {
	out := nanSeries(len(values))
	if window <= 1 || len(values) < window {
		return out
	}
	mean := rollingMean(values, window)
	for i := window - 1; i < len(values); i++ {
		ss := 0.0
		for _, v := range values[i-window+1 : i+1] {
			d := v - mean[i]
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// ewm is an exponentially weighted mean with alpha = 2/(span+1), seeded with the
// first defined value and skipping leading NaNs.
func ewm(values []float64, span int) []float64 {
	if span <= 0 {
		return nanSeries(len(values))
	}
	return ewmAlpha(values, 2.0/float64(span+1))
}

// ewmAlpha is ewm with an explicit smoothing factor
func ewmAlpha(values []float64, alpha float64) []float64 {
	out := nanSeries(len(values))
	started := false
	prev := 0.0
	for i, v := range values {
		if math.IsNaN(v) {
			if started {
				out[i] = prev
			}
			continue
		}
		if !started {
			prev = v
			started = true
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}
