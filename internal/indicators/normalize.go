package indicators

import (
	"math"
	"sort"

	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

var ohlcvColumns = []string{"open", "high", "low", "close", "volume"}

// NormalizeData rescales every numeric column with minmax, zscore or robust
// (median/IQR). NaNs are ignored in the statistics and kept in place; a column
// with zero range, deviation or IQR is left as is.
func (p *Processor) NormalizeData(frame *types.Frame, method string) *types.Frame {
	if frame == nil {
		return types.NewFrame(nil)
	}
	var scale func([]float64) ([]float64, bool)
	switch method {
	case "minmax":
		scale = minMaxScale
	case "zscore":
		scale = zScoreScale
	case "robust":
		scale = robustScale
	default:
		p.log.Warning("unsupported normalization method %q, data left unchanged", method)
		return frame
	}

	out := frame.Clone()
	for _, name := range ohlcvColumns {
		col, _ := out.Column(name)
		if scaled, ok := scale(col); ok {
			for i := range out.Bars {
				setField(&out.Bars[i], name, scaled[i])
			}
		}
	}
	for _, name := range out.ColumnNames() {
		if scaled, ok := scale(out.Columns[name]); ok {
			out.Columns[name] = scaled
		}
	}
	return out
}

func setField(b *types.OHLCV, name string, v float64) {
	switch name {
	case "open":
		b.Open = v
	case "high":
		b.High = v
	case "low":
		b.Low = v
	case "close":
		b.Close = v
	case "volume":
		b.Volume = v
	}
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func apply(values []float64, center, scale float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - center) / scale
	}
	return out
}

func minMaxScale(values []float64) ([]float64, bool) {
	vs := finite(values)
	if len(vs) == 0 {
		return nil, false
	}
	lo, hi := vs[0], vs[0]
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo == 0 {
		return nil, false
	}
	return apply(values, lo, hi-lo), true
}

func zScoreScale(values []float64) ([]float64, bool) {
	vs := finite(values)
	if len(vs) < 2 {
		return nil, false
	}
	mean, std := meanStd(vs)
	if std == 0 {
		return nil, false
	}
	return apply(values, mean, std), true
}

func robustScale(values []float64) ([]float64, bool) {
	vs := finite(values)
	if len(vs) == 0 {
		return nil, false
	}
	sort.Float64s(vs)
	iqr := quantile(vs, 0.75) - quantile(vs, 0.25)
	if iqr == 0 {
		return nil, false
	}
	return apply(values, quantile(vs, 0.5), iqr), true
}

// meanStd returns the mean and sample standard deviation
func meanStd(vs []float64) (float64, float64) {
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	mean := sum / float64(len(vs))
	ss := 0.0
	for _, v := range vs {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(vs)-1))
}

// quantile uses linear interpolation on sorted values
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
