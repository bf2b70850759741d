package types

import (
	"math"
	"sort"
)

// Frame is an OHLCV series with named numeric columns aligned to its bars.
// Indicator columns use NaN for bars where the value is undefined.
type Frame struct {
	Bars    []OHLCV
	Columns map[string][]float64
}

// NewFrame wraps bars in a frame with no extra columns.
func NewFrame(bars []OHLCV) *Frame {
	return &Frame{
		Bars:    bars,
		Columns: make(map[string][]float64),
	}
}

// Len returns the number of bars.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Bars)
}

// Clone returns a copy whose bars and columns can be modified independently.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Bars:    make([]OHLCV, len(f.Bars)),
		Columns: make(map[string][]float64, len(f.Columns)),
	}
	copy(out.Bars, f.Bars)
	for name, col := range f.Columns {
		c := make([]float64, len(col))
		copy(c, col)
		out.Columns[name] = c
	}
	return out
}

// Column returns a named series. OHLCV fields are resolved from the bars;
// anything else is looked up in Columns.
func (f *Frame) Column(name string) ([]float64, bool) {
	if col, ok := f.Columns[name]; ok {
		return col, true
	}
	if len(f.Bars) == 0 {
		if _, ok := (OHLCV{}).Field(name); ok {
			return []float64{}, true
		}
		return nil, false
	}
	if _, ok := f.Bars[0].Field(name); !ok {
		return nil, false
	}
	out := make([]float64, len(f.Bars))
	for i, b := range f.Bars {
		out[i], _ = b.Field(name)
	}
	return out, true
}

// SetColumn stores a series. It panics if the length does not match the bars.
func (f *Frame) SetColumn(name string, values []float64) {
	if len(values) != len(f.Bars) {
		panic("types: column length does not match bar count")
	}
	if f.Columns == nil {
		f.Columns = make(map[string][]float64)
	}
	f.Columns[name] = values
}

// ColumnNames returns the extra column names in sorted order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, 0, len(f.Columns))
	for name := range f.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns column[i], or NaN when the column or index is missing.
func (f *Frame) Value(name string, i int) float64 {
	col, ok := f.Column(name)
	if !ok || i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}
