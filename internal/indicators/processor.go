package indicators

import (
	"fmt"
	"math"
	"strings"

	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// Spec requests one indicator. Params come straight from strategy or config
// JSON, so numbers arrive as float64 and "column" as a string.
type Spec struct {
	Name   string                 `json:"name"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// Processor appends indicator columns to a frame
type Processor struct {
	log *logger.Logger
}

// NewProcessor creates a processor; a nil logger falls back to stdout
func NewProcessor(l *logger.Logger) *Processor {
	return &Processor{log: logger.OrDefault(l)}
}

// CalculateIndicators returns a copy of frame with a column set per spec.
// Unknown indicators and per-indicator failures are logged and skipped.
func (p *Processor) CalculateIndicators(frame *types.Frame, specs []Spec) *types.Frame {
	if frame == nil {
		frame = types.NewFrame(nil)
	}
	out := frame.Clone()

	for _, spec := range specs {
		name := strings.ToLower(strings.TrimSpace(spec.Name))
		var err error
		switch name {
		case "sma":
			err = p.addSMA(out, spec)
		case "ema":
			err = p.addEMA(out, spec)
		case "rsi":
			err = p.addRSI(out, spec)
		case "bollinger", "bollinger_bands", "bb", "bbands":
			err = p.addBollinger(out, spec)
		case "macd":
			err = p.addMACD(out, spec)
		default:
			p.log.Warning("unsupported indicator %q skipped", spec.Name)
			continue
		}
		if err != nil {
			p.log.Error("indicator %s failed: %v", spec.Name, err)
		}
	}
	return out
}

// warnShort notes an indicator whose warm-up is longer than the frame
func (p *Processor) warnShort(f *types.Frame, name string, required int) {
	if f.Len() < required {
		p.log.Warning("%s needs %d bars, frame has %d", name, required, f.Len())
	}
}

func (p *Processor) addSMA(f *types.Frame, spec Spec) error {
	window, err := intParam(spec.Params, "window", 20)
	if err != nil {
		return err
	}
	src, err := sourceColumn(f, spec.Params)
	if err != nil {
		return err
	}
	sma := NewSMA(window)
	p.warnShort(f, sma.GetName(), sma.GetRequiredPeriods())
	values, err := sma.Calculate(src)
	if err != nil {
		return err
	}
	f.SetColumn(sma.GetName(), values)
	return nil
}

func (p *Processor) addEMA(f *types.Frame, spec Spec) error {
	window, err := intParam(spec.Params, "window", 20)
	if err != nil {
		return err
	}
	src, err := sourceColumn(f, spec.Params)
	if err != nil {
		return err
	}
	ema := NewEMA(window)
	p.warnShort(f, ema.GetName(), ema.GetRequiredPeriods())
	values, err := ema.Calculate(src)
	if err != nil {
		return err
	}
	f.SetColumn(ema.GetName(), values)
	return nil
}

func (p *Processor) addRSI(f *types.Frame, spec Spec) error {
	window, err := intParam(spec.Params, "window", 14)
	if err != nil {
		return err
	}
	src, err := sourceColumn(f, spec.Params)
	if err != nil {
		return err
	}
	rsi := NewRSI(window)
	p.warnShort(f, rsi.GetName(), rsi.GetRequiredPeriods())
	values, err := rsi.Calculate(src)
	if err != nil {
		return err
	}
	f.SetColumn(rsi.GetName(), values)
	return nil
}

func (p *Processor) addBollinger(f *types.Frame, spec Spec) error {
	window, err := intParam(spec.Params, "window", 20)
	if err != nil {
		return err
	}
	numStd, err := floatParam(spec.Params, "num_std", 2)
	if err != nil {
		return err
	}
	src, err := sourceColumn(f, spec.Params)
	if err != nil {
		return err
	}
	bb := NewBollingerBands(window, numStd)
	p.warnShort(f, "BBANDS", bb.GetRequiredPeriods())
	bands, err := bb.Calculate(src)
	if err != nil {
		return err
	}
	f.SetColumn("BB_UPPER", bands.Upper)
	f.SetColumn("BB_MIDDLE", bands.Middle)
	f.SetColumn("BB_LOWER", bands.Lower)
	return nil
}

func (p *Processor) addMACD(f *types.Frame, spec Spec) error {
	fast, err := intParam(spec.Params, "fast", 12)
	if err != nil {
		return err
	}
	slow, err := intParam(spec.Params, "slow", 26)
	if err != nil {
		return err
	}
	signal, err := intParam(spec.Params, "signal", 9)
	if err != nil {
		return err
	}
	src, err := sourceColumn(f, spec.Params)
	if err != nil {
		return err
	}
	macd := NewMACD(fast, slow, signal)
	p.warnShort(f, "MACD", macd.GetRequiredPeriods())
	res, err := macd.Calculate(src)
	if err != nil {
		return err
	}
	f.SetColumn("MACD", res.MACD)
	f.SetColumn("MACD_SIGNAL", res.Signal)
	f.SetColumn("MACD_HIST", res.Histogram)
	return nil
}

func sourceColumn(f *types.Frame, params map[string]interface{}) ([]float64, error) {
	name := "close"
	if v, ok := params["column"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("column param must be a non-empty string, got %v", v)
		}
		name = s
	}
	col, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return col, nil
}

func floatParam(params map[string]interface{}, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("param %s: expected number, got %T", key, v)
}

func intParam(params map[string]interface{}, key string, def int) (int, error) {
	f, err := floatParam(params, key, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f <= 0 {
		return 0, fmt.Errorf("param %s: expected positive integer, got %v", key, f)
	}
	return int(f), nil
}
