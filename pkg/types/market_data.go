package types

import "time"

// OHLCV is a single bar of market data.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Field returns the named price field of the bar. ok is false for unknown names.
func (o OHLCV) Field(name string) (float64, bool) {
	switch name {
	case "open":
		return o.Open, true
	case "high":
		return o.High, true
	case "low":
		return o.Low, true
	case "close":
		return o.Close, true
	case "volume":
		return o.Volume, true
	}
	return 0, false
}

// Signal is a per-bar strategy decision.
type Signal int8

const (
	SignalSell Signal = -1
	SignalHold Signal = 0
	SignalBuy  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// CountSignals returns the number of buy, sell and hold entries.
func CountSignals(signals []Signal) (buys, sells, holds int) {
	for _, s := range signals {
		switch s {
		case SignalBuy:
			buys++
		case SignalSell:
			sells++
		default:
			holds++
		}
	}
	return buys, sells, holds
}
