package indicators

import (
	"time"

	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

type bucketFunc func(t time.Time) time.Time

func fixedBucket(d time.Duration) bucketFunc {
	return func(t time.Time) time.Time { return t.Truncate(d) }
}

func dayBucket(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// weeks start on Monday
func weekBucket(t time.Time) time.Time {
	day := dayBucket(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func monthBucket(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

var resampleRules = map[string]bucketFunc{
	"1m":  fixedBucket(time.Minute),
	"3m":  fixedBucket(3 * time.Minute),
	"5m":  fixedBucket(5 * time.Minute),
	"10m": fixedBucket(10 * time.Minute),
	"15m": fixedBucket(15 * time.Minute),
	"30m": fixedBucket(30 * time.Minute),
	"1h":  fixedBucket(time.Hour),
	"4h":  fixedBucket(4 * time.Hour),
	"1d":  dayBucket,
	"1w":  weekBucket,
	"1M":  monthBucket,

	"minute1":   fixedBucket(time.Minute),
	"minute3":   fixedBucket(3 * time.Minute),
	"minute5":   fixedBucket(5 * time.Minute),
	"minute10":  fixedBucket(10 * time.Minute),
	"minute15":  fixedBucket(15 * time.Minute),
	"minute30":  fixedBucket(30 * time.Minute),
	"minute60":  fixedBucket(time.Hour),
	"minute240": fixedBucket(4 * time.Hour),
	"day":       dayBucket,
	"week":      weekBucket,
	"month":     monthBucket,
}

// ResampleData aggregates bars into the given timeframe: open first, high max,
// low min, close last, volume summed. Buckets are labelled by their start.
// An unknown timeframe is logged and the input is returned unchanged.
func (p *Processor) ResampleData(bars []types.OHLCV, timeframe string) []types.OHLCV {
	bucket, ok := resampleRules[timeframe]
	if !ok {
		p.log.Warning("unsupported resample timeframe %q, data left unchanged", timeframe)
		return bars
	}

	out := make([]types.OHLCV, 0, len(bars))
	for _, b := range bars {
		key := bucket(b.Timestamp)
		n := len(out)
		if n > 0 && out[n-1].Timestamp.Equal(key) {
			cur := &out[n-1]
			if b.High > cur.High {
				cur.High = b.High
			}
			if b.Low < cur.Low {
				cur.Low = b.Low
			}
			cur.Close = b.Close
			cur.Volume += b.Volume
			continue
		}
		out = append(out, types.OHLCV{
			Timestamp: key,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return out
}
