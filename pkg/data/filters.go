package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/ducminhle1904/upbit-backtester/pkg/types"
)

// FilterByDateRange keeps bars with start <= timestamp <= end. A zero bound is open.
func FilterByDateRange(data []types.OHLCV, start, end time.Time) []types.OHLCV {
	if len(data) == 0 || (start.IsZero() && end.IsZero()) {
		return data
	}

	filtered := make([]types.OHLCV, 0, len(data))
	for _, candle := range data {
		if !start.IsZero() && candle.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && candle.Timestamp.After(end) {
			continue
		}
		filtered = append(filtered, candle)
	}
	return filtered
}

// ValidateTimeSequence ensures timestamps are unique and strictly increasing
func ValidateTimeSequence(data []types.OHLCV) error {
	for i := 1; i < len(data); i++ {
		if data[i].Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, data[i].Timestamp.Format(time.RFC3339), data[i-1].Timestamp.Format(time.RFC3339))
		}
		if data[i].Timestamp.Equal(data[i-1].Timestamp) {
			return fmt.Errorf("duplicate timestamp at index %d: %s",
				i, data[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Normalize returns a copy sorted by timestamp with duplicate timestamps removed,
// keeping the first occurrence in the original order.
func Normalize(data []types.OHLCV) []types.OHLCV {
	if len(data) <= 1 {
		return data
	}

	sorted := make([]types.OHLCV, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := sorted[:1]
	for _, candle := range sorted[1:] {
		if candle.Timestamp.Equal(out[len(out)-1].Timestamp) {
			continue
		}
		out = append(out, candle)
	}
	return out
}
