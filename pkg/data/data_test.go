package data

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	bterrors "github.com/ducminhle1904/upbit-backtester/internal/errors"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `timestamp,open,high,low,close,volume
2024-01-01 00:00:00,100,110,95,105,1000
2024-01-02 00:00:00,105,115,100,110,1200
2024-01-03 00:00:00,110,108,100,104,900
bad-time,1,1,1,1,1
2024-01-04 00:00:00,104,109,101,107,800
2024-01-04 00:00:00,104,109,101,107,800
2024-01-05 00:00:00,107,112,106,111
`

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestCSVProvider_SkipsInvalidRows(t *testing.T) {
	p := NewCSVProvider().WithLogger(logger.Discard())

	bars, err := p.read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// high < open on 01-03, bad timestamp, and the short row are dropped; the duplicate survives parsing
	require.Len(t, bars, 4)
	assert.Equal(t, 105.0, bars[0].Close)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), bars[2].Timestamp)
}

func TestCSVProvider_MissingFile(t *testing.T) {
	_, err := NewCSVProvider().LoadData(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestParseTimestamp_Epochs(t *testing.T) {
	ts, err := parseTimestamp("1704067200000", DefaultCSVFormat.DateFormat, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ts)

	ts, err = parseTimestamp("1704067200", DefaultCSVFormat.DateFormat, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ts)
}

func TestCSVStorage_UpbitFormatReadsKST(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "upbit.csv", `candle_date_time_kst,opening_price,high_price,low_price,trade_price,candle_acc_trade_volume
2024-01-01T09:00:00,100,110,95,105,1000
2024-01-02T09:00:00,105,115,100,110,1200
`)
	format, err := CSVFormatByName("upbit")
	require.NoError(t, err)

	bars, err := NewCSVStorage(path, logger.Discard()).WithFormat(format).
		LoadMarketData(context.Background(), "KRW-BTC", "1d", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, time.UTC, bars[0].Timestamp.Location())
}

func TestCSVFormatByName(t *testing.T) {
	f, err := CSVFormatByName("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCSVFormat.DateFormat, f.DateFormat)

	_, err = CSVFormatByName("binance")
	assert.Error(t, err)
}

func TestValidateData(t *testing.T) {
	p := NewCSVProvider()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Error(t, p.ValidateData(nil))
	assert.NoError(t, p.ValidateData([]types.OHLCV{
		{Timestamp: t0, Open: 1, High: 2, Low: 1, Close: 2},
		{Timestamp: t0.Add(time.Hour), Open: 2, High: 2, Low: 1, Close: 1},
	}))
	assert.Error(t, p.ValidateData([]types.OHLCV{
		{Timestamp: t0, Open: 1, High: 2, Low: 1, Close: 2},
		{Timestamp: t0, Open: 2, High: 2, Low: 1, Close: 1},
	}))
}

func TestNormalizeAndFilter(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.OHLCV{
		{Timestamp: t0.Add(2 * time.Hour), Close: 3},
		{Timestamp: t0, Close: 1},
		{Timestamp: t0.Add(time.Hour), Close: 2},
		{Timestamp: t0, Close: 99},
	}

	norm := Normalize(bars)
	require.Len(t, norm, 3)
	assert.Equal(t, 1.0, norm[0].Close)
	assert.NoError(t, ValidateTimeSequence(norm))
	assert.Error(t, ValidateTimeSequence(bars))

	filtered := FilterByDateRange(norm, t0.Add(time.Hour), time.Time{})
	require.Len(t, filtered, 2)
	assert.Equal(t, 2.0, filtered[0].Close)

	assert.Len(t, FilterByDateRange(norm, time.Time{}, t0), 1)
}

func TestCSVStorage_Root(t *testing.T) {
	root := t.TempDir()
	writeCSV(t, root, filepath.Join("KRW-BTC", "1d", "candles.csv"), sampleCSV)

	s := NewCSVStorageRoot(root, logger.Discard())
	bars, err := s.LoadMarketData(context.Background(), "krw-btc", "1d",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.NoError(t, ValidateTimeSequence(bars))

	_, err = s.LoadMarketData(context.Background(), "KRW-ETH", "1d", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.True(t, bterrors.IsCategory(err, bterrors.ErrorCategoryData))
}

func TestFileLocator_FlatLayout(t *testing.T) {
	root := t.TempDir()
	want := writeCSV(t, root, "KRW-XRP_1h.csv", sampleCSV)

	assert.Equal(t, want, NewDefaultFileLocator().FindDataFile(root, "KRW-XRP", "1h"))
	assert.Equal(t, "", NewDefaultFileLocator().FindDataFile(root, "KRW-XRP", "4h"))
}

func TestCachedProvider(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "a.csv", sampleCSV)
	p := NewCachedProvider(NewCSVProvider().WithLogger(logger.Discard()), logger.Discard())

	first, err := p.LoadData(path)
	require.NoError(t, err)
	first[0].Close = -1

	second, err := p.LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, 105.0, second[0].Close)
	assert.Equal(t, 1, p.GetCacheSize())
}

func TestMemoryStorage(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStorage()
	m.Put("KRW-BTC", "1h", []types.OHLCV{{Timestamp: t0, Close: 1}, {Timestamp: t0.Add(time.Hour), Close: 2}})

	bars, err := m.LoadMarketData(context.Background(), "KRW-BTC", "1h", time.Time{}, t0)
	require.NoError(t, err)
	assert.Len(t, bars, 1)

	_, err = m.LoadMarketData(context.Background(), "KRW-BTC", "1d", time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	root := t.TempDir()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.OHLCV{
		{Timestamp: start, Open: 100, High: 110, Low: 95, Close: 105.5, Volume: 12.25},
		{Timestamp: start.Add(time.Hour), Open: 105.5, High: 111, Low: 104, Close: 110, Volume: 3},
	}
	path := DataFilePath(root, "KRW-BTC", "1h")
	require.NoError(t, WriteCSV(path, bars))

	assert.Equal(t, path, NewDefaultFileLocator().FindDataFile(root, "krw-btc", "1h"))
	got, err := NewCSVProvider().LoadData(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[1].Timestamp.Equal(bars[1].Timestamp))
	assert.Equal(t, 105.5, got[0].Close)
	assert.Equal(t, 12.25, got[0].Volume)
}
