package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/ducminhle1904/upbit-backtester/internal/indicators"
	"github.com/ducminhle1904/upbit-backtester/internal/logger"
	"github.com/ducminhle1904/upbit-backtester/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateFrame(closes ...float64) *types.Frame {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = types.OHLCV{Timestamp: t0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return types.NewFrame(bars)
}

func withIndicators(s Strategy, f *types.Frame) *types.Frame {
	return indicators.NewProcessor(logger.Discard()).CalculateIndicators(f, s.RequiredIndicators())
}

func TestSMACross_Signals(t *testing.T) {
	s, err := NewSMACross(2, 3)
	require.NoError(t, err)

	// down, then up, then down again
	frame := withIndicators(s, generateFrame(10, 9, 8, 7, 9, 12, 14, 10, 6, 4))
	signals, err := s.GenerateSignals(frame)
	require.NoError(t, err)
	require.Len(t, signals, frame.Len())

	buys, sells, _ := types.CountSignals(signals)
	assert.Equal(t, 1, buys)
	assert.Equal(t, 1, sells)
	assert.Equal(t, types.SignalBuy, signals[5])
	assert.Equal(t, types.SignalSell, signals[8])
}

func TestSMACross_MissingColumns(t *testing.T) {
	s, err := NewSMACross(2, 3)
	require.NoError(t, err)
	_, err = s.GenerateSignals(generateFrame(1, 2, 3))
	assert.Error(t, err)
}

func TestRSIReversion_Signals(t *testing.T) {
	s, err := NewRSIReversion(2, 30, 70)
	require.NoError(t, err)

	frame := generateFrame(1, 2, 3, 4)
	frame.SetColumn("RSI_2", []float64{math.NaN(), 20, 50, 80})
	signals, err := s.GenerateSignals(frame)
	require.NoError(t, err)
	assert.Equal(t, []types.Signal{types.SignalHold, types.SignalBuy, types.SignalHold, types.SignalSell}, signals)
}

func TestCreateStrategy(t *testing.T) {
	s, err := CreateStrategy("sma_cross", map[string]float64{"fast": 5, "slow": 20})
	require.NoError(t, err)
	assert.Equal(t, "sma_cross_5_20", s.GetName())
	assert.Len(t, s.RequiredIndicators(), 2)

	s, err = CreateStrategy("RSI", nil)
	require.NoError(t, err)
	assert.Equal(t, "rsi_14", s.GetName())

	_, err = CreateStrategy("sma_cross", map[string]float64{"fast": 30, "slow": 10})
	assert.Error(t, err)

	_, err = CreateStrategy("martingale", nil)
	assert.Error(t, err)
}

func TestCreateStrategy_MergesDefaults(t *testing.T) {
	s, err := CreateStrategy("sma_cross", map[string]float64{"fast": 5})
	require.NoError(t, err)
	assert.Equal(t, "sma_cross_5_30", s.GetName())

	s, err = CreateStrategy("rsi", map[string]float64{"window": 7})
	require.NoError(t, err)
	assert.Equal(t, "rsi_7", s.GetName())

	_, err = CreateStrategy("sma_cross", map[string]float64{"fsat": 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fast=10,slow=30")
}

func TestFormatParameters(t *testing.T) {
	assert.Equal(t, "overbought=70,oversold=30,window=14", FormatParameters(GetDefaultParameters("rsi")))
	assert.Equal(t, "", FormatParameters(nil))
}

func TestStatic_LengthMismatch(t *testing.T) {
	s := NewStatic("fixed", []types.Signal{types.SignalBuy})
	_, err := s.GenerateSignals(generateFrame(1, 2))
	assert.Error(t, err)

	out, err := s.GenerateSignals(generateFrame(1))
	require.NoError(t, err)
	assert.Equal(t, []types.Signal{types.SignalBuy}, out)
}
