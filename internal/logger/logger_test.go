package logger

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info("loaded %d bars", 10)
	l.Warning("skipping %s", "VWAP")
	l.Trade("BUY %.2f", 100.0)
	l.LogError("save", errors.New("disk full"))

	out := buf.String()
	assert.Contains(t, out, "[INFO] loaded 10 bars")
	assert.Contains(t, out, "[WARN] skipping VWAP")
	assert.Contains(t, out, "[TRADE] BUY 100.00")
	assert.Contains(t, out, "[ERROR] save: disk full")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestLogger_OrDefault(t *testing.T) {
	assert.Same(t, Default(), OrDefault(nil))

	l := Discard()
	assert.Same(t, l, OrDefault(l))
}

func TestNewFileLogger(t *testing.T) {
	dir := t.TempDir()

	l, err := NewFileLogger(dir, "KRW-BTC", "1h")
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	data, err := os.ReadFile(l.GetLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "BACKTEST SESSION STARTED")
	assert.Contains(t, string(data), "Symbol: KRW-BTC | Interval: 1h")
	assert.Contains(t, string(data), "[INFO] hello")
	assert.Contains(t, string(data), "BACKTEST SESSION ENDED")
}
