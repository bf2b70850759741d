package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue reads a counter sample from the default registry
func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRecordFill(t *testing.T) {
	labels := map[string]string{"symbol": "KRW-TEST", "side": "buy"}
	before := counterValue(t, "backtest_trades_total", labels)

	RecordFill("KRW-TEST", "buy")
	RecordFill("KRW-TEST", "buy")

	assert.Equal(t, before+2, counterValue(t, "backtest_trades_total", labels))
}

func TestRecordPersistenceFailure(t *testing.T) {
	labels := map[string]string{"store": "sqlite", "operation": "save"}
	before := counterValue(t, "backtest_persistence_failures_total", labels)

	RecordPersistenceFailure("sqlite", "save")

	assert.Equal(t, before+1, counterValue(t, "backtest_persistence_failures_total", labels))
}

func TestMetricsHandler_ServesRegisteredMetrics(t *testing.T) {
	RecordRun("sma_cross", "KRW-TEST", 150*time.Millisecond)

	rec := httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "backtest_runs_total")
	assert.Contains(t, rec.Body.String(), "backtest_run_duration_seconds")
}

func TestHealthChecker(t *testing.T) {
	h := NewHealthChecker()
	h.RunStarted("KRW-BTC")
	assert.Equal(t, []string{"KRW-BTC"}, h.Status().Running)

	h.RunFinished("KRW-BTC", errors.New("no data"))
	st := h.Status()
	assert.Empty(t, st.Running)
	assert.Equal(t, "degraded", st.Status)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, "KRW-BTC: no data", st.LastError)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	time.Sleep(time.Millisecond)
	h.RunStarted("KRW-BTC")
	h.RunFinished("KRW-BTC", nil)
	assert.Equal(t, "healthy", h.Status().Status)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"completed":1`)
}
