package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Total number of completed backtest runs",
		},
		[]string{"strategy", "symbol"},
	)

	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_trades_total",
			Help: "Total number of simulated fills",
		},
		[]string{"symbol", "side"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Wall-clock duration of backtest runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	persistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_persistence_failures_total",
			Help: "Total number of failed result store operations",
		},
		[]string{"store", "operation"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(persistenceFailures)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordRun records a completed backtest run
func RecordRun(strategy, symbol string, elapsed time.Duration) {
	runsTotal.WithLabelValues(strategy, symbol).Inc()
	runDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// RecordFill records a simulated buy or sell fill
func RecordFill(symbol, side string) {
	tradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordPersistenceFailure records a failed write, read or delete against a result store
func RecordPersistenceFailure(store, operation string) {
	persistenceFailures.WithLabelValues(store, operation).Inc()
}
