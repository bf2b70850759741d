package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var (
	startTime     = time.Now()
	defaultHealth = NewHealthChecker()
)

// HealthChecker tracks the backtests run by this process
type HealthChecker struct {
	mu          sync.RWMutex
	running     map[string]int
	completed   int
	failed      int
	lastRun     time.Time
	lastError   string
	lastErrorAt time.Time
}

// HealthStatus is the JSON body served by HealthChecker
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Running   []string  `json:"running"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
	Uptime    string    `json:"uptime"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{running: make(map[string]int)}
}

// DefaultHealthChecker is updated by every backtest runner
func DefaultHealthChecker() *HealthChecker {
	return defaultHealth
}

// RunStarted marks a run on symbol as in flight
func (h *HealthChecker) RunStarted(symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running[symbol]++
}

// RunFinished clears the in-flight mark and records the outcome
func (h *HealthChecker) RunFinished(symbol string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running[symbol] <= 1 {
		delete(h.running, symbol)
	} else {
		h.running[symbol]--
	}
	now := time.Now()
	if err != nil {
		h.failed++
		h.lastError = symbol + ": " + err.Error()
		h.lastErrorAt = now
		return
	}
	h.completed++
	h.lastRun = now
}

// Status returns a snapshot. The status is degraded while the most recent
// outcome is a failure.
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	running := make([]string, 0, len(h.running))
	for symbol := range h.running {
		running = append(running, symbol)
	}
	status := "healthy"
	if h.lastError != "" && h.lastErrorAt.After(h.lastRun) {
		status = "degraded"
	}
	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Running:   running,
		Completed: h.completed,
		Failed:    h.failed,
		LastRun:   h.lastRun,
		LastError: h.lastError,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()
	w.Header().Set("Content-Type", "application/json")
	if health.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}
