package obs

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks application metrics using atomic counters.
type Metrics struct {
	requests       atomic.Int64
	badRequests    atomic.Int64
	providerErrors atomic.Int64
	logger         *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requests.Add(1)
}

// IncBadRequests increments the counter of searches answered with 400.
func (m *Metrics) IncBadRequests() {
	m.badRequests.Add(1)
}

// IncProviderErrors increments the provider errors counter.
func (m *Metrics) IncProviderErrors() {
	m.providerErrors.Add(1)
}

// Snapshot returns current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Requests:       m.requests.Load(),
		BadRequests:    m.badRequests.Load(),
		ProviderErrors: m.providerErrors.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Requests       int64
	BadRequests    int64
	ProviderErrors int64
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}

// MetricsHandler returns a handler for /metrics requests in Prometheus format.
func (m *Metrics) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := m.Snapshot()

		counters := []struct {
			name  string
			help  string
			value int64
		}{
			{"requests_total", "Total number of search requests", snapshot.Requests},
			{"bad_requests_total", "Total number of searches answered with 400", snapshot.BadRequests},
			{"provider_errors_total", "Total number of provider errors", snapshot.ProviderErrors},
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)

		for _, c := range counters {
			if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", c.name, c.help, c.name, c.name, c.value); err != nil {
				m.logger.Error("failed to write metrics", "error", err)
				return
			}
		}
	}
}
