package server

import (
	"net/http"

	"github.com/agbru/bigtensor/internal/metrics"
)

// Metrics exposes the Prometheus metrics of the HTTP server.
type Metrics struct {
	recorder *metrics.Recorder
	handler  http.Handler
}

// NewMetrics creates server metrics backed by a fresh recorder.
func NewMetrics() *Metrics {
	return NewMetricsFromRecorder(metrics.NewRecorder())
}

// NewMetricsFromRecorder wraps an existing recorder, typically the one also
// observing the engine.
func NewMetricsFromRecorder(r *metrics.Recorder) *Metrics {
	return &Metrics{recorder: r, handler: r.Handler()}
}

// Recorder returns the underlying recorder.
func (m *Metrics) Recorder() *metrics.Recorder { return m.recorder }

// IncrementActiveRequests increments the in-flight request gauge.
func (m *Metrics) IncrementActiveRequests() { m.recorder.IncActiveRequests() }

// DecrementActiveRequests decrements the in-flight request gauge.
func (m *Metrics) DecrementActiveRequests() { m.recorder.DecActiveRequests() }

// WritePrometheus writes all metrics in the Prometheus text format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware tracks in-flight requests and counts served requests by
// path and status.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(sr, r)
		s.metrics.recorder.ObserveRequest(r.URL.Path, sr.status)
	}
}

// handleMetrics serves the /metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is allowed")
		return
	}
	s.metrics.WritePrometheus(w, r)
}
