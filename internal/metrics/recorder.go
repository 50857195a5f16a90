package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/agbru/bigtensor/internal/errors"
)

const namespace = "bigtensor"

// Recorder holds the Prometheus metrics of one process. Each Recorder owns its
// registry, so several can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry

	opsTotal       *prometheus.CounterVec
	opElements     *prometheus.CounterVec
	opDuration     *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	activeRequests prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
}

// NewRecorder creates a recorder with the Go runtime and process collectors
// registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		opsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ops_total",
			Help:      "Array operations by name and outcome",
		}, []string{"op", "status"}),
		opElements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "op_elements_total",
			Help:      "Output elements produced by array operations",
		}, []string{"op"}),
		opDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "op_duration_seconds",
			Help:      "Array operation duration",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
		}, []string{"op"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed operations by error kind",
		}, []string{"kind"}),
		activeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help:      "HTTP requests currently being served",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests by path and status code",
		}, []string{"path", "code"}),
	}
}

// ObserveOp records one engine operation. It implements tensor.Observer.
func (r *Recorder) ObserveOp(op string, elements int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		r.errorsTotal.WithLabelValues(apperrors.Kind(err)).Inc()
	}
	r.opsTotal.WithLabelValues(op, status).Inc()
	if elements > 0 {
		r.opElements.WithLabelValues(op).Add(float64(elements))
	}
	r.opDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncActiveRequests increments the in-flight request gauge.
func (r *Recorder) IncActiveRequests() { r.activeRequests.Inc() }

// DecActiveRequests decrements the in-flight request gauge.
func (r *Recorder) DecActiveRequests() { r.activeRequests.Dec() }

// ObserveRequest counts a served HTTP request.
func (r *Recorder) ObserveRequest(path string, code int) {
	r.requestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
