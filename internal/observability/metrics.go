package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics of the API process.
type Metrics struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	calculationDuration *prometheus.HistogramVec
	calculationRecords  *prometheus.CounterVec
	rejectedRecords     *prometheus.CounterVec
}

// NewMetrics initialises the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kpi_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kpi_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	calcDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kpi_calculation_duration_seconds",
		Help:    "Time spent computing one module result.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"module"})
	calcRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kpi_calculation_records_total",
		Help: "Input records fed into module calculations.",
	}, []string{"module"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kpi_rejected_records_total",
		Help: "Records rejected by validation on dataset upload.",
	}, []string{"module"})
	registry.MustRegister(requests, duration, calcDuration, calcRecords, rejected)
	return &Metrics{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:       requests,
		requestDuration:     duration,
		calculationDuration: calcDuration,
		calculationRecords:  calcRecords,
		rejectedRecords:     rejected,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCalculation records one module computation.
func (m *Metrics) ObserveCalculation(module string, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calculationDuration.WithLabelValues(module).Observe(elapsed.Seconds())
	if records > 0 {
		m.calculationRecords.WithLabelValues(module).Add(float64(records))
	}
}

// AddRejected counts records dropped by upload validation.
func (m *Metrics) AddRejected(module string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rejectedRecords.WithLabelValues(module).Add(float64(count))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
