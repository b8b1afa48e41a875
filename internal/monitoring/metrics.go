// Package monitoring exposes Prometheus metrics and health checks for the
// catalog server.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Book operations counted by BookOperation.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDestroy = "destroy"
)

// Operation results.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// MetricsConfig configures the metrics.
type MetricsConfig struct {
	// Namespace prefixes every metric name (default: "knygynas").
	Namespace string

	// Buckets are the request duration histogram buckets.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the metrics. Default: a fresh registry carrying the
	// Go runtime and process collectors.
	Registry *prometheus.Registry
}

// MetricsOption configures the metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the Prometheus metrics for the server.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bookOperations  *prometheus.CounterVec
	booksStored     prometheus.Gauge
	sessionsCreated prometheus.Counter
	fragmentReloads *prometheus.CounterVec
}

// NewMetrics creates and registers the metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "knygynas",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
		config.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		registry: config.Registry,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   config.Buckets,
		}, []string{"route", "method"}),

		bookOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "book_operations_total",
			Help:      "Book mutations by operation and result",
		}, []string{"operation", "result"}),

		booksStored: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "books_stored",
			Help:      "Number of books in the catalog as of the last read or write",
		}),

		sessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions created for visitors without a valid cookie",
		}),

		fragmentReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "fragment_reloads_total",
			Help:      "Fragment hot reloads by result",
		}, []string{"result"}),
	}
}

// Middleware records request counts and durations. It must be mounted on a
// chi router so the matched route pattern is known; unmatched requests are
// labelled "unmatched".
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// BookOperation counts a book mutation.
func (m *Metrics) BookOperation(operation, result string) {
	m.bookOperations.WithLabelValues(operation, result).Inc()
}

// SetBooks records the current catalog size.
func (m *Metrics) SetBooks(n int) {
	m.booksStored.Set(float64(n))
}

// SessionCreated counts a new session.
func (m *Metrics) SessionCreated() {
	m.sessionsCreated.Inc()
}

// FragmentReload counts a hot reload attempt.
func (m *Metrics) FragmentReload(err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.fragmentReloads.WithLabelValues(result).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
