// Package monitoring provides Prometheus metrics, OpenTelemetry tracing
// and dependency health checks
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
	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

const namespace = "evolver"

// MetricsCollector handles Prometheus metrics collection. It owns its
// registry so several collectors can coexist in one process.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Orchestrator metrics
	generationRequestsTotal   *prometheus.CounterVec
	generationRequestDuration *prometheus.HistogramVec
	enrichmentRequestsTotal   *prometheus.CounterVec
	persistenceOpsTotal       *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		generationRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_requests_total",
				Help:      "Generation backend calls by outcome",
			},
			[]string{"backend", "operation", "status"},
		),
		generationRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_request_duration_seconds",
				Help:      "Generation backend latency in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 90},
			},
			[]string{"backend", "operation"},
		),
		enrichmentRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrichment_requests_total",
				Help:      "Image and safety enrichment requests by outcome",
			},
			[]string{"kind", "outcome"},
		),
		persistenceOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_operations_total",
				Help:      "Notebook persistence operations by outcome",
			},
			[]string{"operation", "status"},
		),
	}
}

// HTTPMiddleware records request count and latency per matched route
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// GenerationRequest records one backend call
func (m *MetricsCollector) GenerationRequest(backend, operation, status string, duration time.Duration) {
	m.generationRequestsTotal.WithLabelValues(backend, operation, status).Inc()
	m.generationRequestDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// EnrichmentRequest records one enrichment request
func (m *MetricsCollector) EnrichmentRequest(kind, outcome string) {
	m.enrichmentRequestsTotal.WithLabelValues(kind, outcome).Inc()
}

// PersistenceOperation records one notebook read or write
func (m *MetricsCollector) PersistenceOperation(operation, status string) {
	m.persistenceOpsTotal.WithLabelValues(operation, status).Inc()
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ outbound.MetricsRecorder = (*MetricsCollector)(nil)
