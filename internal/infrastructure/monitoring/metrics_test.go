package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMetricsCollector_RecordsOrchestratorMetrics(t *testing.T) {
	m := NewMetricsCollector(zaptest.NewLogger(t))

	m.GenerationRequest("mock", "variants", "success", 1500*time.Millisecond)
	m.GenerationRequest("mock", "variants", "success", time.Second)
	m.EnrichmentRequest("image", "cached")
	m.PersistenceOperation("save", "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generationRequestsTotal.WithLabelValues("mock", "variants", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrichmentRequestsTotal.WithLabelValues("image", "cached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistenceOpsTotal.WithLabelValues("save", "error")))
}

func TestMetricsCollector_CollectorsAreIndependent(t *testing.T) {
	a := NewMetricsCollector(zaptest.NewLogger(t))
	b := NewMetricsCollector(zaptest.NewLogger(t))

	a.EnrichmentRequest("safety", "success")

	assert.Equal(t, 0.0, testutil.ToFloat64(b.enrichmentRequestsTotal.WithLabelValues("safety", "success")))
}

func TestHTTPMiddleware_LabelsByRoutePattern(t *testing.T) {
	// Arrange
	m := NewMetricsCollector(zaptest.NewLogger(t))
	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/api/v1/recipes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	// Act
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/recipes/abc", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/recipes/{id}", "404")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "evolver_http_requests_total"))
}
