package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/infrastructure/monitoring"
)

// HealthHandlers reports dependency health
type HealthHandlers struct {
	checks  *monitoring.HealthCheckManager
	version string
	logger  *zap.Logger
}

// NewHealthHandlers creates the health handlers
func NewHealthHandlers(checks *monitoring.HealthCheckManager, version string, logger *zap.Logger) *HealthHandlers {
	return &HealthHandlers{checks: checks, version: version, logger: logger}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Timestamp int64                    `json:"timestamp"`
	Checks    []monitoring.HealthCheck `json:"checks"`
}

// HealthCheck handles GET /health
func (h *HealthHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	results := h.checks.CheckAll(r.Context())

	status, code := monitoring.StatusHealthy, http.StatusOK
	if !monitoring.Healthy(results) {
		status, code = monitoring.StatusUnhealthy, http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, code, APIResponse{
		Success: code == http.StatusOK,
		Data: HealthResponse{
			Status:    status,
			Version:   h.version,
			Timestamp: time.Now().Unix(),
			Checks:    results,
		},
	})
}
