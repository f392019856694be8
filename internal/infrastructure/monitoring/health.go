package monitoring

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// Health statuses
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthCheck represents a health check result
type HealthCheck struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// HealthCheckManager runs the registered dependency probes
type HealthCheckManager struct {
	mu      sync.RWMutex
	checks  map[string]outbound.HealthChecker
	timeout time.Duration
	logger  *zap.Logger
}

// NewHealthCheckManager creates a new health check manager
func NewHealthCheckManager(timeout time.Duration, logger *zap.Logger) *HealthCheckManager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthCheckManager{
		checks:  make(map[string]outbound.HealthChecker),
		timeout: timeout,
		logger:  logger.Named("health"),
	}
}

// RegisterCheck registers a health check
func (h *HealthCheckManager) RegisterCheck(name string, checker outbound.HealthChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.checks[name] = checker
	h.logger.Info("Health check registered", zap.String("name", name))
}

// CheckAll runs every registered check concurrently, ordered by name
func (h *HealthCheckManager) CheckAll(ctx context.Context) []HealthCheck {
	ctx, span := otel.Tracer("evolver/health").Start(ctx, "health.check_all")
	defer span.End()

	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	results := make([]HealthCheck, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i], _ = h.Check(ctx, name)
		}(i, name)
	}
	wg.Wait()
	return results
}

// Check runs a specific health check
func (h *HealthCheckManager) Check(ctx context.Context, name string) (HealthCheck, error) {
	h.mu.RLock()
	checker, exists := h.checks[name]
	h.mu.RUnlock()
	if !exists {
		return HealthCheck{}, fmt.Errorf("health check '%s' not found", name)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := checker.HealthCheck(ctx)
	result := HealthCheck{
		Name:      name,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
		h.logger.Warn("Health check failed",
			zap.String("check", name),
			zap.Duration("duration", result.Duration),
			zap.Error(err))
	}
	return result, nil
}

// Healthy reports whether every result passed
func Healthy(results []HealthCheck) bool {
	for _, r := range results {
		if r.Status != StatusHealthy {
			return false
		}
	}
	return true
}
