package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type probe func(ctx context.Context) error

func (p probe) HealthCheck(ctx context.Context) error { return p(ctx) }

func TestHealthCheckManager_CheckAll(t *testing.T) {
	// Arrange
	h := NewHealthCheckManager(time.Second, zaptest.NewLogger(t))
	h.RegisterCheck("storage", probe(func(context.Context) error { return nil }))
	h.RegisterCheck("backend", probe(func(context.Context) error { return errors.New("connection refused") }))

	// Act
	results := h.CheckAll(context.Background())

	// Assert
	require.Len(t, results, 2)
	assert.Equal(t, "backend", results[0].Name)
	assert.Equal(t, StatusUnhealthy, results[0].Status)
	assert.Equal(t, "connection refused", results[0].Message)
	assert.Equal(t, "storage", results[1].Name)
	assert.Equal(t, StatusHealthy, results[1].Status)
	assert.False(t, Healthy(results))
}

func TestHealthCheckManager_TimesOutSlowProbe(t *testing.T) {
	h := NewHealthCheckManager(20*time.Millisecond, zaptest.NewLogger(t))
	h.RegisterCheck("slow", probe(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	result, err := h.Check(context.Background(), "slow")

	require.NoError(t, err)
	assert.Equal(t, StatusUnhealthy, result.Status)
}

func TestHealthCheckManager_UnknownCheck(t *testing.T) {
	h := NewHealthCheckManager(0, zaptest.NewLogger(t))

	_, err := h.Check(context.Background(), "missing")

	assert.Error(t, err)
	assert.True(t, Healthy(nil))
}

func TestTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(TracingConfig{Enabled: false}, zaptest.NewLogger(t))

	require.NoError(t, err)
	assert.False(t, tp.Enabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
