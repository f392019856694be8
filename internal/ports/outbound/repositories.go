// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/shared"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for an absent key
var ErrKeyNotFound = errors.New("key not found")

// ErrUnsupported is returned by backends that cannot serve a request kind
var ErrUnsupported = errors.New("operation not supported by backend")

// KeyValueStore is the durable storage the notebook is persisted to.
// Values are opaque documents; writes replace the whole value.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// GenerativeBackend is a text and image generation service
type GenerativeBackend interface {
	// Name identifies the backend in logs, metrics and errors
	Name() string

	// GenerateContent returns the raw text of a structured generation
	GenerateContent(ctx context.Context, req generation.RecipeSetRequest) (string, error)

	// GenerateImageContent returns a multi-part response that may carry inline image data
	GenerateImageContent(ctx context.Context, req generation.ImageRequest) (*generation.ContentResponse, error)

	// GenerateArrayContent returns the raw text of a string-array generation
	GenerateArrayContent(ctx context.Context, req generation.SafetyRequest) (string, error)
}

// HealthChecker is implemented by adapters that can probe their dependency
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.DomainEvent) error
}

// MetricsRecorder records orchestrator metrics
type MetricsRecorder interface {
	GenerationRequest(backend, operation, status string, duration time.Duration)
	EnrichmentRequest(kind, outcome string)
	PersistenceOperation(operation, status string)
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) GenerationRequest(string, string, string, time.Duration) {}
func (NopMetrics) EnrichmentRequest(string, string)                        {}
func (NopMetrics) PersistenceOperation(string, string)                     {}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }
