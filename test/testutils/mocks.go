// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/shared"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// MockBackend provides a mock implementation of GenerativeBackend
type MockBackend struct {
	mock.Mock
}

// Name returns a fixed backend name
func (m *MockBackend) Name() string {
	return "mock"
}

// GenerateContent mocks a structured generation
func (m *MockBackend) GenerateContent(ctx context.Context, req generation.RecipeSetRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// GenerateImageContent mocks an image generation
func (m *MockBackend) GenerateImageContent(ctx context.Context, req generation.ImageRequest) (*generation.ContentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.ContentResponse), args.Error(1)
}

// GenerateArrayContent mocks a string-array generation
func (m *MockBackend) GenerateArrayContent(ctx context.Context, req generation.SafetyRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockKeyValueStore provides a mock implementation of KeyValueStore
type MockKeyValueStore struct {
	mock.Mock
}

// Get mocks a read
func (m *MockKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Set mocks a write
func (m *MockKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// RecordingPublisher keeps every published event
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Publish records events
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Names returns the event names in publish order
func (p *RecordingPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.events))
	for i, e := range p.events {
		names[i] = e.EventName()
	}
	return names
}

var (
	_ outbound.GenerativeBackend = (*MockBackend)(nil)
	_ outbound.KeyValueStore     = (*MockKeyValueStore)(nil)
	_ outbound.EventPublisher    = (*RecordingPublisher)(nil)
)
