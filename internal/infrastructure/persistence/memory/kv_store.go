// Package memory provides an in-memory key-value store
package memory

import (
	"context"
	"sync"

	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// KVStore implements outbound.KeyValueStore in process memory. Nothing
// survives a restart; it backs tests and the ephemeral storage driver.
type KVStore struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

// NewKVStore creates a new in-memory key-value store
func NewKVStore() *KVStore {
	return &KVStore{
		data: make(map[string][]byte),
	}
}

// Get retrieves a copy of the value stored under key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, outbound.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set replaces the value stored under key
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// HealthCheck always succeeds
func (s *KVStore) HealthCheck(ctx context.Context) error {
	return nil
}

var _ outbound.KeyValueStore = (*KVStore)(nil)
