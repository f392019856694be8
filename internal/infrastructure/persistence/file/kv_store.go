// Package file provides a key-value store that keeps one document per key
// in a directory on local disk
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// KVStore implements outbound.KeyValueStore on the filesystem. Writes go
// to a temp file that is renamed over the target, so readers see either
// the old document or the new one.
type KVStore struct {
	dir    string
	logger *zap.Logger
	mutex  sync.Mutex
}

// NewKVStore creates the directory when missing
func NewKVStore(dir string, logger *zap.Logger) (*KVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	logger.Info("File storage initialized", zap.String("dir", dir))
	return &KVStore{
		dir:    dir,
		logger: logger.Named("file-store"),
	}, nil
}

// Get retrieves the value stored under key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, outbound.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return data, nil
}

// Set replaces the value stored under key
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("failed to replace key %q: %w", key, err)
	}

	s.logger.Debug("Key written", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// HealthCheck verifies the directory is still reachable
func (s *KVStore) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("storage directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", s.dir)
	}
	return nil
}

func (s *KVStore) path(key string) string {
	return filepath.Join(s.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

var (
	_ outbound.KeyValueStore = (*KVStore)(nil)
	_ outbound.HealthChecker = (*KVStore)(nil)
)
