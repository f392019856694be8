package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// KVStore implements outbound.KeyValueStore on a single GORM table
type KVStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewKVStore creates a new GORM-backed key-value store. The kv_entries
// table must already exist.
func NewKVStore(db *gorm.DB, logger *zap.Logger) *KVStore {
	return &KVStore{
		db:     db,
		logger: logger.Named("kv-store"),
	}
}

// Get retrieves the value stored under key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntryModel
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return entry.Value, nil
}

// Set replaces the value stored under key, inserting it when absent
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now().UTC()
	entry := KVEntryModel{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		s.logger.Error("Failed to write key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	s.logger.Debug("Key written", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// HealthCheck pings the underlying connection
func (s *KVStore) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

var (
	_ outbound.KeyValueStore = (*KVStore)(nil)
	_ outbound.HealthChecker = (*KVStore)(nil)
)
