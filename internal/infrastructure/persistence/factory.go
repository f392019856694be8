// Package persistence selects the key-value store the notebook is kept in
package persistence

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/infrastructure/config"
	"github.com/alchemorsel/evolver/internal/infrastructure/persistence/file"
	gormstore "github.com/alchemorsel/evolver/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/evolver/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/evolver/internal/infrastructure/persistence/postgres"
	redisstore "github.com/alchemorsel/evolver/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/evolver/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// SQLiteFileName is the database file created under storage.path
const SQLiteFileName = "evolver.db"

// Store is an opened key-value store and the function that releases it
type Store struct {
	outbound.KeyValueStore
	Close func() error
}

// Open builds the store named by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	noop := func() error { return nil }

	logger.Info("Opening notebook storage",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("key", cfg.Storage.Key))

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return &Store{KeyValueStore: memory.NewKVStore(), Close: noop}, nil

	case config.DriverFile:
		kv, err := file.NewKVStore(cfg.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
		return &Store{KeyValueStore: kv, Close: noop}, nil

	case config.DriverSQLite:
		db, err := sqlite.SetupDatabase(filepath.Join(cfg.Storage.Path, SQLiteFileName), cfg.Database.LogLevel)
		if err != nil {
			return nil, err
		}
		closer := func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return &Store{KeyValueStore: gormstore.NewKVStore(db, logger), Close: closer}, nil

	case config.DriverPostgres:
		cm, err := postgres.NewConnectionManager(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return &Store{KeyValueStore: gormstore.NewKVStore(cm.DB(), logger), Close: cm.Close}, nil

	case config.DriverRedis:
		client, err := redisstore.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		kv := redisstore.NewKVStore(client, cfg.Redis.KeyPrefix, logger)
		return &Store{KeyValueStore: kv, Close: kv.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// HealthCheck probes the store when it supports probing
func (s *Store) HealthCheck(ctx context.Context) error {
	if hc, ok := s.KeyValueStore.(outbound.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
