package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/evolver/internal/infrastructure/config"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

func testConfig(t *testing.T, driver string) *config.Config {
	cfg := &config.Config{}
	cfg.Storage = config.StorageConfig{
		Driver: driver,
		Key:    "chefEmCasa_savedRecipes",
		Path:   filepath.Join(t.TempDir(), "data"),
	}
	cfg.Database.LogLevel = "silent"
	return cfg
}

func TestOpen_LocalDrivers(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverFile, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			store, err := Open(ctx, testConfig(t, driver), zaptest.NewLogger(t))
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			// Act
			_, missErr := store.Get(ctx, "notebook")
			setErr := store.Set(ctx, "notebook", []byte(`[]`))
			value, getErr := store.Get(ctx, "notebook")

			// Assert
			assert.ErrorIs(t, missErr, outbound.ErrKeyNotFound)
			require.NoError(t, setErr)
			require.NoError(t, getErr)
			assert.Equal(t, "[]", string(value))
			assert.NoError(t, store.HealthCheck(ctx))
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), testConfig(t, "etcd"), zaptest.NewLogger(t))

	assert.ErrorContains(t, err, "unsupported storage driver")
}
