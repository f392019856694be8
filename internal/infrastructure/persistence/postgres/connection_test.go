package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm/logger"

	"github.com/alchemorsel/evolver/internal/infrastructure/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Port:     5432,
		Database: "evolver",
		Username: "chef",
		Password: "secret",
	}

	dsn := DSN(cfg, "replica-1")

	assert.Equal(t, "host=replica-1 port=5432 user=chef password=secret dbname=evolver sslmode=disable", dsn)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, parseLogLevel("debug"))
	assert.Equal(t, logger.Warn, parseLogLevel("WARN"))
	assert.Equal(t, logger.Error, parseLogLevel("error"))
	assert.Equal(t, logger.Silent, parseLogLevel(""))
}

func TestGORMLogWriter_RoutesByContent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := &GORMLogWriter{logger: zap.New(core)}

	w.Printf("%s [%.3fms] SLOW SQL >= %v", "file.go:10", 250.0, "200ms")
	w.Printf("%s %s", "file.go:11", "Error: relation does not exist")
	w.Printf("%s", "select 1")

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
		assert.Equal(t, zap.DebugLevel, entries[2].Level)
	}
}
