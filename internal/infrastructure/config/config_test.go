package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", "app:\n  environment: test\n"))

	require.NoError(t, err)
	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, ProviderMock, cfg.AI.Provider)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "chefEmCasa_savedRecipes", cfg.Storage.Key)
	assert.Equal(t, 90*time.Second, cfg.Enrichment.Timeout)
	assert.Equal(t, 0.8, cfg.AI.Temperature)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("EVOLVER_AI_PROVIDER", "openai")
	t.Setenv("EVOLVER_AI_OPENAI_KEY", "sk-test")
	t.Setenv("EVOLVER_STORAGE_DRIVER", "memory")
	t.Setenv("EVOLVER_ENRICHMENT_TIMEOUT", "5s")

	cfg, err := Load(writeFile(t, "config.yaml", "server:\n  port: 9000\n"))

	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.AI.OpenAIKey)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.Enrichment.Timeout)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:       AppConfig{Name: "evolver"},
			Server:    ServerConfig{Port: 8080},
			AI:        AIConfig{Provider: ProviderMock},
			Storage:   StorageConfig{Driver: DriverMemory, Key: "k"},
			RateLimit: RateLimitConfig{Enable: true, RequestsPerMin: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "openai without key", mutate: func(c *Config) { c.AI.Provider = ProviderOpenAI }, wantErr: "ai.openai_key"},
		{name: "anthropic without key", mutate: func(c *Config) { c.AI.Provider = ProviderAnthropic }, wantErr: "ai.anthropic_key"},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "gemini" }, wantErr: "ai.provider"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "s3" }, wantErr: "storage.driver"},
		{name: "file without path", mutate: func(c *Config) { c.Storage.Driver = DriverFile }, wantErr: "storage.path"},
		{name: "missing key", mutate: func(c *Config) { c.Storage.Key = "" }, wantErr: "storage.key"},
		{name: "negative timeout", mutate: func(c *Config) { c.Enrichment.Timeout = -time.Second }, wantErr: "enrichment.timeout"},
		{name: "zero rate", mutate: func(c *Config) { c.RateLimit.RequestsPerMin = 0 }, wantErr: "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	path := writeFile(t, ".env", "EVOLVER_TEST_SECRET=from-file\n")
	t.Setenv("EVOLVER_TEST_SECRET", "")
	os.Unsetenv("EVOLVER_TEST_SECRET")

	require.NoError(t, LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "from-file", os.Getenv("EVOLVER_TEST_SECRET"))
}

func TestRedacted(t *testing.T) {
	cfg := Config{AI: AIConfig{OpenAIKey: "sk-live", AnthropicKey: ""}}

	red := cfg.Redacted()

	assert.Equal(t, "****", red.AI.OpenAIKey)
	assert.Empty(t, red.AI.AnthropicKey)
	assert.Equal(t, "sk-live", cfg.AI.OpenAIKey)
}
