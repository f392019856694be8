// Package ai selects and constructs the configured generative backend
package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/infrastructure/ai/anthropic"
	"github.com/alchemorsel/evolver/internal/infrastructure/ai/mock"
	"github.com/alchemorsel/evolver/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/evolver/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/evolver/internal/infrastructure/config"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// NewBackend builds the backend named by cfg.Provider
func NewBackend(cfg config.AIConfig, logger *zap.Logger) (outbound.GenerativeBackend, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			ImageModel: cfg.ImageModel,
			MaxTokens:  cfg.MaxTokens,
			Timeout:    cfg.Timeout,
		}, logger), nil
	case config.ProviderOllama:
		return ollama.NewClient(ollama.Config{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.Timeout,
		}, logger), nil
	case config.ProviderAnthropic:
		return anthropic.NewClient(anthropic.Config{
			APIKey:    cfg.AnthropicKey,
			Model:     cfg.AnthropicModel,
			MaxTokens: cfg.MaxTokens,
		}, logger), nil
	case config.ProviderMock, "":
		logger.Info("Using offline mock backend")
		return mock.NewBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}

// HealthStatus is the reachability of the configured backend
type HealthStatus struct {
	Provider  string    `json:"provider"`
	Healthy   bool      `json:"healthy"`
	Details   string    `json:"details,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

// CheckHealth probes backend when it supports health checks. Backends that
// do not are reported healthy.
func CheckHealth(ctx context.Context, backend outbound.GenerativeBackend) HealthStatus {
	status := HealthStatus{Provider: backend.Name(), Healthy: true, LastCheck: time.Now()}
	checker, ok := backend.(outbound.HealthChecker)
	if !ok {
		return status
	}
	if err := checker.HealthCheck(ctx); err != nil {
		status.Healthy = false
		status.Details = err.Error()
	}
	return status
}
