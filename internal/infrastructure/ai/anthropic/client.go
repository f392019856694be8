// Package anthropic provides a Claude-backed generative backend. The API has
// no schema-constrained output mode, so the schema travels in the system
// prompt and the generation client repairs and validates the reply.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// Config configures the client
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
}

// Client implements GenerativeBackend using the Anthropic Messages API
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

// NewClient creates a new Anthropic client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}

	logger.Info("Anthropic client initialized", zap.String("model", cfg.Model))

	return &Client{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
		logger:    logger.Named("anthropic-client"),
	}
}

// Name identifies the backend
func (c *Client) Name() string {
	return "anthropic"
}

// GenerateContent requests a structured variant set
func (c *Client) GenerateContent(ctx context.Context, req generation.RecipeSetRequest) (string, error) {
	system, err := withSchema(req.SystemInstruction, req.Schema)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
}

// GenerateArrayContent requests a flat string array
func (c *Client) GenerateArrayContent(ctx context.Context, req generation.SafetyRequest) (string, error) {
	system, err := withSchema("Respond with JSON only.", req.Schema)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
}

// GenerateImageContent is not available on Anthropic models
func (c *Client) GenerateImageContent(_ context.Context, _ generation.ImageRequest) (*generation.ContentResponse, error) {
	return nil, fmt.Errorf("anthropic image generation: %w", outbound.ErrUnsupported)
}

func (c *Client) complete(ctx context.Context, params anthropic.MessageNewParams) (string, error) {
	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	c.logger.Debug("Anthropic call successful",
		zap.Int64("input_tokens", message.Usage.InputTokens),
		zap.Int64("output_tokens", message.Usage.OutputTokens),
		zap.String("stop_reason", string(message.StopReason)),
	)
	return sb.String(), nil
}

func withSchema(instruction string, schema *generation.Schema) (string, error) {
	if schema == nil {
		return instruction, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return instruction + "\n\nReturn a single JSON document, without markdown, matching this JSON Schema:\n" + string(data), nil
}

var _ outbound.GenerativeBackend = (*Client)(nil)
