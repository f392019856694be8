// Package openai provides an OpenAI-compatible generative backend: chat
// completions with JSON schema output and the images endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// Config configures the client
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	MaxTokens  int
	Timeout    time.Duration
}

// Client implements GenerativeBackend against an OpenAI-compatible API
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a new OpenAI client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	logger.Info("OpenAI client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.String("image_model", cfg.ImageModel),
	)

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("openai-client"),
	}
}

// OpenAI API structures
type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string             `json:"name"`
	Schema *generation.Schema `json:"schema"`
	Strict bool               `json:"strict"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Name identifies the backend
func (c *Client) Name() string {
	return "openai"
}

// GenerateContent requests a structured variant set
func (c *Client) GenerateContent(ctx context.Context, req generation.RecipeSetRequest) (string, error) {
	temperature := req.Temperature
	return c.chat(ctx, chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: req.SystemInstruction},
			{Role: "user", Content: req.Prompt},
		},
		Temperature:    &temperature,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: schemaFormat("recipe_set", req.Schema),
	})
}

// GenerateArrayContent requests a flat string array. The API only accepts
// object roots, so the array is wrapped in a single-field object.
func (c *Client) GenerateArrayContent(ctx context.Context, req generation.SafetyRequest) (string, error) {
	var format *responseFormat
	if req.Schema != nil {
		format = schemaFormat("safety_tips", &generation.Schema{
			Type:       generation.TypeObject,
			Properties: map[string]*generation.Schema{"tips": req.Schema},
			Required:   []string{"tips"},
		})
	}
	return c.chat(ctx, chatCompletionRequest{
		Model:          c.cfg.Model,
		Messages:       []message{{Role: "user", Content: req.Prompt}},
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: format,
	})
}

// GenerateImageContent renders one image and returns it as inline data
func (c *Client) GenerateImageContent(ctx context.Context, req generation.ImageRequest) (*generation.ContentResponse, error) {
	body := imageRequest{
		Model:  c.cfg.ImageModel,
		Prompt: req.Prompt,
		N:      1,
		Size:   sizeFor(req.AspectRatio),
	}
	if strings.HasPrefix(c.cfg.ImageModel, "dall-e") {
		body.ResponseFormat = "b64_json"
	}

	var resp imageResponse
	if err := c.post(ctx, "/images/generations", body, &resp); err != nil {
		return nil, err
	}

	out := &generation.ContentResponse{}
	if len(resp.Data) == 0 {
		return out, nil
	}
	var parts []generation.Part
	if resp.Data[0].RevisedPrompt != "" {
		parts = append(parts, generation.Part{Text: resp.Data[0].RevisedPrompt})
	}
	if resp.Data[0].B64JSON != "" {
		parts = append(parts, generation.Part{InlineData: &generation.InlineData{
			MIMEType: "image/png",
			Data:     resp.Data[0].B64JSON,
		}})
	}
	out.Candidates = []generation.Candidate{{Parts: parts}}
	return out, nil
}

// HealthCheck lists models to verify credentials and reachability
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai health check failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) chat(ctx context.Context, body chatCompletionRequest) (string, error) {
	var resp chatCompletionResponse
	if err := c.post(ctx, "/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	c.logger.Debug("OpenAI API call successful",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", resp.Choices[0].FinishReason),
	)
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("API error %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func schemaFormat(name string, schema *generation.Schema) *responseFormat {
	if schema == nil {
		return &responseFormat{Type: "json_object"}
	}
	return &responseFormat{
		Type:       "json_schema",
		JSONSchema: &jsonSchema{Name: name, Schema: schema},
	}
}

// sizeFor maps an aspect ratio onto the closest supported size
func sizeFor(aspectRatio string) string {
	switch aspectRatio {
	case "4:3", "3:2", "16:9":
		return "1536x1024"
	case "3:4", "2:3", "9:16":
		return "1024x1536"
	default:
		return "1024x1024"
	}
}

var (
	_ outbound.GenerativeBackend = (*Client)(nil)
	_ outbound.HealthChecker     = (*Client)(nil)
)
