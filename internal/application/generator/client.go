// Package generator adapts a generative backend to the recipe contract.
// It validates everything that comes back and maps failures onto the
// orchestrator's error taxonomy. It never retries.
package generator

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/application/schema"
	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

const (
	opVariants = "variants"
	opImage    = "image"
	opSafety   = "safety"

	defaultImageMIME = "image/png"
)

// Client is the generation client adapter
type Client struct {
	backend   outbound.GenerativeBackend
	validator *schema.Validator
	metrics   outbound.MetricsRecorder
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewClient creates a client over backend
func NewClient(backend outbound.GenerativeBackend, validator *schema.Validator, metrics outbound.MetricsRecorder, logger *zap.Logger) *Client {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Client{
		backend:   backend,
		validator: validator,
		metrics:   metrics,
		logger:    logger.Named("generator"),
		tracer:    otel.Tracer("github.com/alchemorsel/evolver/generator"),
	}
}

// Backend returns the name of the wrapped backend
func (c *Client) Backend() string {
	return c.backend.Name()
}

// GenerateVariants issues one structured generation and returns the
// validated variants, without ids.
func (c *Client) GenerateVariants(ctx context.Context, req generation.RecipeSetRequest) ([]recipe.Variant, error) {
	ctx, span := c.startSpan(ctx, opVariants)
	defer span.End()
	start := time.Now()

	text, err := c.backend.GenerateContent(ctx, req)
	if err != nil {
		return nil, c.fail(span, opVariants, start, c.backendError(err))
	}
	if strings.TrimSpace(text) == "" {
		return nil, c.fail(span, opVariants, start, apperrors.NewEmptyGenerationResultError())
	}

	variants, err := c.validator.ValidateJSON([]byte(ExtractJSON(text)))
	if err != nil {
		c.logger.Warn("Generated variant set rejected",
			zap.String("backend", c.backend.Name()),
			zap.Error(err),
		)
		return nil, c.fail(span, opVariants, start, err)
	}

	span.SetAttributes(attribute.Int("variants.count", len(variants)))
	c.metrics.GenerationRequest(c.backend.Name(), opVariants, "success", time.Since(start))
	return variants, nil
}

// GenerateImage requests one image and returns the first inline image found
func (c *Client) GenerateImage(ctx context.Context, req generation.ImageRequest) (*generation.ImageArtifact, error) {
	ctx, span := c.startSpan(ctx, opImage)
	defer span.End()
	start := time.Now()

	resp, err := c.backend.GenerateImageContent(ctx, req)
	if err != nil {
		return nil, c.fail(span, opImage, start, c.backendError(err))
	}

	img, text := resp.FirstImage()
	if img == nil {
		if text != "" {
			c.logger.Warn("Backend returned text instead of image data",
				zap.String("backend", c.backend.Name()),
				zap.String("text", text),
			)
		}
		return nil, c.fail(span, opImage, start, apperrors.NewNoImageProducedError(text))
	}

	mime := img.MIMEType
	if mime == "" {
		mime = defaultImageMIME
	}
	c.metrics.GenerationRequest(c.backend.Name(), opImage, "success", time.Since(start))
	return &generation.ImageArtifact{MIMEType: mime, Data: img.Data}, nil
}

// GenerateSafetyTips never fails: any problem yields the fallback tip
func (c *Client) GenerateSafetyTips(ctx context.Context, req generation.SafetyRequest) generation.SafetyTips {
	ctx, span := c.startSpan(ctx, opSafety)
	defer span.End()
	start := time.Now()

	tips, err := c.safetyTips(ctx, req)
	if err != nil {
		c.logger.Warn("Safety tips unavailable, using fallback",
			zap.String("backend", c.backend.Name()),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("safety.fallback", true))
		c.metrics.GenerationRequest(c.backend.Name(), opSafety, "fallback", time.Since(start))
		return generation.FallbackSafetyTips()
	}

	c.metrics.GenerationRequest(c.backend.Name(), opSafety, "success", time.Since(start))
	return generation.SafetyTips{Tips: tips}
}

func (c *Client) safetyTips(ctx context.Context, req generation.SafetyRequest) ([]string, error) {
	text, err := c.backend.GenerateArrayContent(ctx, req)
	if err != nil {
		return nil, c.backendError(err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewEmptyGenerationResultError()
	}

	var raw any
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &raw); err != nil {
		return nil, apperrors.NewSchemaViolationError("$", "payload is not valid JSON").WithCause(err)
	}

	// Some backends wrap the list in a single-field object
	if obj, ok := raw.(map[string]any); ok && len(obj) == 1 {
		for _, v := range obj {
			raw = v
		}
	}
	return schema.ParseStringArray(raw)
}

func (c *Client) backendError(err error) error {
	if apperrors.Is(err, apperrors.CodeBackendError) {
		return err
	}
	return apperrors.NewBackendError(c.backend.Name(), err)
}

func (c *Client) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "generator."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ai.backend", c.backend.Name()),
			attribute.String("ai.operation", operation),
		),
	)
}

func (c *Client) fail(span trace.Span, operation string, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.metrics.GenerationRequest(c.backend.Name(), operation, string(apperrors.GetCode(err)), time.Since(start))
	return err
}

// ExtractJSON strips markdown fences and surrounding chatter, returning the
// outermost JSON object or array in text. Text without one is returned trimmed.
func ExtractJSON(text string) string {
	content := strings.TrimSpace(text)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	objStart := strings.IndexByte(content, '{')
	arrStart := strings.IndexByte(content, '[')

	closer := byte('}')
	start := objStart
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		closer = ']'
		start = arrStart
	}
	if start == -1 {
		return content
	}
	end := strings.LastIndexByte(content, closer)
	if end < start {
		return content
	}
	return content[start : end+1]
}
