// Package enrichment attaches generated images and safety tips to recipes
// on demand. Each (recipe, kind) pair has at most one request in flight.
package enrichment

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/alchemorsel/evolver/internal/application/prompt"
	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/ports/inbound"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

// DefaultTimeout bounds one enrichment call so a stuck backend cannot keep
// a recipe busy forever.
const DefaultTimeout = 90 * time.Second

// EntityUpdater propagates a patch to every view holding the entity. It
// reports false when no view holds it any more.
type EntityUpdater interface {
	UpdateEntity(ctx context.Context, id string, patch recipe.Patch) (recipe.Variant, bool)
}

// EntityFinder resolves the current copy of an entity. An updater that also
// implements it lets a flight skip work an earlier flight already finished.
type EntityFinder interface {
	Find(ctx context.Context, id string) (recipe.Variant, bool)
}

// Generator is the subset of the generation client the coordinator uses
type Generator interface {
	GenerateImage(ctx context.Context, req generation.ImageRequest) (*generation.ImageArtifact, error)
	GenerateSafetyTips(ctx context.Context, req generation.SafetyRequest) generation.SafetyTips
}

// Options configures a Coordinator
type Options struct {
	Timeout time.Duration
}

type busyKey struct {
	id   string
	kind recipe.EnrichmentKind
}

// Coordinator runs enrichment requests
type Coordinator struct {
	generator Generator
	builder   *prompt.Builder
	updater   EntityUpdater
	publisher outbound.EventPublisher
	metrics   outbound.MetricsRecorder
	logger    *zap.Logger
	timeout   time.Duration

	group singleflight.Group

	mu   sync.Mutex
	busy map[busyKey]bool
}

// NewCoordinator creates a coordinator
func NewCoordinator(
	gen Generator,
	builder *prompt.Builder,
	updater EntityUpdater,
	publisher outbound.EventPublisher,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
	opts Options,
) *Coordinator {
	if publisher == nil {
		publisher = outbound.NopPublisher{}
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	if opts.Timeout < 0 {
		opts.Timeout = 0
	}
	return &Coordinator{
		generator: gen,
		builder:   builder,
		updater:   updater,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.Named("enrichment"),
		timeout:   opts.Timeout,
		busy:      make(map[busyKey]bool),
	}
}

// RequestImage returns v with an image attached, generating it if needed
func (c *Coordinator) RequestImage(ctx context.Context, v recipe.Variant) (inbound.ImageResult, error) {
	if !v.HasID() {
		return inbound.ImageResult{}, apperrors.NewValidationError(recipe.ErrMissingID.Error())
	}
	if v.HasImage() {
		c.metrics.EnrichmentRequest(string(recipe.EnrichmentImage), "cached")
		return inbound.ImageResult{Recipe: v, Cached: true}, nil
	}

	ch := c.group.DoChan(flightKey(v.ID, recipe.EnrichmentImage), func() (interface{}, error) {
		return c.runImage(ctx, v)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return inbound.ImageResult{}, res.Err
		}
		return res.Val.(inbound.ImageResult), nil
	case <-ctx.Done():
		return inbound.ImageResult{}, ctx.Err()
	}
}

// RequestSafetyTips returns v with safety tips attached, generating them in
// lang if needed.
func (c *Coordinator) RequestSafetyTips(ctx context.Context, v recipe.Variant, lang generation.Language) inbound.SafetyResult {
	if v.HasSafetyTips() {
		c.metrics.EnrichmentRequest(string(recipe.EnrichmentSafety), "cached")
		return inbound.SafetyResult{Recipe: v, Cached: true}
	}
	if !v.HasID() {
		tips := c.generator.GenerateSafetyTips(ctx, c.builder.Safety(v.Name, v.Ingredients, v.Steps, lang))
		return inbound.SafetyResult{Recipe: recipe.SafetyPatch(tips.Tips).Apply(v), Fallback: tips.Fallback}
	}

	res := <-c.group.DoChan(flightKey(v.ID, recipe.EnrichmentSafety), func() (interface{}, error) {
		return c.runSafety(ctx, v, lang), nil
	})
	return res.Val.(inbound.SafetyResult)
}

// IsBusy reports whether a request for (id, kind) is in flight
func (c *Coordinator) IsBusy(id string, kind recipe.EnrichmentKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[busyKey{id: id, kind: kind}]
}

// Busy lists the kinds in flight for id
func (c *Coordinator) Busy(id string) []recipe.EnrichmentKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	var kinds []recipe.EnrichmentKind
	for k := range c.busy {
		if k.id == id {
			kinds = append(kinds, k.kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// InFlight lists the busy kinds of every recipe with a request in flight
func (c *Coordinator) InFlight() map[string][]recipe.EnrichmentKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]recipe.EnrichmentKind)
	for k := range c.busy {
		out[k.id] = append(out[k.id], k.kind)
	}
	for id := range out {
		kinds := out[id]
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	}
	return out
}

func (c *Coordinator) runImage(ctx context.Context, v recipe.Variant) (inbound.ImageResult, error) {
	if current, ok := c.current(ctx, v.ID); ok && current.HasImage() {
		c.metrics.EnrichmentRequest(string(recipe.EnrichmentImage), "cached")
		return inbound.ImageResult{Recipe: current, Cached: true}, nil
	}

	ctx, cancel := c.detach(ctx)
	defer cancel()
	defer c.markBusy(v.ID, recipe.EnrichmentImage)()

	artifact, err := c.generator.GenerateImage(ctx, c.builder.Image(v.Name, v.Ingredients))
	if err != nil {
		c.metrics.EnrichmentRequest(string(recipe.EnrichmentImage), "error")
		c.logger.Warn("Image generation failed",
			zap.String("recipe_id", v.ID),
			zap.Error(err),
		)
		return inbound.ImageResult{}, err
	}

	updated := c.propagate(ctx, v, recipe.ImagePatch(artifact.DataURI()))
	c.metrics.EnrichmentRequest(string(recipe.EnrichmentImage), "success")
	c.publish(ctx, recipe.RecipeEnrichedEvent{RecipeID: v.ID, Kind: recipe.EnrichmentImage, EnrichedAt: time.Now()})
	return inbound.ImageResult{Recipe: updated}, nil
}

func (c *Coordinator) runSafety(ctx context.Context, v recipe.Variant, lang generation.Language) inbound.SafetyResult {
	if current, ok := c.current(ctx, v.ID); ok && current.HasSafetyTips() {
		c.metrics.EnrichmentRequest(string(recipe.EnrichmentSafety), "cached")
		return inbound.SafetyResult{Recipe: current, Cached: true}
	}

	ctx, cancel := c.detach(ctx)
	defer cancel()
	defer c.markBusy(v.ID, recipe.EnrichmentSafety)()

	tips := c.generator.GenerateSafetyTips(ctx, c.builder.Safety(v.Name, v.Ingredients, v.Steps, lang))

	outcome := "success"
	if tips.Fallback {
		outcome = "fallback"
	}
	updated := c.propagate(ctx, v, recipe.SafetyPatch(tips.Tips))
	c.metrics.EnrichmentRequest(string(recipe.EnrichmentSafety), outcome)
	c.publish(ctx, recipe.RecipeEnrichedEvent{
		RecipeID:   v.ID,
		Kind:       recipe.EnrichmentSafety,
		Fallback:   tips.Fallback,
		EnrichedAt: time.Now(),
	})
	return inbound.SafetyResult{Recipe: updated, Fallback: tips.Fallback}
}

func (c *Coordinator) current(ctx context.Context, id string) (recipe.Variant, bool) {
	finder, ok := c.updater.(EntityFinder)
	if !ok {
		return recipe.Variant{}, false
	}
	return finder.Find(ctx, id)
}

// propagate pushes the patch to every view. An entity no view holds any
// more still gets the patch applied to the returned copy.
func (c *Coordinator) propagate(ctx context.Context, v recipe.Variant, patch recipe.Patch) recipe.Variant {
	if c.updater != nil {
		if updated, ok := c.updater.UpdateEntity(ctx, v.ID, patch); ok {
			return updated
		}
	}
	c.logger.Debug("Enriched recipe is no longer held by any view", zap.String("recipe_id", v.ID))
	return patch.Apply(v)
}

// detach decouples the call from the requester's cancellation; joined
// waiters and later views still receive the result.
func (c *Coordinator) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Coordinator) markBusy(id string, kind recipe.EnrichmentKind) func() {
	key := busyKey{id: id, kind: kind}
	c.mu.Lock()
	c.busy[key] = true
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.busy, key)
		c.mu.Unlock()
	}
}

func (c *Coordinator) publish(ctx context.Context, event recipe.RecipeEnrichedEvent) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("Failed to publish enrichment event", zap.Error(err))
	}
}

func flightKey(id string, kind recipe.EnrichmentKind) string {
	return string(kind) + ":" + id
}
