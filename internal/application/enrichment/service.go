package enrichment

import (
	"context"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/ports/inbound"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

// Resolver finds entities by id across the orchestrator's views
type Resolver interface {
	Find(ctx context.Context, id string) (recipe.Variant, bool)
	Params() generation.Params
}

// Service resolves ids and hands the entity to the coordinator
type Service struct {
	coordinator *Coordinator
	resolver    Resolver
}

// NewService creates the enrichment use case service
func NewService(coordinator *Coordinator, resolver Resolver) *Service {
	return &Service{coordinator: coordinator, resolver: resolver}
}

// RequestImage attaches an image to the recipe with id
func (s *Service) RequestImage(ctx context.Context, id string) (inbound.ImageResult, error) {
	v, ok := s.resolver.Find(ctx, id)
	if !ok {
		return inbound.ImageResult{}, apperrors.NewNotFoundError("recipe", id)
	}
	return s.coordinator.RequestImage(ctx, v)
}

// RequestSafetyTips attaches safety tips to the recipe with id, in the
// currently selected language.
func (s *Service) RequestSafetyTips(ctx context.Context, id string) (inbound.SafetyResult, error) {
	v, ok := s.resolver.Find(ctx, id)
	if !ok {
		return inbound.SafetyResult{}, apperrors.NewNotFoundError("recipe", id)
	}
	return s.coordinator.RequestSafetyTips(ctx, v, s.resolver.Params().Language), nil
}

// InFlight exposes the busy state for every recipe
func (s *Service) InFlight() map[string][]recipe.EnrichmentKind {
	return s.coordinator.InFlight()
}

var _ inbound.EnrichmentService = (*Service)(nil)
