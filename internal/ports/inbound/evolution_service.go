// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
)

// EvolutionService defines the use cases for evolving and curating recipes
// This is the primary port that HTTP handlers and the CLI use
type EvolutionService interface {
	// Parameter capture
	Params() generation.Params
	SetParams(params generation.Params) (generation.Params, error)
	AddIngredient(ingredient string) generation.Params
	RemoveIngredient(index int) (generation.Params, error)
	SetLanguage(lang generation.Language) error

	// Generation
	Evolve(ctx context.Context, params generation.Params) ([]recipe.Variant, error)
	RemixByID(ctx context.Context, id string) (generation.Seed, error)

	// Notebook
	Save(ctx context.Context, id string) (recipe.Variant, error)
	Remove(ctx context.Context, id string) error
	Rename(ctx context.Context, id, name string) (recipe.Variant, error)
	Notebook(ctx context.Context) []recipe.Variant

	// Views
	Select(ctx context.Context, id string) (recipe.Variant, error)
	ClearSelection()
	Snapshot(ctx context.Context) Snapshot
}

// EnrichmentService defines the on-demand enrichment use cases
type EnrichmentService interface {
	RequestImage(ctx context.Context, id string) (ImageResult, error)
	RequestSafetyTips(ctx context.Context, id string) (SafetyResult, error)
	InFlight() map[string][]recipe.EnrichmentKind
}

// Phase is the state of the evolution workflow
type Phase string

// Workflow phases
const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhasePopulated  Phase = "populated"
	PhaseFailed     Phase = "failed"
)

// Snapshot is a consistent read of every view the orchestrator holds
type Snapshot struct {
	Phase      Phase             `json:"phase"`
	Generating bool              `json:"generating"`
	LastError  string            `json:"lastError,omitempty"`
	Params     generation.Params `json:"params"`
	WorkingSet []recipe.Variant  `json:"workingSet"`
	Collection []recipe.Variant  `json:"collection"`
	Displayed  *recipe.Variant   `json:"displayed,omitempty"`
}

// ImageResult is the outcome of an image request. Failures are returned as
// errors alongside it.
type ImageResult struct {
	Recipe recipe.Variant `json:"recipe"`
	Cached bool           `json:"cached"`
}

// SafetyResult is the outcome of a safety request. It cannot fail; Fallback
// marks the generic tip.
type SafetyResult struct {
	Recipe   recipe.Variant `json:"recipe"`
	Cached   bool           `json:"cached"`
	Fallback bool           `json:"fallback"`
}
