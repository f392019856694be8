package recipe

import (
	"time"
)

// Domain Events - Events that occur within the recipe domain

// VariantsGeneratedEvent is raised when a variant set replaces the working set
type VariantsGeneratedEvent struct {
	BaseName    string
	VariantIDs  []string
	Language    string
	GeneratedAt time.Time
}

func (e VariantsGeneratedEvent) EventName() string {
	return "recipe.variants.generated"
}

func (e VariantsGeneratedEvent) OccurredAt() time.Time {
	return e.GeneratedAt
}

// RecipeSavedEvent is raised when a variant is promoted into the notebook
type RecipeSavedEvent struct {
	RecipeID string
	Name     string
	SavedAt  time.Time
}

func (e RecipeSavedEvent) EventName() string {
	return "recipe.saved"
}

func (e RecipeSavedEvent) OccurredAt() time.Time {
	return e.SavedAt
}

// RecipeRemovedEvent is raised when a variant leaves the notebook
type RecipeRemovedEvent struct {
	RecipeID  string
	RemovedAt time.Time
}

func (e RecipeRemovedEvent) EventName() string {
	return "recipe.removed"
}

func (e RecipeRemovedEvent) OccurredAt() time.Time {
	return e.RemovedAt
}

// RecipeRenamedEvent is raised when the user edits a variant's name
type RecipeRenamedEvent struct {
	RecipeID  string
	NewName   string
	RenamedAt time.Time
}

func (e RecipeRenamedEvent) EventName() string {
	return "recipe.renamed"
}

func (e RecipeRenamedEvent) OccurredAt() time.Time {
	return e.RenamedAt
}

// RecipeEnrichedEvent is raised when an image or safety tips are attached
type RecipeEnrichedEvent struct {
	RecipeID   string
	Kind       EnrichmentKind
	Fallback   bool
	EnrichedAt time.Time
}

func (e RecipeEnrichedEvent) EventName() string {
	return "recipe.enriched." + string(e.Kind)
}

func (e RecipeEnrichedEvent) OccurredAt() time.Time {
	return e.EnrichedAt
}
