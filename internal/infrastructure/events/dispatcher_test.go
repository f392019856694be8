package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/domain/shared"
)

func TestDispatcher_RoutesByNameAndPattern(t *testing.T) {
	// Arrange
	d := NewDispatcher(zaptest.NewLogger(t))
	var exact, prefix, all []string
	d.Register("recipe.saved", func(e shared.DomainEvent) error { exact = append(exact, e.EventName()); return nil })
	d.Register("recipe.enriched.*", func(e shared.DomainEvent) error { prefix = append(prefix, e.EventName()); return nil })
	d.Register(Wildcard, func(e shared.DomainEvent) error { all = append(all, e.EventName()); return nil })

	// Act
	err := d.Publish(context.Background(),
		recipe.RecipeSavedEvent{RecipeID: "a", SavedAt: time.Now()},
		recipe.RecipeEnrichedEvent{RecipeID: "a", Kind: recipe.EnrichmentImage, EnrichedAt: time.Now()},
	)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"recipe.saved"}, exact)
	assert.Equal(t, []string{"recipe.enriched.image"}, prefix)
	assert.Equal(t, []string{"recipe.saved", "recipe.enriched.image"}, all)
}

func TestDispatcher_CollectsHandlerErrors(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))
	calls := 0
	d.Register("recipe.removed", func(shared.DomainEvent) error { calls++; return errors.New("first") })
	d.Register("recipe.removed", func(shared.DomainEvent) error { calls++; return errors.New("second") })

	err := d.Dispatch(recipe.RecipeRemovedEvent{RecipeID: "a"})

	assert.Equal(t, 2, calls)
	assert.ErrorContains(t, err, "first")
	assert.ErrorContains(t, err, "second")
}

func TestDispatcher_NoHandlers(t *testing.T) {
	assert.NoError(t, NewDispatcher(zaptest.NewLogger(t)).Dispatch(recipe.RecipeRemovedEvent{}))
}

func TestLoggingHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	require.NoError(t, LoggingHandler(zap.New(core))(recipe.RecipeRenamedEvent{RecipeID: "a", NewName: "Bolo"}))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "recipe.renamed", logs.All()[0].ContextMap()["event"])
}
