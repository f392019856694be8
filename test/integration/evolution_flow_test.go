// Package integration exercises the assembled container end to end
//go:build integration
// +build integration

package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/infrastructure/container"
	"github.com/alchemorsel/evolver/internal/ports/inbound"
	"github.com/alchemorsel/evolver/test/testutils"
)

// EvolutionFlowTestSuite drives the core container with the offline backend
// and file storage
type EvolutionFlowTestSuite struct {
	suite.Suite
	dataDir string
}

func (s *EvolutionFlowTestSuite) SetupTest() {
	s.dataDir = s.T().TempDir()
	s.T().Setenv("EVOLVER_AI_PROVIDER", "mock")
	s.T().Setenv("EVOLVER_STORAGE_DRIVER", "file")
	s.T().Setenv("EVOLVER_STORAGE_PATH", s.dataDir)
	s.T().Setenv("EVOLVER_APP_LOG_LEVEL", "error")
}

// start boots a fresh container over the same data directory
func (s *EvolutionFlowTestSuite) start() (inbound.EvolutionService, inbound.EnrichmentService) {
	var (
		evolution  inbound.EvolutionService
		enrichment inbound.EnrichmentService
	)
	app := fxtest.New(s.T(),
		fx.NopLogger,
		fx.Supply(container.ConfigPath("")),
		container.CoreModule,
		fx.Populate(&evolution, &enrichment),
	)
	app.RequireStart()
	s.T().Cleanup(app.RequireStop)
	return evolution, enrichment
}

func (s *EvolutionFlowTestSuite) TestGenerateSaveAndReload() {
	ctx := context.Background()
	evolution, _ := s.start()

	// Act
	variants, err := evolution.Evolve(ctx, generation.Params{
		BaseName:    "Moqueca",
		Ingredients: []string{"peixe", "leite de coco"},
		Language:    generation.LanguagePortuguese,
	})

	// Assert
	require.NoError(s.T(), err)
	va := testutils.NewVariantAssertions(s.T())
	va.Identified(variants)
	va.OnePerTier(variants)
	for _, v := range variants {
		assert.True(s.T(), strings.Contains(v.Name, "Moqueca"), v.Name)
	}

	for _, v := range variants {
		_, err := evolution.Save(ctx, v.ID)
		require.NoError(s.T(), err)
	}

	reloaded, _ := s.start()
	saved := reloaded.Notebook(ctx)
	require.Len(s.T(), saved, len(variants))
	assert.ElementsMatch(s.T(), testutils.IDs(variants), testutils.IDs(saved))
	assert.Equal(s.T(), variants[len(variants)-1].ID, saved[0].ID, "newest save first")
}

func (s *EvolutionFlowTestSuite) TestEnrichmentSurvivesRestart() {
	ctx := context.Background()
	evolution, enrichment := s.start()

	variants, err := evolution.Evolve(ctx, generation.Params{BaseName: "Pão de queijo"})
	require.NoError(s.T(), err)
	id := variants[0].ID
	_, err = evolution.Save(ctx, id)
	require.NoError(s.T(), err)

	image, err := enrichment.RequestImage(ctx, id)
	require.NoError(s.T(), err)
	assert.False(s.T(), image.Cached)
	assert.True(s.T(), strings.HasPrefix(image.Recipe.ImageURL, "data:image/"))

	tips, err := enrichment.RequestSafetyTips(ctx, id)
	require.NoError(s.T(), err)
	assert.False(s.T(), tips.Fallback)
	assert.NotEmpty(s.T(), tips.Recipe.SafetyTips)

	// Restart and confirm both caches were persisted
	_, reloaded := s.start()

	image, err = reloaded.RequestImage(ctx, id)
	require.NoError(s.T(), err)
	assert.True(s.T(), image.Cached)

	tips, err = reloaded.RequestSafetyTips(ctx, id)
	require.NoError(s.T(), err)
	assert.True(s.T(), tips.Cached)
}

func (s *EvolutionFlowTestSuite) TestRenameAndRemove() {
	ctx := context.Background()
	evolution, _ := s.start()

	variants, err := evolution.Evolve(ctx, generation.Params{BaseName: "Brigadeiro"})
	require.NoError(s.T(), err)
	id := variants[1].ID
	_, err = evolution.Save(ctx, id)
	require.NoError(s.T(), err)

	renamed, err := evolution.Rename(ctx, id, "Brigadeiro da vó")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Brigadeiro da vó", renamed.Name)

	require.NoError(s.T(), evolution.Remove(ctx, id))

	reloaded, _ := s.start()
	assert.Empty(s.T(), reloaded.Notebook(ctx))
}

func TestEvolutionFlowTestSuite(t *testing.T) {
	suite.Run(t, new(EvolutionFlowTestSuite))
}
