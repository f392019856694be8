package evolution

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/evolver/internal/application/collection"
	"github.com/alchemorsel/evolver/internal/application/generator"
	"github.com/alchemorsel/evolver/internal/application/prompt"
	"github.com/alchemorsel/evolver/internal/application/schema"
	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/evolver/internal/ports/inbound"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
	"github.com/alchemorsel/evolver/test/testutils"
)

type FacadeTestSuite struct {
	suite.Suite
	ctx       context.Context
	backend   *testutils.StubBackend
	kv        *memory.KVStore
	store     *collection.Store
	publisher *testutils.RecordingPublisher
	facade    *Facade
	factory   *testutils.VariantFactory
	params    generation.Params
}

func (suite *FacadeTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.factory = testutils.NewVariantFactory(time.Now().UnixNano())
	suite.params = suite.factory.Params()
	suite.backend = testutils.NewStubBackend(testutils.VariantSetJSON(suite.factory.VariantSet()))
	suite.kv = memory.NewKVStore()
	suite.publisher = &testutils.RecordingPublisher{}
	suite.facade = suite.newFacade(suite.kv)
}

func (suite *FacadeTestSuite) newFacade(kv outbound.KeyValueStore) *Facade {
	log := zaptest.NewLogger(suite.T())
	var seq atomic.Int64
	suite.store = collection.NewStore(kv, "", nil, log)
	client := generator.NewClient(suite.backend, schema.NewValidator(), nil, log)
	return NewFacade(suite.ctx, prompt.NewBuilder(0), client, suite.store, suite.publisher, log,
		WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
	)
}

func (suite *FacadeTestSuite) evolve() []recipe.Variant {
	variants, err := suite.facade.Evolve(suite.ctx, suite.params)
	require.NoError(suite.T(), err)
	return variants
}

func (suite *FacadeTestSuite) awaitStarted() {
	select {
	case <-suite.backend.Started():
	case <-time.After(2 * time.Second):
		suite.FailNow("backend call never started")
	}
}

func (suite *FacadeTestSuite) TestInitialState() {
	snap := suite.facade.Snapshot(suite.ctx)

	assert.Equal(suite.T(), inbound.PhaseIdle, snap.Phase)
	assert.Empty(suite.T(), snap.WorkingSet)
	assert.Empty(suite.T(), snap.Collection)
	assert.Equal(suite.T(), generation.DefaultParams(), snap.Params)
}

func (suite *FacadeTestSuite) TestEvolve_Success() {
	// Act
	variants := suite.evolve()

	// Assert
	assertions := testutils.NewVariantAssertions(suite.T())
	assertions.OnePerTier(variants)
	assert.Equal(suite.T(), []string{"id-1", "id-2", "id-3"}, testutils.IDs(variants))

	snap := suite.facade.Snapshot(suite.ctx)
	assert.Equal(suite.T(), inbound.PhasePopulated, snap.Phase)
	assert.False(suite.T(), snap.Generating)
	assert.Empty(suite.T(), snap.LastError)
	assert.Equal(suite.T(), testutils.IDs(variants), testutils.IDs(snap.WorkingSet))
	assert.Equal(suite.T(), suite.params.BaseName, snap.Params.BaseName)
	assert.Equal(suite.T(), []string{"recipe.variants.generated"}, suite.publisher.Names())
}

func (suite *FacadeTestSuite) TestEvolve_BlankBaseName_NoStateChange() {
	params := suite.params
	params.BaseName = "   "

	_, err := suite.facade.Evolve(suite.ctx, params)

	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))
	assert.Zero(suite.T(), suite.backend.VariantCalls())
	snap := suite.facade.Snapshot(suite.ctx)
	assert.Equal(suite.T(), inbound.PhaseIdle, snap.Phase)
	assert.Empty(suite.T(), snap.Params.BaseName)
}

func (suite *FacadeTestSuite) TestEvolve_BackendFailure() {
	// Arrange
	suite.evolve()
	suite.backend.SetVariants("", stderrors.New("quota exhausted"))

	// Act
	_, err := suite.facade.Evolve(suite.ctx, suite.params)

	// Assert
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), apperrors.CodeGenerationFailed, apperrors.GetCode(err))
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeBackendError))
	snap := suite.facade.Snapshot(suite.ctx)
	assert.Equal(suite.T(), inbound.PhaseFailed, snap.Phase)
	assert.Equal(suite.T(), GenericErrorMessage, snap.LastError)
	assert.Empty(suite.T(), snap.WorkingSet)
}

func (suite *FacadeTestSuite) TestEvolve_MissingTier_Fails() {
	set := suite.factory.VariantSet()
	set[2].Difficulty = recipe.DifficultyEasy
	suite.backend.SetVariants(testutils.VariantSetJSON(set), nil)

	_, err := suite.facade.Evolve(suite.ctx, suite.params)

	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeSchemaViolation))
	assert.Equal(suite.T(), inbound.PhaseFailed, suite.facade.Snapshot(suite.ctx).Phase)
}

func (suite *FacadeTestSuite) TestEvolve_ClearsWorkingSetWhileGenerating() {
	// Arrange
	suite.evolve()
	suite.backend.Gate = make(chan struct{})
	done := make(chan error, 1)

	// Act
	go func() {
		_, err := suite.facade.Evolve(suite.ctx, suite.params)
		done <- err
	}()
	suite.awaitStarted()
	suite.awaitStarted()

	// Assert
	snap := suite.facade.Snapshot(suite.ctx)
	assert.Equal(suite.T(), inbound.PhaseGenerating, snap.Phase)
	assert.True(suite.T(), snap.Generating)
	assert.Empty(suite.T(), snap.WorkingSet)

	close(suite.backend.Gate)
	require.NoError(suite.T(), <-done)
	assert.Len(suite.T(), suite.facade.Snapshot(suite.ctx).WorkingSet, 3)
}

func (suite *FacadeTestSuite) TestEvolve_StaleResultIsDiscarded() {
	suite.backend.Gate = make(chan struct{})
	first := make(chan error, 1)
	second := make(chan error, 1)

	go func() {
		_, err := suite.facade.Evolve(suite.ctx, suite.params)
		first <- err
	}()
	suite.awaitStarted()
	go func() {
		_, err := suite.facade.Evolve(suite.ctx, suite.params)
		second <- err
	}()
	suite.awaitStarted()
	close(suite.backend.Gate)

	assert.ErrorIs(suite.T(), <-first, ErrSuperseded)
	require.NoError(suite.T(), <-second)
	snap := suite.facade.Snapshot(suite.ctx)
	assert.Equal(suite.T(), inbound.PhasePopulated, snap.Phase)
	assert.Len(suite.T(), snap.WorkingSet, 3)
}

func (suite *FacadeTestSuite) TestEvolve_LanguageChangeWhileGenerating() {
	// Arrange
	suite.backend.Gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := suite.facade.Evolve(suite.ctx, suite.params)
		done <- err
	}()
	suite.awaitStarted()

	// Act
	require.NoError(suite.T(), suite.facade.SetLanguage(generation.LanguagePortuguese))
	close(suite.backend.Gate)

	// Assert
	assert.ErrorIs(suite.T(), <-done, ErrSuperseded)
	snap := suite.facade.Snapshot(suite.ctx)
	assert.Equal(suite.T(), inbound.PhasePopulated, snap.Phase)
	assert.False(suite.T(), snap.Generating)
	assert.Empty(suite.T(), snap.WorkingSet)
	assert.Equal(suite.T(), generation.LanguagePortuguese, snap.Params.Language)
	assert.Empty(suite.T(), suite.publisher.Names())
}

func (suite *FacadeTestSuite) TestEvolve_SetParamsLanguageWhileGenerating() {
	suite.backend.Gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := suite.facade.Evolve(suite.ctx, suite.params)
		done <- err
	}()
	suite.awaitStarted()

	params := suite.params
	params.Language = generation.LanguageFrench
	_, err := suite.facade.SetParams(params)
	require.NoError(suite.T(), err)
	close(suite.backend.Gate)

	assert.ErrorIs(suite.T(), <-done, ErrSuperseded)
	assert.Empty(suite.T(), suite.facade.Snapshot(suite.ctx).WorkingSet)
}

func (suite *FacadeTestSuite) TestEvolve_SameLanguageWhileGeneratingKeepsResult() {
	suite.backend.Gate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := suite.facade.Evolve(suite.ctx, suite.params)
		done <- err
	}()
	suite.awaitStarted()

	require.NoError(suite.T(), suite.facade.SetLanguage(suite.params.Language))
	close(suite.backend.Gate)

	require.NoError(suite.T(), <-done)
	assert.Len(suite.T(), suite.facade.Snapshot(suite.ctx).WorkingSet, 3)
}

func (suite *FacadeTestSuite) TestSaveAndEnrichmentPropagation() {
	// Arrange
	variants := suite.evolve()
	target := variants[1]
	_, err := suite.facade.Save(suite.ctx, target.ID)
	require.NoError(suite.T(), err)
	_, err = suite.facade.Select(suite.ctx, target.ID)
	require.NoError(suite.T(), err)

	// Act
	updated, ok := suite.facade.UpdateEntity(suite.ctx, target.ID, recipe.ImagePatch("data:image/png;base64,AAAA"))

	// Assert
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "data:image/png;base64,AAAA", updated.ImageURL)
	snap := suite.facade.Snapshot(suite.ctx)
	assert.Equal(suite.T(), "data:image/png;base64,AAAA", snap.WorkingSet[1].ImageURL)
	assert.Equal(suite.T(), "data:image/png;base64,AAAA", snap.Collection[0].ImageURL)
	require.NotNil(suite.T(), snap.Displayed)
	assert.Equal(suite.T(), "data:image/png;base64,AAAA", snap.Displayed.ImageURL)
	assert.Equal(suite.T(), target.Steps, snap.Collection[0].Steps)

	reloaded := collection.NewStore(suite.kv, "", nil, zaptest.NewLogger(suite.T()))
	saved, found := reloaded.Get(suite.ctx, target.ID)
	require.True(suite.T(), found)
	assert.Equal(suite.T(), "data:image/png;base64,AAAA", saved.ImageURL)
}

func (suite *FacadeTestSuite) TestSave_Idempotent() {
	variants := suite.evolve()

	_, err := suite.facade.Save(suite.ctx, variants[0].ID)
	require.NoError(suite.T(), err)
	_, err = suite.facade.Save(suite.ctx, variants[0].ID)
	require.NoError(suite.T(), err)

	assert.Len(suite.T(), suite.facade.Notebook(suite.ctx), 1)
}

func (suite *FacadeTestSuite) TestSave_UnknownID() {
	_, err := suite.facade.Save(suite.ctx, "nope")

	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeNotFound))
}

func (suite *FacadeTestSuite) TestSave_PersistenceFailureIsSwallowed() {
	// Arrange
	kv := new(testutils.MockKeyValueStore)
	kv.On("Get", mock.Anything, collection.DefaultKey).Return(nil, outbound.ErrKeyNotFound)
	kv.On("Set", mock.Anything, collection.DefaultKey, mock.Anything).Return(stderrors.New("disk full"))
	suite.facade = suite.newFacade(kv)
	variants := suite.evolve()

	// Act
	saved, err := suite.facade.Save(suite.ctx, variants[0].ID)

	// Assert
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), variants[0].ID, saved.ID)
	assert.Len(suite.T(), suite.facade.Notebook(suite.ctx), 1)
}

func (suite *FacadeTestSuite) TestStragglerUpdateReachesNotebookOnly() {
	// Arrange
	old := suite.evolve()
	_, err := suite.facade.Save(suite.ctx, old[0].ID)
	require.NoError(suite.T(), err)
	fresh := suite.evolve()

	// Act
	updated, ok := suite.facade.UpdateEntity(suite.ctx, old[0].ID, recipe.SafetyPatch([]string{"Careful"}))

	// Assert
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), []string{"Careful"}, updated.SafetyTips)
	snap := suite.facade.Snapshot(suite.ctx)
	assert.Equal(suite.T(), testutils.IDs(fresh), testutils.IDs(snap.WorkingSet))
	for _, v := range snap.WorkingSet {
		assert.Empty(suite.T(), v.SafetyTips)
	}
	assert.Equal(suite.T(), []string{"Careful"}, snap.Collection[0].SafetyTips)
}

func (suite *FacadeTestSuite) TestUpdateEntity_UnknownIsNoop() {
	_, ok := suite.facade.UpdateEntity(suite.ctx, "ghost", recipe.ImagePatch("x"))

	assert.False(suite.T(), ok)
}

func (suite *FacadeTestSuite) TestRemove() {
	variants := suite.evolve()
	_, err := suite.facade.Save(suite.ctx, variants[0].ID)
	require.NoError(suite.T(), err)
	_, err = suite.facade.Select(suite.ctx, variants[0].ID)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.facade.Remove(suite.ctx, variants[0].ID))
	require.NoError(suite.T(), suite.facade.Remove(suite.ctx, variants[0].ID))

	snap := suite.facade.Snapshot(suite.ctx)
	assert.Empty(suite.T(), snap.Collection)
	assert.Nil(suite.T(), snap.Displayed)
	assert.Len(suite.T(), snap.WorkingSet, 3, "working set is not affected by notebook removal")
	assert.Contains(suite.T(), suite.publisher.Names(), "recipe.removed")
}

func (suite *FacadeTestSuite) TestRename() {
	variants := suite.evolve()

	suite.Run("BlankName_ShouldFail", func() {
		_, err := suite.facade.Rename(suite.ctx, variants[0].ID, "  ")

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))
	})

	suite.Run("TrimsAndPropagates", func() {
		updated, err := suite.facade.Rename(suite.ctx, variants[0].ID, "  Bolo da Vó ")

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "Bolo da Vó", updated.Name)
		assert.Equal(suite.T(), "Bolo da Vó", suite.facade.Snapshot(suite.ctx).WorkingSet[0].Name)
		assert.Contains(suite.T(), suite.publisher.Names(), "recipe.renamed")
	})

	suite.Run("UnknownID_ShouldFail", func() {
		_, err := suite.facade.Rename(suite.ctx, "ghost", "Name")

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeNotFound))
	})
}

func (suite *FacadeTestSuite) TestRemix() {
	variants := suite.evolve()

	seed, err := suite.facade.RemixByID(suite.ctx, variants[2].ID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), variants[2].Name, seed.BaseName)
	assert.Equal(suite.T(), variants[2].Ingredients, seed.Ingredients)
	snap := suite.facade.Snapshot(suite.ctx)
	assert.Equal(suite.T(), inbound.PhasePopulated, snap.Phase)
	assert.Empty(suite.T(), snap.WorkingSet)
	assert.Empty(suite.T(), snap.Params.Feedback)
	assert.Equal(suite.T(), variants[2].Name, snap.Params.BaseName)
}

func (suite *FacadeTestSuite) TestSetLanguage() {
	suite.Run("Unsupported_ShouldFail", func() {
		err := suite.facade.SetLanguage("xx")

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))
	})

	suite.Run("ChangeDiscardsPopulatedSet", func() {
		suite.evolve()

		require.NoError(suite.T(), suite.facade.SetLanguage(generation.LanguageJapanese))

		snap := suite.facade.Snapshot(suite.ctx)
		assert.Equal(suite.T(), inbound.PhasePopulated, snap.Phase)
		assert.Empty(suite.T(), snap.WorkingSet)
		assert.Equal(suite.T(), generation.LanguageJapanese, snap.Params.Language)
	})

	suite.Run("SameLanguageKeepsSet", func() {
		suite.evolve()

		require.NoError(suite.T(), suite.facade.SetLanguage(suite.params.Language))

		assert.Len(suite.T(), suite.facade.Snapshot(suite.ctx).WorkingSet, 3)
	})
}

func (suite *FacadeTestSuite) TestParameterCapture() {
	suite.facade.SetBaseName("Feijoada")
	suite.facade.SetFeedback("less salt")
	suite.facade.AddIngredient("  feijão preto ")
	suite.facade.AddIngredient("feijão preto")
	suite.facade.AddIngredient("")
	params := suite.facade.AddIngredient("linguiça")

	assert.Equal(suite.T(), "Feijoada", params.BaseName)
	assert.Equal(suite.T(), []string{"feijão preto", "linguiça"}, params.Ingredients)

	params, err := suite.facade.RemoveIngredient(0)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"linguiça"}, params.Ingredients)

	_, err = suite.facade.RemoveIngredient(5)
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))

	assert.Error(suite.T(), suite.facade.SetCookingMethod("Campfire"))
	require.NoError(suite.T(), suite.facade.SetCookingMethod(generation.MethodPressureCooker))
	require.NoError(suite.T(), suite.facade.SetUtensil(generation.UtensilBakingSheet))
	assert.Equal(suite.T(), generation.MethodPressureCooker, suite.facade.Params().CookingMethod)

	_, err = suite.facade.SetParams(generation.Params{Language: "klingon"})
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))
}

func (suite *FacadeTestSuite) TestSelect() {
	variants := suite.evolve()

	selected, err := suite.facade.Select(suite.ctx, variants[0].ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), variants[0].ID, selected.ID)

	suite.facade.ClearSelection()
	assert.Nil(suite.T(), suite.facade.Snapshot(suite.ctx).Displayed)

	_, err = suite.facade.Select(suite.ctx, "ghost")
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodeNotFound))
}

func TestFacadeTestSuite(t *testing.T) {
	suite.Run(t, new(FacadeTestSuite))
}
