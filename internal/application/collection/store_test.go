package collection

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
	"github.com/alchemorsel/evolver/test/testutils"
)

type StoreTestSuite struct {
	suite.Suite
	ctx     context.Context
	kv      *memory.KVStore
	store   *Store
	factory *testutils.VariantFactory
}

func (suite *StoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.kv = memory.NewKVStore()
	suite.store = NewStore(suite.kv, "", nil, zaptest.NewLogger(suite.T()))
	suite.factory = testutils.NewVariantFactory(time.Now().UnixNano())
}

func (suite *StoreTestSuite) persisted() []recipe.Variant {
	data, err := suite.kv.Get(suite.ctx, DefaultKey)
	require.NoError(suite.T(), err)
	var out []recipe.Variant
	require.NoError(suite.T(), json.Unmarshal(data, &out))
	return out
}

func (suite *StoreTestSuite) TestLoad() {
	suite.Run("MissingKey_ShouldBeEmpty", func() {
		assert.Empty(suite.T(), suite.store.Load(suite.ctx))
	})

	suite.Run("UnparsableDocument_ShouldBeEmpty", func() {
		kv := memory.NewKVStore()
		require.NoError(suite.T(), kv.Set(suite.ctx, DefaultKey, []byte("{broken")))

		store := NewStore(kv, "", nil, zaptest.NewLogger(suite.T()))

		assert.Empty(suite.T(), store.Load(suite.ctx))
	})

	suite.Run("ShapeDrift_ShouldKeepUsableEntries", func() {
		// Arrange
		good := suite.factory.Saved(recipe.DifficultyEasy)
		goodJSON, err := json.Marshal(good)
		require.NoError(suite.T(), err)
		doc := `[` + string(goodJSON) + `, {"name":"no id"}, {"id":42}, ` + string(goodJSON) + `, "junk"]`
		kv := memory.NewKVStore()
		require.NoError(suite.T(), kv.Set(suite.ctx, DefaultKey, []byte(doc)))

		// Act
		loaded := NewStore(kv, "", nil, zaptest.NewLogger(suite.T())).Load(suite.ctx)

		// Assert
		require.Len(suite.T(), loaded, 1)
		assert.Equal(suite.T(), good.ID, loaded[0].ID)
		assert.Equal(suite.T(), good.Steps, loaded[0].Steps)
	})

	suite.Run("Reload_PicksUpExternalWrite", func() {
		// Arrange
		kv := memory.NewKVStore()
		store := NewStore(kv, "", nil, zaptest.NewLogger(suite.T()))
		require.Empty(suite.T(), store.Load(suite.ctx))
		external := suite.factory.Saved(recipe.DifficultyHard)
		doc, err := json.Marshal([]recipe.Variant{external})
		require.NoError(suite.T(), err)
		require.NoError(suite.T(), kv.Set(suite.ctx, DefaultKey, doc))

		// Act
		reloaded := store.Reload(suite.ctx)

		// Assert
		require.Len(suite.T(), reloaded, 1)
		assert.Equal(suite.T(), external.ID, reloaded[0].ID)
		assert.True(suite.T(), store.Contains(suite.ctx, external.ID))
	})

	suite.Run("ReadsOnce", func() {
		kv := new(testutils.MockKeyValueStore)
		kv.On("Get", mock.Anything, DefaultKey).Return(nil, outbound.ErrKeyNotFound).Once()
		store := NewStore(kv, "", nil, zaptest.NewLogger(suite.T()))

		store.Load(suite.ctx)
		store.Load(suite.ctx)
		store.Contains(suite.ctx, "x")

		kv.AssertExpectations(suite.T())
	})
}

func (suite *StoreTestSuite) TestSave() {
	suite.Run("PrependsNewest", func() {
		first := suite.factory.Saved(recipe.DifficultyEasy)
		second := suite.factory.Saved(recipe.DifficultyHard)

		require.NoError(suite.T(), suite.store.Save(suite.ctx, first))
		require.NoError(suite.T(), suite.store.Save(suite.ctx, second))

		assert.Equal(suite.T(), []string{second.ID, first.ID}, testutils.IDs(suite.store.List(suite.ctx)))
		assert.Equal(suite.T(), []string{second.ID, first.ID}, testutils.IDs(suite.persisted()))
	})

	suite.Run("Idempotent", func() {
		v := suite.factory.Saved(recipe.DifficultyMedium)
		before := len(suite.store.List(suite.ctx))

		require.NoError(suite.T(), suite.store.Save(suite.ctx, v))
		require.NoError(suite.T(), suite.store.Save(suite.ctx, v))

		assert.Len(suite.T(), suite.store.List(suite.ctx), before+1)
	})

	suite.Run("MissingID_ShouldFail", func() {
		err := suite.store.Save(suite.ctx, suite.factory.Variant(recipe.DifficultyEasy))

		assert.True(suite.T(), apperrors.Is(err, apperrors.CodeValidationFailed))
	})
}

func (suite *StoreTestSuite) TestRemoveAndUpdate() {
	a := suite.factory.Saved(recipe.DifficultyEasy)
	b := suite.factory.Saved(recipe.DifficultyMedium)
	require.NoError(suite.T(), suite.store.Save(suite.ctx, a))
	require.NoError(suite.T(), suite.store.Save(suite.ctx, b))

	suite.Run("UpdateReplacesWholesale", func() {
		updated := a
		updated.ImageURL = "data:image/png;base64,AAAA"

		require.NoError(suite.T(), suite.store.Update(suite.ctx, updated))

		got, ok := suite.store.Get(suite.ctx, a.ID)
		require.True(suite.T(), ok)
		assert.Equal(suite.T(), "data:image/png;base64,AAAA", got.ImageURL)
		assert.Equal(suite.T(), []string{b.ID, a.ID}, testutils.IDs(suite.persisted()), "order preserved")
	})

	suite.Run("UpdateAbsent_IsNoop", func() {
		stranger := suite.factory.Saved(recipe.DifficultyHard)

		require.NoError(suite.T(), suite.store.Update(suite.ctx, stranger))

		assert.False(suite.T(), suite.store.Contains(suite.ctx, stranger.ID))
	})

	suite.Run("Patch", func() {
		merged, ok, err := suite.store.Patch(suite.ctx, b.ID, recipe.NamePatch("Renamed"))

		require.NoError(suite.T(), err)
		require.True(suite.T(), ok)
		assert.Equal(suite.T(), "Renamed", merged.Name)
		assert.Equal(suite.T(), b.Steps, merged.Steps)
	})

	suite.Run("Remove", func() {
		require.NoError(suite.T(), suite.store.Remove(suite.ctx, a))
		require.NoError(suite.T(), suite.store.Remove(suite.ctx, a))

		assert.Equal(suite.T(), []string{b.ID}, testutils.IDs(suite.persisted()))
	})
}

func (suite *StoreTestSuite) TestWriteFailure_KeepsInMemoryState() {
	// Arrange
	kv := new(testutils.MockKeyValueStore)
	kv.On("Get", mock.Anything, DefaultKey).Return(nil, outbound.ErrKeyNotFound)
	kv.On("Set", mock.Anything, DefaultKey, mock.Anything).Return(errors.New("quota exceeded"))
	store := NewStore(kv, "", nil, zaptest.NewLogger(suite.T()))
	v := suite.factory.Saved(recipe.DifficultyEasy)

	// Act
	err := store.Save(suite.ctx, v)

	// Assert
	assert.True(suite.T(), apperrors.Is(err, apperrors.CodePersistenceError))
	assert.True(suite.T(), store.Contains(suite.ctx, v.ID))
}

func (suite *StoreTestSuite) TestConcurrentSaves_AreSerialized() {
	variants := make([]recipe.Variant, 20)
	for i := range variants {
		variants[i] = suite.factory.Saved(recipe.DifficultyEasy)
	}

	var g errgroup.Group
	for _, v := range variants {
		g.Go(func() error { return suite.store.Save(suite.ctx, v) })
	}
	require.NoError(suite.T(), g.Wait())

	assert.Len(suite.T(), suite.store.List(suite.ctx), 20)
	assert.Len(suite.T(), suite.persisted(), 20)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
