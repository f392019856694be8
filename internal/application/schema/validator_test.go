package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/alchemorsel/evolver/internal/domain/recipe"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

type ValidatorTestSuite struct {
	suite.Suite
	validator *Validator
}

func (suite *ValidatorTestSuite) SetupTest() {
	suite.validator = NewValidator()
}

func rawVariant(difficulty string) map[string]any {
	return map[string]any{
		"name":               "Moqueca " + difficulty,
		"mealType":           "Jantar",
		"variationFocus":     "Gourmet",
		"difficulty":         difficulty,
		"estimatedMinutes":   "45",
		"changesSummary":     "Leite de coco reduzido",
		"feedbackResolution": "Menos gordura, adaptado para panela de barro",
		"ingredients":        []any{"peixe", "dendê", "leite de coco"},
		"steps":              []any{"Marine o peixe", "Monte as camadas", "Cozinhe"},
		"flavorProfile":      "Salgado",
		"category":           "Prato Principal",
		"mainProtein":        "Peixe/Frutos do Mar",
		"dietAttributes":     []any{"Sem Glúten", "Sem Lactose"},
		"searchKeywords":     []any{"moqueca", "peixe", "baiana"},
	}
}

func rawSet(variants ...map[string]any) map[string]any {
	items := make([]any, len(variants))
	for i, v := range variants {
		items[i] = v
	}
	return map[string]any{"recipes": items}
}

func (suite *ValidatorTestSuite) assertViolation(err error, field string) {
	require.Error(suite.T(), err)
	appErr, ok := apperrors.As(err)
	require.True(suite.T(), ok, "expected AppError, got %T", err)
	assert.Equal(suite.T(), apperrors.CodeSchemaViolation, appErr.Code)
	assert.Equal(suite.T(), field, appErr.Field())
}

func (suite *ValidatorTestSuite) TestValidSet() {
	// Arrange
	easy := rawVariant("Easy")
	easy["id"] = "should-be-ignored"
	easy["imageUrl"] = "data:image/png;base64,AAAA"
	easy["safetyTips"] = []any{"ignored"}

	// Act
	variants, err := suite.validator.Validate(rawSet(easy, rawVariant("Medium"), rawVariant("Hard")))

	// Assert
	require.NoError(suite.T(), err)
	require.Len(suite.T(), variants, 3)
	assert.Empty(suite.T(), variants[0].ID)
	assert.Empty(suite.T(), variants[0].ImageURL)
	assert.Nil(suite.T(), variants[0].SafetyTips)
	assert.Equal(suite.T(), recipe.DifficultyEasy, variants[0].Difficulty)
	assert.Equal(suite.T(), []string{"Marine o peixe", "Monte as camadas", "Cozinhe"}, variants[0].Steps)
	assert.Equal(suite.T(), recipe.ProteinSeafood, variants[0].MainProtein)
	assert.Equal(suite.T(), []recipe.DietAttribute{recipe.DietGlutenFree, recipe.DietLactoseFree}, variants[0].DietAttributes)
	assert.NoError(suite.T(), RequireDifficultyTiers(variants))
}

func (suite *ValidatorTestSuite) TestMissingField() {
	medium := rawVariant("Medium")
	delete(medium, "steps")

	_, err := suite.validator.Validate(rawSet(rawVariant("Easy"), medium, rawVariant("Hard")))

	suite.assertViolation(err, "recipes[1].steps")
}

func (suite *ValidatorTestSuite) TestUnknownDifficulty() {
	_, err := suite.validator.Validate(rawSet(rawVariant("Easy"), rawVariant("Medium"), rawVariant("Expert")))

	suite.assertViolation(err, "recipes[2].difficulty")
}

func (suite *ValidatorTestSuite) TestEnumsAreCaseSensitive() {
	v := rawVariant("Easy")
	v["category"] = "sobremesa"

	_, err := suite.validator.Validate(rawSet(v))

	suite.assertViolation(err, "recipes[0].category")
}

func (suite *ValidatorTestSuite) TestUnknownDietAttribute() {
	v := rawVariant("Easy")
	v["dietAttributes"] = []any{"Vegano", "Keto"}

	_, err := suite.validator.Validate(rawSet(v))

	suite.assertViolation(err, "recipes[0].dietAttributes[1]")
}

func (suite *ValidatorTestSuite) TestEmptyLists() {
	suite.Run("Ingredients", func() {
		v := rawVariant("Easy")
		v["ingredients"] = []any{}

		_, err := suite.validator.Validate(rawSet(v))

		suite.assertViolation(err, "recipes[0].ingredients")
	})

	suite.Run("BlankStep", func() {
		v := rawVariant("Easy")
		v["steps"] = []any{"Cozinhe", ""}

		_, err := suite.validator.Validate(rawSet(v))

		suite.assertViolation(err, "recipes[0].steps[1]")
	})

	suite.Run("TooFewKeywords", func() {
		v := rawVariant("Easy")
		v["searchKeywords"] = []any{"moqueca"}

		_, err := suite.validator.Validate(rawSet(v))

		suite.assertViolation(err, "recipes[0].searchKeywords")
	})
}

func (suite *ValidatorTestSuite) TestWrongTypes() {
	suite.Run("StepsAsString", func() {
		v := rawVariant("Easy")
		v["steps"] = "Cozinhe tudo"

		_, err := suite.validator.Validate(rawSet(v))

		suite.assertViolation(err, "recipes[0].steps")
	})

	suite.Run("NonStringIngredient", func() {
		v := rawVariant("Easy")
		v["ingredients"] = []any{"sal", 3.0}

		_, err := suite.validator.Validate(rawSet(v))

		suite.assertViolation(err, "recipes[0].ingredients[1]")
	})

	suite.Run("NullName", func() {
		v := rawVariant("Easy")
		v["name"] = nil

		_, err := suite.validator.Validate(rawSet(v))

		suite.assertViolation(err, "recipes[0].name")
	})
}

func (suite *ValidatorTestSuite) TestEstimatedMinutes() {
	suite.Run("NumberIsKeptAsLabel", func() {
		v := rawVariant("Easy")
		v["estimatedMinutes"] = 25.0

		variants, err := suite.validator.Validate(rawSet(v))

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), recipe.Minutes("25"), variants[0].EstimatedMinutes)
	})

	suite.Run("BlankIsRejected", func() {
		v := rawVariant("Easy")
		v["estimatedMinutes"] = "  "

		_, err := suite.validator.Validate(rawSet(v))

		suite.assertViolation(err, "recipes[0].estimatedMinutes")
	})

	suite.Run("BooleanIsRejected", func() {
		v := rawVariant("Easy")
		v["estimatedMinutes"] = true

		_, err := suite.validator.Validate(rawSet(v))

		suite.assertViolation(err, "recipes[0].estimatedMinutes")
	})
}

func (suite *ValidatorTestSuite) TestEnvelope() {
	cases := map[string]any{
		"NotAnObject":  []any{rawVariant("Easy")},
		"MissingField": map[string]any{"variants": []any{}},
		"NotAnArray":   map[string]any{"recipes": "none"},
		"EmptyArray":   map[string]any{"recipes": []any{}},
	}
	for name, raw := range cases {
		suite.Run(name, func() {
			_, err := suite.validator.Validate(raw)
			suite.assertViolation(err, "recipes")
		})
	}
}

func (suite *ValidatorTestSuite) TestValidateJSON() {
	data, err := json.Marshal(rawSet(rawVariant("Easy")))
	require.NoError(suite.T(), err)

	variants, err := suite.validator.ValidateJSON(data)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), variants, 1)

	_, err = suite.validator.ValidateJSON([]byte("{not json"))
	suite.assertViolation(err, "recipes")
}

func (suite *ValidatorTestSuite) TestRequireDifficultyTiers() {
	v := func(d recipe.Difficulty) recipe.Variant { return recipe.Variant{Difficulty: d} }

	suite.Run("WrongCount", func() {
		err := RequireDifficultyTiers([]recipe.Variant{v(recipe.DifficultyEasy), v(recipe.DifficultyHard)})
		suite.assertViolation(err, "recipes")
	})

	suite.Run("DuplicateTier", func() {
		err := RequireDifficultyTiers([]recipe.Variant{
			v(recipe.DifficultyEasy), v(recipe.DifficultyEasy), v(recipe.DifficultyHard),
		})
		suite.assertViolation(err, "recipes[1].difficulty")
	})

	suite.Run("AnyOrder", func() {
		assert.NoError(suite.T(), RequireDifficultyTiers([]recipe.Variant{
			v(recipe.DifficultyHard), v(recipe.DifficultyEasy), v(recipe.DifficultyMedium),
		}))
	})
}

func (suite *ValidatorTestSuite) TestParseStringArray() {
	tips, err := ParseStringArray([]any{" Use luvas ", "", "Cuidado com o vapor"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"Use luvas", "Cuidado com o vapor"}, tips)

	_, err = ParseStringArray(map[string]any{"tips": []any{"x"}})
	suite.assertViolation(err, "$")

	_, err = ParseStringArray([]any{})
	suite.assertViolation(err, "$")
}

func (suite *ValidatorTestSuite) TestSchemas() {
	set := VariantSetSchema()
	require.Contains(suite.T(), set.Properties, "recipes")
	items := set.Properties["recipes"].Items
	assert.Len(suite.T(), items.Required, 14)
	assert.Equal(suite.T(), []string{"Easy", "Medium", "Hard"}, items.Properties["difficulty"].Enum)
	assert.Contains(suite.T(), items.Properties["dietAttributes"].Items.Enum, "Rápido (<30min)")
	assert.Equal(suite.T(), 3, *set.Properties["recipes"].MaxItems)

	tips := StringArraySchema()
	assert.Equal(suite.T(), "array", tips.Type)
	assert.Equal(suite.T(), "string", tips.Items.Type)
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}
