// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"encoding/json"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
)

// VariantFactory creates valid recipe variants
type VariantFactory struct {
	faker *gofakeit.Faker
}

// NewVariantFactory creates a new variant factory with seeded faker
func NewVariantFactory(seed int64) *VariantFactory {
	return &VariantFactory{
		faker: gofakeit.New(seed),
	}
}

// Variant creates a variant for the given tier, without id
func (f *VariantFactory) Variant(difficulty recipe.Difficulty) recipe.Variant {
	ingredients := make([]string, 0, 6)
	for i := 0; i < 3+f.faker.Number(0, 3); i++ {
		ingredients = append(ingredients, fmt.Sprintf("%d g %s", f.faker.Number(10, 500), f.faker.Noun()))
	}
	steps := make([]string, 0, 5)
	for i := 0; i < 2+f.faker.Number(0, 3); i++ {
		steps = append(steps, f.faker.Sentence(8))
	}

	return recipe.Variant{
		Name:               f.faker.Sentence(3),
		MealType:           f.faker.RandomString([]string{"Almoço", "Jantar", "Café da manhã"}),
		VariationFocus:     f.faker.RandomString([]string{"Simplified", "Balanced", "Gourmet"}),
		Difficulty:         difficulty,
		EstimatedMinutes:   recipe.Minutes(fmt.Sprintf("%d", f.faker.Number(10, 180))),
		ChangesSummary:     f.faker.Sentence(10),
		FeedbackResolution: f.faker.Sentence(12),
		Ingredients:        ingredients,
		Steps:              steps,
		FlavorProfile:      recipe.FlavorProfiles[f.faker.Number(0, len(recipe.FlavorProfiles)-1)],
		Category:           recipe.Categories[f.faker.Number(0, len(recipe.Categories)-1)],
		MainProtein:        recipe.MainProteins[f.faker.Number(0, len(recipe.MainProteins)-1)],
		DietAttributes:     []recipe.DietAttribute{recipe.DietAttributes[f.faker.Number(0, len(recipe.DietAttributes)-1)]},
		SearchKeywords:     []string{f.faker.Noun(), f.faker.Adjective(), f.faker.Verb()},
	}
}

// VariantSet creates one variant per tier, without ids
func (f *VariantFactory) VariantSet() []recipe.Variant {
	out := make([]recipe.Variant, 0, len(recipe.Difficulties))
	for _, d := range recipe.Difficulties {
		out = append(out, f.Variant(d))
	}
	return out
}

// Saved creates a variant that already carries an id
func (f *VariantFactory) Saved(difficulty recipe.Difficulty) recipe.Variant {
	v := f.Variant(difficulty)
	v.ID = uuid.NewString()
	return v
}

// Params creates valid evolution parameters
func (f *VariantFactory) Params() generation.Params {
	return generation.Params{
		BaseName:      f.faker.Sentence(2),
		Feedback:      f.faker.Sentence(6),
		Ingredients:   []string{f.faker.Noun(), f.faker.Noun()},
		CookingMethod: generation.MethodOven,
		Utensil:       generation.UtensilBakingSheet,
		Language:      generation.LanguageEnglish,
	}
}

// VariantSetJSON renders variants the way a backend returns them
func VariantSetJSON(variants []recipe.Variant) string {
	data, err := json.Marshal(map[string]any{"recipes": variants})
	if err != nil {
		panic(err)
	}
	return string(data)
}

// StringArrayJSON renders a flat JSON string array
func StringArrayJSON(items ...string) string {
	data, err := json.Marshal(items)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// TinyPNG is a 1x1 transparent PNG, base64 encoded
const TinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// ImageResponse builds a backend response carrying one inline PNG
func ImageResponse() *generation.ContentResponse {
	return &generation.ContentResponse{Candidates: []generation.Candidate{{Parts: []generation.Part{
		{InlineData: &generation.InlineData{MIMEType: "image/png", Data: TinyPNG}},
	}}}}
}

// TextOnlyResponse builds a backend response without image data
func TextOnlyResponse(text string) *generation.ContentResponse {
	return &generation.ContentResponse{Candidates: []generation.Candidate{{Parts: []generation.Part{{Text: text}}}}}
}
