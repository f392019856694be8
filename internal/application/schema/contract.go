// Package schema defines the recipe contract handed to generative backends
// and enforces it on whatever comes back.
package schema

import (
	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
)

// EnvelopeField is the single array field of a variant set document
const EnvelopeField = "recipes"

type fieldKind int

const (
	kindText fieldKind = iota
	kindLabel
	kindTextList
	kindEnum
	kindEnumList
)

type fieldSpec struct {
	name        string
	kind        fieldKind
	description string
	enum        []string
}

// variantFields is the ordered field contract of one variant. Order matters:
// the first offending field reported follows it.
var variantFields = []fieldSpec{
	{name: "name", kind: kindText, description: "Creative name of the variation"},
	{name: "mealType", kind: kindText, description: "Meal type, e.g. dinner or brunch"},
	{name: "variationFocus", kind: kindText, description: "Focus of the variation, e.g. Simplified, Gourmet, Healthy"},
	{name: "difficulty", kind: kindEnum, description: "Difficulty tier", enum: enumStrings(recipe.Difficulties)},
	{name: "estimatedMinutes", kind: kindLabel, description: "Estimated total time in minutes"},
	{name: "changesSummary", kind: kindText, description: "Summary of what changed from the base recipe"},
	{name: "feedbackResolution", kind: kindText, description: "How the feedback and the equipment were addressed"},
	{name: "ingredients", kind: kindTextList, description: "Ingredient list with quantities"},
	{name: "steps", kind: kindTextList, description: "Ordered preparation steps"},
	{name: "flavorProfile", kind: kindEnum, description: "Dominant flavor", enum: enumStrings(recipe.FlavorProfiles)},
	{name: "category", kind: kindEnum, description: "Menu category", enum: enumStrings(recipe.Categories)},
	{name: "mainProtein", kind: kindEnum, description: "Main protein", enum: enumStrings(recipe.MainProteins)},
	{name: "dietAttributes", kind: kindEnumList, description: "Dietary attributes that apply", enum: enumStrings(recipe.DietAttributes)},
	{name: "searchKeywords", kind: kindTextList, description: "3 to 5 search keywords"},
}

const (
	minKeywords = 3
	maxKeywords = 5
	minTips     = 3
	maxTips     = 5
)

// VariantSetSchema returns the variant set contract in backend schema form
func VariantSetSchema() *generation.Schema {
	props := make(map[string]*generation.Schema, len(variantFields))
	required := make([]string, 0, len(variantFields))
	for _, f := range variantFields {
		props[f.name] = f.schema()
		required = append(required, f.name)
	}

	minSet := len(recipe.Difficulties)
	maxSet := len(recipe.Difficulties)
	return &generation.Schema{
		Type:     generation.TypeObject,
		Required: []string{EnvelopeField},
		Properties: map[string]*generation.Schema{
			EnvelopeField: {
				Type:     generation.TypeArray,
				MinItems: &minSet,
				MaxItems: &maxSet,
				Items: &generation.Schema{
					Type:       generation.TypeObject,
					Properties: props,
					Required:   required,
				},
			},
		},
	}
}

// StringArraySchema returns the contract of a flat safety tip list
func StringArraySchema() *generation.Schema {
	minItems, maxItems := minTips, maxTips
	return &generation.Schema{
		Type:     generation.TypeArray,
		MinItems: &minItems,
		MaxItems: &maxItems,
		Items:    &generation.Schema{Type: generation.TypeString},
	}
}

func (f fieldSpec) schema() *generation.Schema {
	switch f.kind {
	case kindTextList:
		s := &generation.Schema{
			Type:        generation.TypeArray,
			Description: f.description,
			Items:       &generation.Schema{Type: generation.TypeString},
		}
		if f.name == "searchKeywords" {
			minItems, maxItems := minKeywords, maxKeywords
			s.MinItems, s.MaxItems = &minItems, &maxItems
		}
		return s
	case kindEnumList:
		return &generation.Schema{
			Type:        generation.TypeArray,
			Description: f.description,
			Items:       &generation.Schema{Type: generation.TypeString, Enum: f.enum},
		}
	case kindEnum:
		return &generation.Schema{Type: generation.TypeString, Description: f.description, Enum: f.enum}
	default:
		return &generation.Schema{Type: generation.TypeString, Description: f.description}
	}
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
