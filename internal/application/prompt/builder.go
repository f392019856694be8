// Package prompt turns evolution parameters into backend request descriptors.
// Everything here is pure: no I/O, no clocks.
package prompt

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/alchemorsel/evolver/internal/application/schema"
	"github.com/alchemorsel/evolver/internal/domain/generation"
)

const (
	// DefaultFeedback stands in for an empty feedback field
	DefaultFeedback = "No specific feedback provided. Optimize generally."

	// UnspecifiedIngredients stands in for an empty ingredient list
	UnspecifiedIngredients = "Not specified"

	// ImageAspectRatio is requested for every recipe photo
	ImageAspectRatio = "4:3"

	// DefaultTemperature is the sampling temperature for variant sets
	DefaultTemperature = 0.8

	maxImageIngredients = 5
)

var systemTemplate = template.Must(template.New("system").Parse(`You are an Evolutionary AI Chef and Recipe Cataloger.
Role 1: Transform a base recipe into 3 distinct variations (Easy, Medium, Hard) based on user feedback.
Role 2: Catalog each variation with precise metadata (flavor profile, category, main protein, diet attributes, search keywords).
Role 3: Adapt every variation to the available equipment: cooking method {{.Method}} and utensil {{.Utensil}}.

Input variables:
- Base recipe name
- Base ingredients / pantry
- User feedback
- Cooking method (equipment)
- Specific utensil

Output requirements:
Generate exactly 3 DISTINCT variations, one per difficulty tier:
1. Easy (simplicity focus): quick fixes and simple techniques using {{.Method}} and {{.Utensil}}.
2. Medium (balance focus): the standard, perfected version.
3. Hard (gourmet focus): sophisticated techniques and complex flavors.
Fill every metadata field from the final ingredients and method.

IMPORTANT:
- Respond ENTIRELY in {{.Language}}.
- "difficulty" must be strictly "Easy", "Medium" or "Hard".
- In "feedbackResolution", state explicitly how the feedback was addressed and how the {{.Method}} and {{.Utensil}} are used.
`))

var userTemplate = template.Must(template.New("user").Parse(`Base Recipe Name: {{.BaseName}}
User Feedback: {{.Feedback}}
Ingredients Available: {{.Ingredients}}
Cooking Equipment Available: {{.Method}}
Specific Utensil: {{.Utensil}}

Generate 3 variations (Easy, Medium, Hard) in {{.Language}} with full metadata using {{.Method}} / {{.Utensil}}.
`))

var imageTemplate = template.Must(template.New("image").Parse(`Generate an image of "{{.Name}}".
Key ingredients visible: {{.Ingredients}}.
Style: professional food photography, fine dining plating, shallow depth of field (bokeh), natural light from the side, 85mm lens, ultra-realistic texture.
Environment: rustic wooden table or elegant ceramic plate, garnished with fresh herbs.
Action: freshly cooked, steam slightly visible if the dish is hot.
No text overlay.`))

var safetyTemplate = template.Must(template.New("safety").Parse(`Analyze this recipe for safety hazards.
Recipe: {{.Name}}
Ingredients: {{.Ingredients}}
Steps: {{.Steps}}

Provide 3 to 5 specific safety tips or warnings for this exact recipe (e.g. raw meat handling, hot oil, allergens, sharp tools, pressure cooker safety) in {{.Language}}.
Return ONLY a JSON array of strings. Example: ["Wash hands after handling chicken", "Be careful with hot oil splatter"].
`))

// Builder produces request descriptors for the three generation kinds
type Builder struct {
	temperature float64
}

// NewBuilder creates a builder. A non-positive temperature selects the default.
func NewBuilder(temperature float64) *Builder {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &Builder{temperature: temperature}
}

// RecipeSet builds the variant set request for params
func (b *Builder) RecipeSet(params generation.Params) generation.RecipeSetRequest {
	p := params.Normalize()

	feedback := p.Feedback
	if feedback == "" {
		feedback = DefaultFeedback
	}
	ingredients := UnspecifiedIngredients
	if len(p.Ingredients) > 0 {
		ingredients = strings.Join(p.Ingredients, ", ")
	}

	data := map[string]string{
		"BaseName":    p.BaseName,
		"Feedback":    feedback,
		"Ingredients": ingredients,
		"Method":      string(p.CookingMethod),
		"Utensil":     string(p.Utensil),
		"Language":    p.Language.DisplayName(),
	}

	return generation.RecipeSetRequest{
		SystemInstruction: render(systemTemplate, data),
		Prompt:            render(userTemplate, data),
		Schema:            schema.VariantSetSchema(),
		Temperature:       b.temperature,
	}
}

// Image builds the photo request for a named dish
func (b *Builder) Image(name string, ingredients []string) generation.ImageRequest {
	shown := ingredients
	if len(shown) > maxImageIngredients {
		shown = shown[:maxImageIngredients]
	}

	return generation.ImageRequest{
		Prompt: render(imageTemplate, map[string]string{
			"Name":        name,
			"Ingredients": strings.Join(shown, ", "),
		}),
		AspectRatio: ImageAspectRatio,
	}
}

// Safety builds the safety tips request in the given language
func (b *Builder) Safety(name string, ingredients, steps []string, lang generation.Language) generation.SafetyRequest {
	return generation.SafetyRequest{
		Prompt: render(safetyTemplate, map[string]string{
			"Name":        name,
			"Ingredients": strings.Join(ingredients, ", "),
			"Steps":       strings.Join(steps, " "),
			"Language":    lang.DisplayName(),
		}),
		Schema: schema.StringArraySchema(),
	}
}

func render(tmpl *template.Template, data map[string]string) string {
	var buf bytes.Buffer
	// Templates are static and data is a flat string map, so Execute cannot fail.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
