// Package mock provides an offline generative backend that returns canned,
// contract-valid content. It backs local development and demos when no
// provider credentials are configured.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// placeholderPNG is a 1x1 PNG
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

var (
	baseNamePattern    = regexp.MustCompile(`(?m)^Base Recipe Name:\s*(.+)$`)
	ingredientsPattern = regexp.MustCompile(`(?m)^Ingredients Available:\s*(.+)$`)
)

// Backend is the offline backend
type Backend struct{}

// NewBackend creates the offline backend
func NewBackend() *Backend {
	return &Backend{}
}

// Name identifies the backend
func (b *Backend) Name() string {
	return "mock"
}

// GenerateContent returns one variant per difficulty tier for the base name
// found in the prompt.
func (b *Backend) GenerateContent(_ context.Context, req generation.RecipeSetRequest) (string, error) {
	name := capture(baseNamePattern, req.Prompt, "Receita da Casa")
	ingredients := []string{"sal a gosto", "azeite"}
	if listed := capture(ingredientsPattern, req.Prompt, ""); listed != "" && !strings.EqualFold(listed, "Not specified") {
		ingredients = append(splitList(listed), ingredients...)
	}

	tiers := []struct {
		difficulty recipe.Difficulty
		focus      string
		minutes    string
		steps      []string
		diet       []recipe.DietAttribute
	}{
		{recipe.DifficultyEasy, "Simplified", "25", []string{"Separe os ingredientes.", "Cozinhe tudo junto por 20 minutos.", "Sirva quente."}, []recipe.DietAttribute{recipe.DietQuick}},
		{recipe.DifficultyMedium, "Balanced", "45", []string{"Prepare os ingredientes.", "Refogue a base aromática.", "Cozinhe em fogo médio.", "Ajuste o tempero e sirva."}, []recipe.DietAttribute{recipe.DietLactoseFree}},
		{recipe.DifficultyHard, "Gourmet", "90", []string{"Faça um fundo caseiro.", "Sele os ingredientes principais.", "Reduza o molho.", "Monte o prato em camadas.", "Finalize com ervas frescas."}, []recipe.DietAttribute{recipe.DietGlutenFree, recipe.DietLactoseFree}},
	}

	variants := make([]recipe.Variant, 0, len(tiers))
	for _, tier := range tiers {
		variants = append(variants, recipe.Variant{
			Name:               fmt.Sprintf("%s (%s)", name, tier.focus),
			MealType:           "Almoço",
			VariationFocus:     tier.focus,
			Difficulty:         tier.difficulty,
			EstimatedMinutes:   recipe.Minutes(tier.minutes),
			ChangesSummary:     fmt.Sprintf("Versão %s de %s.", strings.ToLower(tier.focus), name),
			FeedbackResolution: "Sugestões aplicadas conforme o equipamento informado.",
			Ingredients:        append([]string(nil), ingredients...),
			Steps:              tier.steps,
			FlavorProfile:      recipe.FlavorSavory,
			Category:           recipe.CategoryMain,
			MainProtein:        recipe.ProteinNone,
			DietAttributes:     tier.diet,
			SearchKeywords:     []string{strings.ToLower(name), strings.ToLower(tier.focus), "caseiro"},
		})
	}

	data, err := json.Marshal(map[string]any{"recipes": variants})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GenerateImageContent returns a placeholder image
func (b *Backend) GenerateImageContent(_ context.Context, _ generation.ImageRequest) (*generation.ContentResponse, error) {
	return &generation.ContentResponse{Candidates: []generation.Candidate{{Parts: []generation.Part{
		{InlineData: &generation.InlineData{MIMEType: "image/png", Data: placeholderPNG}},
	}}}}, nil
}

// GenerateArrayContent returns generic kitchen safety tips
func (b *Backend) GenerateArrayContent(_ context.Context, _ generation.SafetyRequest) (string, error) {
	data, err := json.Marshal([]string{
		"Lave as mãos antes e depois de manusear alimentos crus.",
		"Mantenha cabos de panelas virados para dentro do fogão.",
		"Use luvas térmicas ao retirar recipientes do forno.",
	})
	return string(data), err
}

// HealthCheck always succeeds
func (b *Backend) HealthCheck(context.Context) error {
	return nil
}

func capture(pattern *regexp.Regexp, text, fallback string) string {
	m := pattern.FindStringSubmatch(text)
	if len(m) < 2 || strings.TrimSpace(m[1]) == "" {
		return fallback
	}
	return strings.TrimSpace(m[1])
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var (
	_ outbound.GenerativeBackend = (*Backend)(nil)
	_ outbound.HealthChecker     = (*Backend)(nil)
)
