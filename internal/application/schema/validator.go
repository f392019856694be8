package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alchemorsel/evolver/internal/domain/recipe"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

// Validator enforces the variant contract on raw generated output
type Validator struct {
	validate *validator.Validate
}

// variantDoc is the typed form of one variant once its shape is known to be
// right. Vocabulary checks run on it through the registered validations.
type variantDoc struct {
	Name               string   `json:"name" validate:"required"`
	MealType           string   `json:"mealType" validate:"required"`
	VariationFocus     string   `json:"variationFocus" validate:"required"`
	Difficulty         string   `json:"difficulty" validate:"difficulty"`
	EstimatedMinutes   string   `json:"estimatedMinutes" validate:"required"`
	ChangesSummary     string   `json:"changesSummary" validate:"required"`
	FeedbackResolution string   `json:"feedbackResolution" validate:"required"`
	Ingredients        []string `json:"ingredients" validate:"min=1,dive,required"`
	Steps              []string `json:"steps" validate:"min=1,dive,required"`
	FlavorProfile      string   `json:"flavorProfile" validate:"flavor"`
	Category           string   `json:"category" validate:"category"`
	MainProtein        string   `json:"mainProtein" validate:"protein"`
	DietAttributes     []string `json:"dietAttributes" validate:"dive,diet"`
	SearchKeywords     []string `json:"searchKeywords" validate:"min=3,max=5,dive,required"`
}

// NewValidator creates a validator with the recipe vocabularies registered
func NewValidator() *Validator {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register vocabulary rules. Matching is case sensitive.
	validate.RegisterValidation("difficulty", vocabulary(recipe.Difficulties))
	validate.RegisterValidation("flavor", vocabulary(recipe.FlavorProfiles))
	validate.RegisterValidation("category", vocabulary(recipe.Categories))
	validate.RegisterValidation("protein", vocabulary(recipe.MainProteins))
	validate.RegisterValidation("diet", vocabulary(recipe.DietAttributes))

	return &Validator{validate: validate}
}

// ValidateJSON parses data and validates it as a variant set
func (v *Validator) ValidateJSON(data []byte) ([]recipe.Variant, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewSchemaViolationError(EnvelopeField, "payload is not valid JSON").WithCause(err)
	}
	return v.Validate(raw)
}

// Validate checks a generic parsed JSON value against the variant set
// contract and returns typed variants without ids. Any id, imageUrl or
// safetyTips present on input is ignored.
func (v *Validator) Validate(raw any) ([]recipe.Variant, error) {
	envelope, ok := raw.(map[string]any)
	if !ok {
		return nil, apperrors.NewSchemaViolationError(EnvelopeField, "expected an object with a recipes array")
	}
	field, present := envelope[EnvelopeField]
	if !present {
		return nil, apperrors.NewSchemaViolationError(EnvelopeField, "required field missing")
	}
	items, ok := field.([]any)
	if !ok {
		return nil, apperrors.NewSchemaViolationError(EnvelopeField, "expected an array")
	}
	if len(items) == 0 {
		return nil, apperrors.NewSchemaViolationError(EnvelopeField, "expected at least one recipe")
	}

	variants := make([]recipe.Variant, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", EnvelopeField, i)
		variant, err := v.validateVariant(path, item)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

func (v *Validator) validateVariant(path string, item any) (recipe.Variant, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return recipe.Variant{}, apperrors.NewSchemaViolationError(path, "expected an object")
	}

	// Shape pass: presence and JSON types, in contract order
	doc := variantDoc{}
	values := make(map[string]any, len(variantFields))
	for _, f := range variantFields {
		fieldPath := path + "." + f.name
		value, present := obj[f.name]
		if !present || value == nil {
			return recipe.Variant{}, apperrors.NewSchemaViolationError(fieldPath, "required field missing")
		}
		normalized, err := checkShape(fieldPath, f, value)
		if err != nil {
			return recipe.Variant{}, err
		}
		values[f.name] = normalized
	}

	encoded, err := json.Marshal(values)
	if err != nil {
		return recipe.Variant{}, apperrors.NewSchemaViolationError(path, "unencodable value").WithCause(err)
	}
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return recipe.Variant{}, apperrors.NewSchemaViolationError(path, "unexpected value type").WithCause(err)
	}

	// Rule pass: emptiness, bounds and vocabularies
	if err := v.validate.Struct(doc); err != nil {
		return recipe.Variant{}, v.translate(path, err)
	}

	return doc.toVariant(), nil
}

// checkShape verifies the JSON type of one field and returns the value in a
// form variantDoc can decode.
func checkShape(fieldPath string, f fieldSpec, value any) (any, error) {
	switch f.kind {
	case kindText, kindEnum:
		s, ok := value.(string)
		if !ok {
			return nil, apperrors.NewSchemaViolationError(fieldPath, "expected a string")
		}
		return s, nil
	case kindLabel:
		switch typed := value.(type) {
		case string:
			return strings.TrimSpace(typed), nil
		case float64:
			return strconv.FormatFloat(typed, 'f', -1, 64), nil
		case json.Number:
			return typed.String(), nil
		default:
			return nil, apperrors.NewSchemaViolationError(fieldPath, "expected a string or number")
		}
	case kindTextList, kindEnumList:
		list, ok := value.([]any)
		if !ok {
			return nil, apperrors.NewSchemaViolationError(fieldPath, "expected an array")
		}
		out := make([]string, len(list))
		for i, entry := range list {
			s, ok := entry.(string)
			if !ok {
				return nil, apperrors.NewSchemaViolationError(fmt.Sprintf("%s[%d]", fieldPath, i), "expected a string")
			}
			out[i] = s
		}
		return out, nil
	}
	return value, nil
}

// translate maps the first validator failure onto a schema violation
func (v *Validator) translate(path string, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return apperrors.NewSchemaViolationError(path, err.Error()).WithCause(err)
	}

	e := validationErrors[0]
	fieldPath := path + "." + e.Field()

	var reason string
	switch e.Tag() {
	case "required":
		reason = "must not be empty"
	case "min":
		reason = fmt.Sprintf("must contain at least %s entries", e.Param())
	case "max":
		reason = fmt.Sprintf("must contain at most %s entries", e.Param())
	case "difficulty", "flavor", "category", "protein", "diet":
		reason = fmt.Sprintf("unknown value %q", e.Value())
	default:
		reason = fmt.Sprintf("failed %s rule", e.Tag())
	}
	return apperrors.NewSchemaViolationError(fieldPath, reason).WithCause(err)
}

func (d variantDoc) toVariant() recipe.Variant {
	diet := make([]recipe.DietAttribute, 0, len(d.DietAttributes))
	seen := make(map[recipe.DietAttribute]bool, len(d.DietAttributes))
	for _, attr := range d.DietAttributes {
		a := recipe.DietAttribute(attr)
		if seen[a] {
			continue
		}
		seen[a] = true
		diet = append(diet, a)
	}

	return recipe.Variant{
		Name:               strings.TrimSpace(d.Name),
		MealType:           d.MealType,
		VariationFocus:     d.VariationFocus,
		Difficulty:         recipe.Difficulty(d.Difficulty),
		EstimatedMinutes:   recipe.Minutes(d.EstimatedMinutes),
		ChangesSummary:     d.ChangesSummary,
		FeedbackResolution: d.FeedbackResolution,
		Ingredients:        d.Ingredients,
		Steps:              d.Steps,
		FlavorProfile:      recipe.FlavorProfile(d.FlavorProfile),
		Category:           recipe.Category(d.Category),
		MainProtein:        recipe.MainProtein(d.MainProtein),
		DietAttributes:     diet,
		SearchKeywords:     d.SearchKeywords,
	}
}

// RequireDifficultyTiers checks that a variant set holds exactly one
// variant per difficulty tier.
func RequireDifficultyTiers(variants []recipe.Variant) error {
	if len(variants) != len(recipe.Difficulties) {
		return apperrors.NewSchemaViolationError(
			EnvelopeField,
			fmt.Sprintf("expected %d recipes, got %d", len(recipe.Difficulties), len(variants)),
		)
	}
	seen := make(map[recipe.Difficulty]bool, len(variants))
	for i, v := range variants {
		if seen[v.Difficulty] {
			return apperrors.NewSchemaViolationError(
				fmt.Sprintf("%s[%d].difficulty", EnvelopeField, i),
				fmt.Sprintf("duplicate tier %q", v.Difficulty),
			)
		}
		seen[v.Difficulty] = true
	}
	return nil
}

// ParseStringArray validates a flat list of non-empty strings
func ParseStringArray(raw any) ([]string, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, apperrors.NewSchemaViolationError("$", "expected an array of strings")
	}
	out := make([]string, 0, len(list))
	for i, entry := range list {
		s, ok := entry.(string)
		if !ok {
			return nil, apperrors.NewSchemaViolationError(fmt.Sprintf("$[%d]", i), "expected a string")
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, apperrors.NewSchemaViolationError("$", "expected at least one entry")
	}
	return out, nil
}

func vocabulary[T ~string](values []T) validator.Func {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[string(v)] = true
	}
	return func(fl validator.FieldLevel) bool {
		return allowed[fl.Field().String()]
	}
}
