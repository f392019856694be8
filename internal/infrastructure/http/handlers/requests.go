package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

const maxBodyBytes = 1 << 20

// ParamsRequest carries the evolution parameters. Enum fields are checked
// by the service, which owns the closed vocabularies.
type ParamsRequest struct {
	BaseName      string   `json:"baseName" validate:"max=200"`
	Feedback      string   `json:"feedback" validate:"max=2000"`
	Ingredients   []string `json:"ingredients" validate:"max=100,dive,max=200"`
	CookingMethod string   `json:"cookingMethod" validate:"max=50"`
	Utensil       string   `json:"utensil" validate:"max=50"`
	Language      string   `json:"language" validate:"omitempty,min=2,max=5"`
}

// Params converts the request to domain parameters
func (r ParamsRequest) Params() generation.Params {
	return generation.Params{
		BaseName:      r.BaseName,
		Feedback:      r.Feedback,
		Ingredients:   r.Ingredients,
		CookingMethod: generation.CookingMethod(r.CookingMethod),
		Utensil:       generation.Utensil(r.Utensil),
		Language:      generation.Language(r.Language),
	}
}

// IngredientRequest adds one ingredient
type IngredientRequest struct {
	Ingredient string `json:"ingredient" validate:"required,max=200"`
}

// LanguageRequest selects the output language
type LanguageRequest struct {
	Language string `json:"language" validate:"required,min=2,max=5"`
}

// RenameRequest renames a recipe
type RenameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

var errEmptyBody = errors.New("empty body")

// decode reads a JSON body into dst and validates it
func decode(r *http.Request, v *validator.Validate, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return apperrors.NewBadRequestError("Invalid JSON payload").WithCause(err)
	}
	return validate(v, dst)
}

func validate(v *validator.Validate, dst interface{}) error {
	err := v.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError(err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: fe.Field() + " failed on " + fe.Tag(),
		})
	}
	return apperrors.NewValidationErrors(out)
}
