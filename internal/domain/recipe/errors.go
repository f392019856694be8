package recipe

import "errors"

// Domain errors for recipe variants

var (
	ErrMissingID         = errors.New("recipe has no id and cannot be persisted")
	ErrBlankName         = errors.New("recipe name must not be blank")
	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrIDAlreadyAssigned = errors.New("recipe id is immutable once assigned")
)
