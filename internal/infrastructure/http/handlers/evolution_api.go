package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/ports/inbound"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

// EvolutionAPIHandlers serves the parameter, generation and notebook endpoints
type EvolutionAPIHandlers struct {
	evolution  inbound.EvolutionService
	enrichment inbound.EnrichmentService
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewEvolutionAPIHandlers creates the handlers
func NewEvolutionAPIHandlers(
	evolution inbound.EvolutionService,
	enrichment inbound.EnrichmentService,
	logger *zap.Logger,
) *EvolutionAPIHandlers {
	return &EvolutionAPIHandlers{
		evolution:  evolution,
		enrichment: enrichment,
		validate:   validator.New(),
		logger:     logger.Named("evolution-api"),
	}
}

// StateResponse is the snapshot plus the enrichment requests in flight
type StateResponse struct {
	inbound.Snapshot
	Busy map[string][]recipe.EnrichmentKind `json:"busy"`
}

// State handles GET /api/v1/state
func (h *EvolutionAPIHandlers) State(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.logger, http.StatusOK, StateResponse{
		Snapshot: h.evolution.Snapshot(r.Context()),
		Busy:     h.enrichment.InFlight(),
	}, "")
}

// GetParams handles GET /api/v1/params
func (h *EvolutionAPIHandlers) GetParams(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.logger, http.StatusOK, h.evolution.Params(), "")
}

// ReplaceParams handles PUT /api/v1/params
func (h *EvolutionAPIHandlers) ReplaceParams(w http.ResponseWriter, r *http.Request) {
	var req ParamsRequest
	if err := decode(r, h.validate, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	params, err := h.evolution.SetParams(req.Params())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, params, "Parameters updated")
}

// AddIngredient handles POST /api/v1/params/ingredients
func (h *EvolutionAPIHandlers) AddIngredient(w http.ResponseWriter, r *http.Request) {
	var req IngredientRequest
	if err := decode(r, h.validate, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, h.evolution.AddIngredient(req.Ingredient), "")
}

// RemoveIngredient handles DELETE /api/v1/params/ingredients/{index}
func (h *EvolutionAPIHandlers) RemoveIngredient(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, h.logger, apperrors.NewBadRequestError("Ingredient index must be an integer"))
		return
	}

	params, err := h.evolution.RemoveIngredient(index)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, params, "")
}

// SetLanguage handles PUT /api/v1/params/language
func (h *EvolutionAPIHandlers) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if err := decode(r, h.validate, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.evolution.SetLanguage(generation.Language(req.Language)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, h.evolution.Params(), "Language updated")
}

// Generate handles POST /api/v1/generate. An empty body evolves the
// captured parameters.
func (h *EvolutionAPIHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	params := h.evolution.Params()

	var req ParamsRequest
	switch err := decode(r, h.validate, &req); {
	case err == nil:
		params = req.Params()
	case errors.Is(err, errEmptyBody):
	default:
		writeError(w, r, h.logger, err)
		return
	}

	variants, err := h.evolution.Evolve(r.Context(), params)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, variants, "Variations generated")
}

// Notebook handles GET /api/v1/notebook
func (h *EvolutionAPIHandlers) Notebook(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.logger, http.StatusOK, h.evolution.Notebook(r.Context()), "")
}

// Save handles POST /api/v1/recipes/{id}/save
func (h *EvolutionAPIHandlers) Save(w http.ResponseWriter, r *http.Request) {
	v, err := h.evolution.Save(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, v, "Recipe saved")
}

// Remove handles DELETE /api/v1/recipes/{id}
func (h *EvolutionAPIHandlers) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.evolution.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, nil, "Recipe removed")
}

// Remix handles POST /api/v1/recipes/{id}/remix
func (h *EvolutionAPIHandlers) Remix(w http.ResponseWriter, r *http.Request) {
	seed, err := h.evolution.RemixByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, seed, "Parameters seeded from recipe")
}

// Rename handles PUT /api/v1/recipes/{id}/name
func (h *EvolutionAPIHandlers) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := decode(r, h.validate, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	v, err := h.evolution.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, v, "Recipe renamed")
}

// Select handles POST /api/v1/recipes/{id}/select
func (h *EvolutionAPIHandlers) Select(w http.ResponseWriter, r *http.Request) {
	v, err := h.evolution.Select(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, v, "")
}

// ClearSelection handles DELETE /api/v1/selection
func (h *EvolutionAPIHandlers) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.evolution.ClearSelection()
	writeData(w, h.logger, http.StatusOK, nil, "")
}

// RequestImage handles POST /api/v1/recipes/{id}/image
func (h *EvolutionAPIHandlers) RequestImage(w http.ResponseWriter, r *http.Request) {
	result, err := h.enrichment.RequestImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, result, "")
}

// RequestSafetyTips handles POST /api/v1/recipes/{id}/safety
func (h *EvolutionAPIHandlers) RequestSafetyTips(w http.ResponseWriter, r *http.Request) {
	result, err := h.enrichment.RequestSafetyTips(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, result, "")
}

func (h *EvolutionAPIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errEmptyBody) {
		err = apperrors.NewBadRequestError("Request body is required")
	}
	writeError(w, r, h.logger, err)
}
