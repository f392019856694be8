// Package evolution orchestrates the recipe evolution workflow: parameter
// capture, variant generation, the saved notebook and the displayed recipe.
package evolution

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/application/collection"
	"github.com/alchemorsel/evolver/internal/application/prompt"
	"github.com/alchemorsel/evolver/internal/application/schema"
	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/domain/shared"
	"github.com/alchemorsel/evolver/internal/ports/inbound"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

// GenericErrorMessage is the user-facing text of a failed evolution
const GenericErrorMessage = "Error processing. Please check data and try again."

// ErrSuperseded is returned to an evolution whose result arrived after a
// newer evolution had started.
var ErrSuperseded = stderrors.New("superseded by a newer evolution")

// Generator produces validated variant sets
type Generator interface {
	GenerateVariants(ctx context.Context, req generation.RecipeSetRequest) ([]recipe.Variant, error)
}

// IDGenerator returns a fresh entity id
type IDGenerator func() string

// Facade is the orchestrator. View state is guarded by mu, which is never
// held across a backend call or a store operation.
type Facade struct {
	builder   *prompt.Builder
	generator Generator
	store     *collection.Store
	publisher outbound.EventPublisher
	logger    *zap.Logger
	newID     IDGenerator

	mu        sync.Mutex
	phase     inbound.Phase
	params    generation.Params
	working   []recipe.Variant
	displayed *recipe.Variant
	lastError string
	epoch     uint64
}

// Option configures a Facade
type Option func(*Facade)

// WithIDGenerator replaces the uuid generator
func WithIDGenerator(gen IDGenerator) Option {
	return func(f *Facade) {
		f.newID = gen
	}
}

// NewFacade creates the orchestrator and loads the saved collection
func NewFacade(
	ctx context.Context,
	builder *prompt.Builder,
	gen Generator,
	store *collection.Store,
	publisher outbound.EventPublisher,
	logger *zap.Logger,
	opts ...Option,
) *Facade {
	if publisher == nil {
		publisher = outbound.NopPublisher{}
	}
	f := &Facade{
		builder:   builder,
		generator: gen,
		store:     store,
		publisher: publisher,
		logger:    logger.Named("evolution"),
		newID:     uuid.NewString,
		phase:     inbound.PhaseIdle,
		params:    generation.DefaultParams(),
		working:   []recipe.Variant{},
	}
	for _, opt := range opts {
		opt(f)
	}
	store.Load(ctx)
	return f
}

// Params returns the captured parameters
func (f *Facade) Params() generation.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneParams(f.params)
}

// SetParams replaces the captured parameters. A blank base name is accepted
// here; it is only rejected when evolving.
func (f *Facade) SetParams(params generation.Params) (generation.Params, error) {
	params = params.Normalize()
	if err := validateCapture(params); err != nil {
		return f.Params(), err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyLanguageLocked(params.Language)
	f.params = params
	return cloneParams(f.params), nil
}

// SetBaseName captures the base recipe name
func (f *Facade) SetBaseName(name string) {
	f.update(func(p *generation.Params) { p.BaseName = name })
}

// SetFeedback captures the improvement feedback
func (f *Facade) SetFeedback(feedback string) {
	f.update(func(p *generation.Params) { p.Feedback = feedback })
}

// AddIngredient appends a trimmed ingredient unless blank or already listed
func (f *Facade) AddIngredient(ingredient string) generation.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.Ingredients = generation.AddIngredient(cloneStrings(f.params.Ingredients), ingredient)
	return cloneParams(f.params)
}

// RemoveIngredient removes the ingredient at index
func (f *Facade) RemoveIngredient(index int) (generation.Params, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, err := generation.RemoveIngredient(f.params.Ingredients, index)
	if err != nil {
		return cloneParams(f.params), apperrors.NewValidationError(err.Error()).WithCause(err)
	}
	f.params.Ingredients = list
	return cloneParams(f.params), nil
}

// SetCookingMethod captures the cooking method
func (f *Facade) SetCookingMethod(method generation.CookingMethod) error {
	if !method.Valid() {
		return apperrors.NewValidationError(generation.ErrUnknownMethod.Error()).WithCause(generation.ErrUnknownMethod)
	}
	f.update(func(p *generation.Params) { p.CookingMethod = method })
	return nil
}

// SetUtensil captures the main utensil
func (f *Facade) SetUtensil(utensil generation.Utensil) error {
	if !utensil.Valid() {
		return apperrors.NewValidationError(generation.ErrUnknownUtensil.Error()).WithCause(generation.ErrUnknownUtensil)
	}
	f.update(func(p *generation.Params) { p.Utensil = utensil })
	return nil
}

// SetLanguage selects the output language. Changing it discards the working
// set and any evolution still in flight, both produced in the previous
// language.
func (f *Facade) SetLanguage(lang generation.Language) error {
	if !lang.Valid() {
		return apperrors.NewValidationError(generation.ErrUnsupportedLang.Error()).
			WithCause(generation.ErrUnsupportedLang).
			WithMetadata("language", string(lang))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyLanguageLocked(lang)
	f.params.Language = lang
	return nil
}

func (f *Facade) applyLanguageLocked(lang generation.Language) {
	if lang == f.params.Language {
		return
	}
	f.epoch++
	if len(f.working) == 0 && f.phase != inbound.PhaseGenerating {
		return
	}
	f.logger.Debug("Language changed, discarding working set",
		zap.String("from", string(f.params.Language)),
		zap.String("to", string(lang)),
		zap.String("phase", string(f.phase)),
	)
	f.working = []recipe.Variant{}
	f.phase = inbound.PhasePopulated
}

func (f *Facade) update(fn func(p *generation.Params)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.params)
}

// Evolve generates a new tiered variant set from params and makes it the
// working set. On failure the working set stays empty and the phase is
// Failed with the generic message in the last-error slot.
func (f *Facade) Evolve(ctx context.Context, params generation.Params) ([]recipe.Variant, error) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error()).WithCause(err)
	}

	f.mu.Lock()
	f.params = params
	f.working = []recipe.Variant{}
	f.phase = inbound.PhaseGenerating
	f.lastError = ""
	f.epoch++
	epoch := f.epoch
	f.mu.Unlock()

	variants, err := f.generate(ctx, params)

	f.mu.Lock()
	if epoch != f.epoch {
		f.mu.Unlock()
		f.logger.Info("Discarding stale variant set", zap.String("base_name", params.BaseName))
		return nil, apperrors.NewGenerationFailedError(ErrSuperseded.Error(), ErrSuperseded)
	}
	if err != nil {
		f.phase = inbound.PhaseFailed
		f.lastError = GenericErrorMessage
		f.mu.Unlock()
		f.logger.Error("Evolution failed",
			zap.String("base_name", params.BaseName),
			zap.String("code", string(apperrors.GetCode(err))),
			zap.Error(err),
		)
		return nil, apperrors.NewGenerationFailedError(GenericErrorMessage, err)
	}
	f.working = variants
	f.phase = inbound.PhasePopulated
	f.mu.Unlock()

	f.logger.Info("Variant set generated",
		zap.String("base_name", params.BaseName),
		zap.Strings("recipe_ids", ids(variants)),
	)
	f.publish(ctx, recipe.VariantsGeneratedEvent{
		BaseName:    params.BaseName,
		VariantIDs:  ids(variants),
		Language:    string(params.Language),
		GeneratedAt: time.Now(),
	})
	return cloneAll(variants), nil
}

func (f *Facade) generate(ctx context.Context, params generation.Params) ([]recipe.Variant, error) {
	variants, err := f.generator.GenerateVariants(ctx, f.builder.RecipeSet(params))
	if err != nil {
		return nil, err
	}
	if err := schema.RequireDifficultyTiers(variants); err != nil {
		return nil, err
	}

	out := make([]recipe.Variant, 0, len(variants))
	for _, v := range variants {
		identified, err := v.WithID(f.newID())
		if err != nil {
			return nil, apperrors.NewInternalError("assign recipe id").WithCause(err)
		}
		out = append(out, identified)
	}
	return out, nil
}

// Remix seeds a new evolution from v: its name and ingredients become the
// captured parameters, feedback is cleared and the working set is emptied.
func (f *Facade) Remix(v recipe.Variant) generation.Seed {
	seed := generation.Seed{
		BaseName:    v.Name,
		Ingredients: cloneStrings(v.Ingredients),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.BaseName = seed.BaseName
	f.params.Ingredients = cloneStrings(seed.Ingredients)
	f.params.Feedback = ""
	f.epoch++
	f.working = []recipe.Variant{}
	f.phase = inbound.PhasePopulated
	f.displayed = nil
	return seed
}

// RemixByID resolves id and remixes it
func (f *Facade) RemixByID(ctx context.Context, id string) (generation.Seed, error) {
	v, ok := f.Find(ctx, id)
	if !ok {
		return generation.Seed{}, apperrors.NewNotFoundError("recipe", id)
	}
	return f.Remix(v), nil
}

// Save promotes the entity with id into the notebook. A failed write is
// logged; the notebook still holds the entity for this session.
func (f *Facade) Save(ctx context.Context, id string) (recipe.Variant, error) {
	v, ok := f.Find(ctx, id)
	if !ok {
		return recipe.Variant{}, apperrors.NewNotFoundError("recipe", id)
	}
	if err := f.store.Save(ctx, v); err != nil {
		if !apperrors.Is(err, apperrors.CodePersistenceError) {
			return recipe.Variant{}, err
		}
		f.logger.Warn("Saved recipe was not persisted", zap.String("recipe_id", id), zap.Error(err))
	}
	f.publish(ctx, recipe.RecipeSavedEvent{RecipeID: v.ID, Name: v.Name, SavedAt: time.Now()})
	return v, nil
}

// Remove deletes the entity with id from the notebook. Removing an entity
// that is not saved is a no-op.
func (f *Facade) Remove(ctx context.Context, id string) error {
	v, ok := f.store.Get(ctx, id)
	if !ok {
		return nil
	}
	if err := f.store.Remove(ctx, v); err != nil {
		f.logger.Warn("Recipe removal was not persisted", zap.String("recipe_id", id), zap.Error(err))
	}

	f.mu.Lock()
	if f.displayed != nil && f.displayed.ID == id {
		f.displayed = nil
	}
	f.mu.Unlock()

	f.publish(ctx, recipe.RecipeRemovedEvent{RecipeID: id, RemovedAt: time.Now()})
	return nil
}

// Rename changes the display name of the entity with id in every view
func (f *Facade) Rename(ctx context.Context, id, name string) (recipe.Variant, error) {
	patch := recipe.NamePatch(name)
	if err := patch.Validate(); err != nil {
		return recipe.Variant{}, apperrors.NewValidationError(err.Error()).WithCause(err)
	}
	updated, ok := f.UpdateEntity(ctx, id, patch)
	if !ok {
		return recipe.Variant{}, apperrors.NewNotFoundError("recipe", id)
	}
	f.publish(ctx, recipe.RecipeRenamedEvent{RecipeID: id, NewName: updated.Name, RenamedAt: time.Now()})
	return updated, nil
}

// UpdateEntity merges patch into every view holding id: the working set, the
// notebook and the displayed recipe. It reports false when no view holds it.
func (f *Facade) UpdateEntity(ctx context.Context, id string, patch recipe.Patch) (recipe.Variant, bool) {
	if id == "" || patch.IsZero() {
		return recipe.Variant{}, false
	}

	var (
		merged recipe.Variant
		found  bool
	)

	f.mu.Lock()
	for i := range f.working {
		if f.working[i].ID == id {
			f.working[i] = patch.Apply(f.working[i])
			merged, found = f.working[i].Clone(), true
		}
	}
	if f.displayed != nil && f.displayed.ID == id {
		d := patch.Apply(*f.displayed)
		f.displayed = &d
		if !found {
			merged, found = d.Clone(), true
		}
	}
	f.mu.Unlock()

	saved, inNotebook, err := f.store.Patch(ctx, id, patch)
	if err != nil {
		f.logger.Warn("Recipe update was not persisted", zap.String("recipe_id", id), zap.Error(err))
	}
	if inNotebook && !found {
		merged, found = saved, true
	}
	return merged, found
}

// Find resolves id from the working set, the displayed recipe or the notebook
func (f *Facade) Find(ctx context.Context, id string) (recipe.Variant, bool) {
	f.mu.Lock()
	for _, v := range f.working {
		if v.ID == id {
			f.mu.Unlock()
			return v.Clone(), true
		}
	}
	if f.displayed != nil && f.displayed.ID == id {
		d := f.displayed.Clone()
		f.mu.Unlock()
		return d, true
	}
	f.mu.Unlock()
	return f.store.Get(ctx, id)
}

// Select makes the entity with id the displayed recipe
func (f *Facade) Select(ctx context.Context, id string) (recipe.Variant, error) {
	v, ok := f.Find(ctx, id)
	if !ok {
		return recipe.Variant{}, apperrors.NewNotFoundError("recipe", id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displayed = &v
	return v.Clone(), nil
}

// ClearSelection hides the displayed recipe
func (f *Facade) ClearSelection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displayed = nil
}

// Notebook returns the saved recipes, newest first
func (f *Facade) Notebook(ctx context.Context) []recipe.Variant {
	return f.store.List(ctx)
}

// Snapshot returns a copy of every view
func (f *Facade) Snapshot(ctx context.Context) inbound.Snapshot {
	notebook := f.store.List(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	snap := inbound.Snapshot{
		Phase:      f.phase,
		Generating: f.phase == inbound.PhaseGenerating,
		LastError:  f.lastError,
		Params:     cloneParams(f.params),
		WorkingSet: cloneAll(f.working),
		Collection: notebook,
	}
	if f.displayed != nil {
		d := f.displayed.Clone()
		snap.Displayed = &d
	}
	return snap
}

func (f *Facade) publish(ctx context.Context, event shared.DomainEvent) {
	if err := f.publisher.Publish(ctx, event); err != nil {
		f.logger.Warn("Failed to publish event", zap.String("event", event.EventName()), zap.Error(err))
	}
}

func validateCapture(p generation.Params) error {
	var err error
	switch {
	case !p.Language.Valid():
		err = generation.ErrUnsupportedLang
	case !p.CookingMethod.Valid():
		err = generation.ErrUnknownMethod
	case !p.Utensil.Valid():
		err = generation.ErrUnknownUtensil
	default:
		return nil
	}
	return apperrors.NewValidationError(err.Error()).WithCause(err)
}

func cloneParams(p generation.Params) generation.Params {
	p.Ingredients = cloneStrings(p.Ingredients)
	return p
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneAll(in []recipe.Variant) []recipe.Variant {
	out := make([]recipe.Variant, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}

func ids(variants []recipe.Variant) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.ID
	}
	return out
}

var _ inbound.EvolutionService = (*Facade)(nil)
