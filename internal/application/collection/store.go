// Package collection keeps the user's saved recipes, persisted as one
// document in a key-value store.
package collection

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/domain/recipe"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
	apperrors "github.com/alchemorsel/evolver/pkg/errors"
)

// DefaultKey is the storage key of the saved collection
const DefaultKey = "chefEmCasa_savedRecipes"

// Store is the saved recipe collection. Entries are ordered newest first and
// unique by id. The in-memory view is authoritative: a failed write is
// reported but the mutation is kept.
type Store struct {
	kv      outbound.KeyValueStore
	key     string
	metrics outbound.MetricsRecorder
	logger  *zap.Logger

	mu      sync.Mutex
	loaded  bool
	recipes []recipe.Variant
}

// NewStore creates a store over kv. An empty key selects DefaultKey.
func NewStore(kv outbound.KeyValueStore, key string, metrics outbound.MetricsRecorder, logger *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Store{
		kv:      kv,
		key:     key,
		metrics: metrics,
		logger:  logger.Named("collection"),
	}
}

// Load reads the collection once. Later calls return the in-memory view.
// A missing or unreadable document yields an empty collection.
func (s *Store) Load(ctx context.Context) []recipe.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return cloneAll(s.recipes)
}

// Reload drops the in-memory view and reads the document again. It is used
// when another process has replaced the document.
func (s *Store) Reload(ctx context.Context) []recipe.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.loadLocked(ctx)
	return cloneAll(s.recipes)
}

func (s *Store) loadLocked(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	s.recipes = []recipe.Variant{}

	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !stderrors.Is(err, outbound.ErrKeyNotFound) {
			s.metrics.PersistenceOperation("load", "error")
			s.logger.Warn("Failed to read saved recipes, starting empty", zap.String("key", s.key), zap.Error(err))
		}
		return
	}

	s.recipes = s.decode(data)
	s.metrics.PersistenceOperation("load", "success")
	s.logger.Debug("Loaded saved recipes", zap.Int("count", len(s.recipes)))
}

// decode parses entries one by one, dropping what cannot be used
func (s *Store) decode(data []byte) []recipe.Variant {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("Saved recipes document is unparsable, starting empty", zap.String("key", s.key), zap.Error(err))
		return []recipe.Variant{}
	}

	out := make([]recipe.Variant, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		var v recipe.Variant
		if err := json.Unmarshal(entry, &v); err != nil {
			s.logger.Warn("Skipping malformed saved recipe", zap.Int("index", i), zap.Error(err))
			continue
		}
		if !v.HasID() || seen[v.ID] {
			s.logger.Warn("Skipping saved recipe without unique id", zap.Int("index", i), zap.String("recipe_id", v.ID))
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}

// List returns the collection, newest first
func (s *Store) List(ctx context.Context) []recipe.Variant {
	return s.Load(ctx)
}

// Get returns the saved entry with id
func (s *Store) Get(ctx context.Context, id string) (recipe.Variant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	if i := s.indexLocked(id); i >= 0 {
		return s.recipes[i].Clone(), true
	}
	return recipe.Variant{}, false
}

// Contains reports whether id is saved
func (s *Store) Contains(ctx context.Context, id string) bool {
	_, ok := s.Get(ctx, id)
	return ok
}

// Save prepends v unless an entry with the same id exists
func (s *Store) Save(ctx context.Context, v recipe.Variant) error {
	if !v.HasID() {
		return apperrors.NewValidationError(recipe.ErrMissingID.Error()).WithCause(recipe.ErrMissingID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	if s.indexLocked(v.ID) >= 0 {
		return nil
	}
	s.recipes = append([]recipe.Variant{v.Clone()}, s.recipes...)
	return s.persistLocked(ctx, "save")
}

// Remove deletes the entry with v's id. Absent entries are a no-op.
func (s *Store) Remove(ctx context.Context, v recipe.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	i := s.indexLocked(v.ID)
	if i < 0 {
		return nil
	}
	s.recipes = append(s.recipes[:i:i], s.recipes[i+1:]...)
	return s.persistLocked(ctx, "remove")
}

// Update replaces the entry with v's id wholesale. Absent entries are a no-op.
func (s *Store) Update(ctx context.Context, v recipe.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	i := s.indexLocked(v.ID)
	if i < 0 {
		return nil
	}
	s.recipes[i] = v.Clone()
	return s.persistLocked(ctx, "update")
}

// Patch applies p to the saved entry with id, returning the merged value
func (s *Store) Patch(ctx context.Context, id string, p recipe.Patch) (recipe.Variant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)

	i := s.indexLocked(id)
	if i < 0 {
		return recipe.Variant{}, false, nil
	}
	s.recipes[i] = p.Apply(s.recipes[i])
	return s.recipes[i].Clone(), true, s.persistLocked(ctx, "update")
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, v := range s.recipes {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context, operation string) error {
	data, err := json.Marshal(s.recipes)
	if err != nil {
		s.metrics.PersistenceOperation(operation, "error")
		return apperrors.NewPersistenceError("encode saved recipes", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.metrics.PersistenceOperation(operation, "error")
		s.logger.Error("Failed to persist saved recipes",
			zap.String("operation", operation),
			zap.String("key", s.key),
			zap.Error(err),
		)
		return apperrors.NewPersistenceError(operation+" saved recipes", err)
	}
	s.metrics.PersistenceOperation(operation, "success")
	return nil
}

func cloneAll(in []recipe.Variant) []recipe.Variant {
	out := make([]recipe.Variant, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}
