package favorites

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/metrics"
	"github.com/socialchef/leftovers/internal/services/recipe"
)

// ImagePersister turns an inline data: image into a stored URL. It returns
// ref unchanged when it cannot.
type ImagePersister interface {
	Persist(ctx context.Context, ref, source string) string
}

// Store is one user's view of their favorites. The snapshot only ever holds
// state the repository has confirmed.
type Store struct {
	userID string
	repo   Repository
	images ImagePersister

	mu       sync.RWMutex
	snapshot []recipe.Recipe
	loaded   bool
}

func NewStore(userID string, repo Repository, images ImagePersister) *Store {
	return &Store{userID: userID, repo: repo, images: images}
}

// List fetches the user's favorites and replaces the snapshot. On failure the
// snapshot is left as it was.
func (s *Store) List(ctx context.Context) ([]recipe.Recipe, error) {
	list, err := s.repo.List(ctx, s.userID)
	if err != nil {
		record(ctx, "list", "error")
		slog.ErrorContext(ctx, "Failed to list favorites", "user_id", s.userID, "error", err)
		return nil, apperrors.NewPersistenceError("Could not load your favorites.", "FAVORITES_LIST_FAILED", err)
	}
	record(ctx, "list", "success")

	s.mu.Lock()
	s.snapshot = slices.Clone(list)
	s.loaded = true
	s.mu.Unlock()

	return list, nil
}

// Loaded reports whether List has succeeded at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a copy of the last confirmed favorites.
func (s *Store) Snapshot() []recipe.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snapshot)
}

// Contains reports whether name is in the snapshot. It never calls the repository.
func (s *Store) Contains(name string) bool {
	_, ok := s.Find(name)
	return ok
}

// Find returns the snapshot entry named name.
func (s *Store) Find(name string) (recipe.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.snapshot, name)
	if i < 0 {
		return recipe.Recipe{}, false
	}
	return s.snapshot[i], true
}

// Add saves r as a favorite. It is a no-op when r is already in the snapshot.
func (s *Store) Add(ctx context.Context, r recipe.Recipe) error {
	if s.Contains(r.RecipeName) {
		record(ctx, "add", "noop")
		return nil
	}

	if s.images != nil && strings.HasPrefix(r.ImageURL, "data:") {
		r.ImageURL = s.images.Persist(ctx, r.ImageURL, "favorite:"+r.RecipeName)
	}

	if err := s.repo.Insert(ctx, s.userID, r); err != nil {
		record(ctx, "add", "error")
		slog.ErrorContext(ctx, "Failed to add favorite",
			"user_id", s.userID,
			"recipe_name", r.RecipeName,
			"error", err,
		)
		return apperrors.NewPersistenceError("Could not save this recipe to your favorites.", "FAVORITE_ADD_FAILED", err)
	}
	record(ctx, "add", "success")

	s.mu.Lock()
	if indexOf(s.snapshot, r.RecipeName) < 0 {
		s.snapshot = append(s.snapshot, r)
	}
	s.mu.Unlock()
	return nil
}

// Remove deletes the favorite named name. It is a no-op when name is not in
// the snapshot.
func (s *Store) Remove(ctx context.Context, name string) error {
	if !s.Contains(name) {
		record(ctx, "remove", "noop")
		return nil
	}

	if err := s.repo.Delete(ctx, s.userID, name); err != nil {
		record(ctx, "remove", "error")
		slog.ErrorContext(ctx, "Failed to remove favorite",
			"user_id", s.userID,
			"recipe_name", name,
			"error", err,
		)
		return apperrors.NewPersistenceError("Could not remove this recipe from your favorites.", "FAVORITE_REMOVE_FAILED", err)
	}
	record(ctx, "remove", "success")

	s.mu.Lock()
	if i := indexOf(s.snapshot, name); i >= 0 {
		s.snapshot = slices.Delete(s.snapshot, i, i+1)
	}
	s.mu.Unlock()
	return nil
}

func record(ctx context.Context, op, status string) {
	metrics.FavoriteOperationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("status", status),
	))
}
