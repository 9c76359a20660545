package api

import (
	"net/http"
	"strings"

	apperrors "github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/services/favorites"
	"github.com/socialchef/leftovers/internal/services/recipe"
)

type FavoritesResponse struct {
	Favorites []recipe.Recipe `json:"favorites"`
}

type ContainsResponse struct {
	Favorite bool `json:"favorite"`
}

type AddFavoriteResponse struct {
	Favorite bool          `json:"favorite"`
	Recipe   recipe.Recipe `json:"recipe"`
}

// HandleListFavorites always refreshes from the backend.
func (s *Server) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	list, err := s.favorites.Store(userID).List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []recipe.Recipe{}
	}

	writeJSON(w, http.StatusOK, FavoritesResponse{Favorites: list})
}

// HandleContainsFavorite answers from the snapshot.
func (s *Server) HandleContainsFavorite(w http.ResponseWriter, r *http.Request) {
	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ContainsResponse{Favorite: store.Contains(pathParam(r, "name"))})
}

func (s *Server) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var rec recipe.Recipe
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(rec.RecipeName) == "" {
		writeError(w, r, apperrors.NewValidationError("recipeName is required", "MISSING_RECIPE_NAME", "Send the recipe as returned by the suggest endpoint."))
		return
	}
	rec, err := recipe.Validate(rec)
	if err != nil {
		writeError(w, r, apperrors.NewValidationError("Invalid recipe: "+err.Error(), "INVALID_RECIPE", "Send the recipe as returned by the suggest endpoint."))
		return
	}

	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}

	if err := store.Add(r.Context(), rec); err != nil {
		writeError(w, r, err)
		return
	}

	saved, _ := store.Find(rec.RecipeName)
	writeJSON(w, http.StatusCreated, AddFavoriteResponse{Favorite: true, Recipe: saved})
}

func (s *Server) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}

	if err := store.Remove(r.Context(), pathParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleShareFavorite renders a favorite as copyable plain text.
func (s *Server) HandleShareFavorite(w http.ResponseWriter, r *http.Request) {
	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}

	rec, found := store.Find(pathParam(r, "name"))
	if !found {
		writeError(w, r, apperrors.NewNotFoundError("Favorite not found", "FAVORITE_NOT_FOUND", "Save the recipe to your favorites first."))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rec.ShareText()))
}

func (s *Server) loadStore(w http.ResponseWriter, r *http.Request) (*favorites.Store, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	store, err := s.favorites.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return store, true
}
