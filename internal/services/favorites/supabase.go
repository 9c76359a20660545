package favorites

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/socialchef/leftovers/internal/httpclient"
	"github.com/socialchef/leftovers/internal/services/recipe"
)

const table = "favorite_recipes"

// SupabaseRepository stores favorites in the favorite_recipes table through
// the PostgREST API.
type SupabaseRepository struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewSupabaseRepository creates a new PostgREST-backed repository.
func NewSupabaseRepository(supabaseURL, serviceKey string) *SupabaseRepository {
	return &SupabaseRepository{
		supabaseURL: strings.TrimSuffix(supabaseURL, "/"),
		serviceKey:  serviceKey,
		httpClient:  httpclient.InstrumentedClient,
	}
}

func (s *SupabaseRepository) endpoint(query url.Values) string {
	return fmt.Sprintf("%s/rest/v1/%s?%s", s.supabaseURL, table, query.Encode())
}

func (s *SupabaseRepository) do(ctx context.Context, method, endpoint string, body []byte, prefer string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Supabase"), method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("supabase %s %s failed with status %d: %s", method, table, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// List returns every favorite of userID.
func (s *SupabaseRepository) List(ctx context.Context, userID string) ([]recipe.Recipe, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)
	query.Set("select", "*")
	query.Set("order", "created_at.asc")

	body, err := s.do(ctx, http.MethodGet, s.endpoint(query), nil, "")
	if err != nil {
		return nil, err
	}

	var rows []Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}

	out := make([]recipe.Recipe, len(rows))
	for i, row := range rows {
		out[i] = row.Recipe()
	}
	return out, nil
}

// Insert adds a favorite; an existing (user id, recipe name) row is kept.
func (s *SupabaseRepository) Insert(ctx context.Context, userID string, r recipe.Recipe) error {
	body, err := json.Marshal(ToRow(userID, r))
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("on_conflict", "user_id,recipe_name")
	_, err = s.do(ctx, http.MethodPost, s.endpoint(query), body, "resolution=ignore-duplicates,return=minimal")
	return err
}

// Delete removes the favorite named recipeName.
func (s *SupabaseRepository) Delete(ctx context.Context, userID, recipeName string) error {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)
	query.Set("recipe_name", "eq."+recipeName)

	_, err := s.do(ctx, http.MethodDelete, s.endpoint(query), nil, "return=minimal")
	return err
}
