package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/socialchef/leftovers/internal/config"
	"github.com/socialchef/leftovers/internal/middleware"
	"github.com/socialchef/leftovers/internal/services/chat"
	"github.com/socialchef/leftovers/internal/services/favorites"
	"github.com/socialchef/leftovers/internal/services/recipe"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUser = "6f1c2a7e-3b4d-4c5e-9f80-1a2b3c4d5e6f"

type mockSuggester struct {
	mock.Mock
}

func (m *mockSuggester) Suggest(ctx context.Context, ingredients []string) ([]recipe.Recipe, error) {
	args := m.Called(ctx, ingredients)
	list, _ := args.Get(0).([]recipe.Recipe)
	return list, args.Error(1)
}

// memoryRepo is an in-memory favorites.Repository with switchable failures.
type memoryRepo struct {
	mu    sync.Mutex
	rows  map[string][]recipe.Recipe
	fail  error
	calls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[string][]recipe.Recipe)}
}

func (m *memoryRepo) List(ctx context.Context, userID string) ([]recipe.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return nil, m.fail
	}
	return slices.Clone(m.rows[userID]), nil
}

func (m *memoryRepo) Insert(ctx context.Context, userID string, r recipe.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	for _, existing := range m.rows[userID] {
		if existing.RecipeName == r.RecipeName {
			return nil
		}
	}
	m.rows[userID] = append(m.rows[userID], r)
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	m.rows[userID] = slices.DeleteFunc(m.rows[userID], func(r recipe.Recipe) bool { return r.RecipeName == name })
	return nil
}

type askerFunc func(ctx context.Context, q string) (string, error)

func (f askerFunc) Ask(ctx context.Context, q string) (string, error) { return f(ctx, q) }

type fakeQueue struct {
	tasks []*asynq.Task
	infos map[string]*asynq.TaskInfo
	err   error
}

func (q *fakeQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func (q *fakeQueue) GetTaskInfo(queue, id string) (*asynq.TaskInfo, error) {
	if info, ok := q.infos[id]; ok {
		return info, nil
	}
	return nil, asynq.ErrTaskNotFound
}

type testEnv struct {
	router    http.Handler
	suggester *mockSuggester
	repo      *memoryRepo
	queue     *fakeQueue
}

func newTestEnv(t *testing.T, asker chat.Asker) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, &config.Config{}, asker)
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config, asker chat.Asker) *testEnv {
	t.Helper()
	if asker == nil {
		asker = askerFunc(func(ctx context.Context, q string) (string, error) { return "Chef says: " + q, nil })
	}
	env := &testEnv{
		suggester: &mockSuggester{},
		repo:      newMemoryRepo(),
		queue:     &fakeQueue{infos: map[string]*asynq.TaskInfo{}},
	}
	srv := NewServer(cfg, Dependencies{
		Suggester: env.suggester,
		Favorites: favorites.NewRegistry(env.repo, nil),
		Chat:      chat.NewSessions(asker),
		Jobs:      env.queue,
		Inspector: env.queue,
	})
	r := chi.NewRouter()
	srv.Mount(r)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AnonymousHeader, testUser)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type errorBody struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

var errBackend = errors.New("status 503")

func sampleRecipe(name string) recipe.Recipe {
	return recipe.Recipe{
		RecipeName:    name,
		Description:   "Quick weeknight dinner",
		CookTime:      "20 minutes",
		Difficulty:    recipe.DifficultyEasy,
		Ingredients:   []string{"rice", "egg"},
		Instructions:  []string{"Heat the pan", "Fry the rice"},
		ImageKeywords: "fried rice",
		ImageURL:      "https://cdn.example/fried-rice.jpeg",
	}
}
