// Package integration wires the HTTP API, favorites backends and the worker
// together with in-process fakes for the model and the queue.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/socialchef/leftovers/internal/api"
	"github.com/socialchef/leftovers/internal/config"
	apperrors "github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/services/chat"
	"github.com/socialchef/leftovers/internal/services/favorites"
	"github.com/socialchef/leftovers/internal/services/images"
	"github.com/socialchef/leftovers/internal/services/llm"
	"github.com/socialchef/leftovers/internal/services/recipe"
	"github.com/socialchef/leftovers/internal/worker"
)

const (
	testSecret      = "integration-secret"
	testSupabaseURL = "https://project.supabase.co"
)

func createTestToken(secret, userID string, ttl time.Duration) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iss": testSupabaseURL + "/auth/v1",
		"exp": time.Now().Add(ttl).Unix(),
	})
	signed, _ := token.SignedString([]byte(secret))
	return signed
}

// scriptedModel answers recipe prompts with three fixed recipes and chat
// prompts with a canned line.
type scriptedModel struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if req.Schema == nil {
		return "  Rest the rice overnight.  ", nil
	}
	var wire []map[string]any
	for _, name := range []string{"Egg Fried Rice", "Rice Omelette", "Congee"} {
		wire = append(wire, map[string]any{
			"recipeName":    name,
			"description":   "Uses up the rice.",
			"cookTime":      "20 minutes",
			"difficulty":    "easy",
			"ingredients":   []string{"rice", "egg"},
			"instructions":  []string{"Cook", "Serve"},
			"imageKeywords": strings.ToLower(name),
		})
	}
	data, err := json.Marshal(wire)
	return string(data), err
}

// memoryQueue stands in for the asynq client and inspector. Run executes a
// queued task through the processor and records the outcome as a TaskInfo.
type memoryQueue struct {
	mu    sync.Mutex
	tasks map[string]*asynq.Task
	infos map[string]*asynq.TaskInfo
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{tasks: map[string]*asynq.Task{}, infos: map[string]*asynq.TaskInfo{}}
}

func (q *memoryQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	payload, err := worker.ParsePayload(task.Payload())
	if err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks[payload.JobID] = task
	info := &asynq.TaskInfo{ID: payload.JobID, Queue: worker.Queue, Type: task.Type(), Payload: task.Payload(), State: asynq.TaskStatePending}
	q.infos[payload.JobID] = info
	return info, nil
}

func (q *memoryQueue) GetTaskInfo(queue, id string) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	info, ok := q.infos[id]
	if !ok {
		return nil, asynq.ErrTaskNotFound
	}
	return info, nil
}

// Run processes the job and records the outcome as its TaskInfo. Outside an
// asynq server the task has no result writer, so the stored result is rebuilt
// from what the suggester returned.
func (q *memoryQueue) Run(t *testing.T, processor *worker.RecipeProcessor, suggester *capturingSuggester, id string) error {
	t.Helper()
	q.mu.Lock()
	task, ok := q.tasks[id]
	q.mu.Unlock()
	require.True(t, ok, "job %s was never enqueued", id)

	err := processor.HandleGenerateRecipes(context.Background(), task)

	state := asynq.TaskStateCompleted
	result := worker.JobResult{Recipes: suggester.last}
	if err != nil {
		state = asynq.TaskStateArchived
		result = worker.JobResult{}
		if appErr, ok := apperrors.As(suggester.lastErr); ok {
			result.Error = &worker.JobError{Type: string(appErr.Type), Code: appErr.Code(), Message: appErr.Message}
		}
	}
	data, merr := json.Marshal(result)
	require.NoError(t, merr)

	q.mu.Lock()
	q.infos[id].State = state
	q.infos[id].Result = data
	q.mu.Unlock()
	return err
}

// capturingSuggester keeps the outcome of the last Suggest call.
type capturingSuggester struct {
	next    recipe.Suggester
	last    []recipe.Recipe
	lastErr error
}

func (c *capturingSuggester) Suggest(ctx context.Context, ingredients []string) ([]recipe.Recipe, error) {
	c.last, c.lastErr = c.next.Suggest(ctx, ingredients)
	return c.last, c.lastErr
}

type recordingBroadcaster struct {
	mu      sync.Mutex
	updates map[string][]worker.ProgressUpdate
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, userID string, update worker.ProgressUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updates == nil {
		b.updates = map[string][]worker.ProgressUpdate{}
	}
	b.updates[userID] = append(b.updates[userID], update)
	return nil
}

func (b *recordingBroadcaster) statuses(userID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, u := range b.updates[userID] {
		out = append(out, u.Status)
	}
	return out
}

type stack struct {
	server      *httptest.Server
	model       *scriptedModel
	suggester   *capturingSuggester
	queue       *memoryQueue
	redis       *miniredis.Miniredis
	broadcaster *recordingBroadcaster
	processor   *worker.RecipeProcessor
}

// newStack wires the API over the redis favorites backend on miniredis.
// Images are unconfigured, so every recipe gets its stock photo URL.
func newStack(t *testing.T) *stack {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	model := &scriptedModel{}
	imageClient := images.NewClient(llm.UnconfiguredProvider{Provider: "gemini"})
	suggester := &capturingSuggester{next: recipe.NewService(recipe.NewGenerator(model), recipe.NewEnricher(imageClient))}
	queue := newMemoryQueue()
	broadcaster := &recordingBroadcaster{}

	cfg := &config.Config{
		SupabaseURL:       testSupabaseURL,
		SupabaseJWTSecret: testSecret,
		Favorites:         config.FavoritesConfig{Backend: config.FavoritesRedis},
	}
	srv := api.NewServer(cfg, api.Dependencies{
		Suggester: suggester,
		Favorites: favorites.NewRegistry(favorites.NewRedisRepository(client), imageClient),
		Chat:      chat.NewSessions(chat.NewClient(model)),
		Jobs:      queue,
		Inspector: queue,
	})

	r := chi.NewRouter()
	srv.Mount(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return &stack{
		server:      ts,
		model:       model,
		suggester:   suggester,
		queue:       queue,
		redis:       mr,
		broadcaster: broadcaster,
		processor:   worker.NewRecipeProcessor(suggester, broadcaster, nil),
	}
}

// request sends body as JSON with the given identity header pair and decodes
// a JSON response into out when out is not nil.
func (s *stack) request(t *testing.T, method, path string, body any, header, value string, out any) *http.Response {
	t.Helper()

	var reader *strings.Reader
	if body == nil {
		reader = strings.NewReader("")
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(header, value)
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), fmt.Sprintf("%s %s", method, path))
	}
	return resp
}

func bearer(token string) (string, string) {
	return "Authorization", "Bearer " + token
}

func (s *stack) runJob(t *testing.T, id string) error {
	t.Helper()
	return s.queue.Run(t, s.processor, s.suggester, id)
}
