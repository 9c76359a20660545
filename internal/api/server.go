package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/socialchef/leftovers/internal/config"
	apperrors "github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/middleware"
	"github.com/socialchef/leftovers/internal/sentry"
	"github.com/socialchef/leftovers/internal/services/chat"
	"github.com/socialchef/leftovers/internal/services/favorites"
	"github.com/socialchef/leftovers/internal/services/recipe"
)

const maxBodyBytes = 1 << 20

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector is satisfied by *asynq.Inspector.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// Dependencies are the services behind the HTTP API. Jobs and Inspector may
// be nil, which disables the async job endpoints.
type Dependencies struct {
	Suggester recipe.Suggester
	Favorites *favorites.Registry
	Chat      *chat.Sessions
	Jobs      TaskEnqueuer
	Inspector TaskInspector
}

type Server struct {
	cfg       *config.Config
	suggester recipe.Suggester
	favorites *favorites.Registry
	chat      *chat.Sessions
	jobs      TaskEnqueuer
	inspector TaskInspector
	limiter   *middleware.UserRateLimiter
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	return &Server{
		cfg:       cfg,
		suggester: deps.Suggester,
		favorites: deps.Favorites,
		chat:      deps.Chat,
		jobs:      deps.Jobs,
		inspector: deps.Inspector,
		limiter:   middleware.NewUserRateLimiter(cfg.RateLimit),
	}
}

// Mount registers the health check and every API route on r. Identity
// resolution applies to everything under /api; routes that call the model are
// rate limited per user.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Identity(s.cfg))

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Handler)
			r.Post("/recipes/suggest", s.HandleSuggest)
			r.Post("/recipes/jobs", s.HandleEnqueueJob)
			r.Post("/chat", s.HandleAsk)
		})

		r.Get("/recipes/jobs/{id}", s.HandleJobStatus)

		r.Get("/favorites", s.HandleListFavorites)
		r.Post("/favorites", s.HandleAddFavorite)
		r.Get("/favorites/{name}", s.HandleContainsFavorite)
		r.Delete("/favorites/{name}", s.HandleRemoveFavorite)
		r.Get("/favorites/{name}/share", s.HandleShareFavorite)

		r.Get("/chat", s.HandleTranscript)
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError renders err as an AppError. Server-side failures are logged and
// reported; missing credentials were already logged at startup.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("Internal server error", "INTERNAL", err)
	}

	userID, _ := middleware.GetUserID(r.Context())
	if appErr.StatusCode >= 500 && sentry.ShouldReport(appErr) {
		slog.ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path,
			"user_id", userID,
			"error_code", appErr.Code(),
			"error", err,
		)
		sentry.CaptureError(r.Context(), userID, err)
	}

	writeJSON(w, appErr.StatusCode, appErr)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("Request body is empty", "EMPTY_BODY", "Send a JSON body.")
		}
		return apperrors.NewValidationError("Invalid request body", "INVALID_BODY", "Send valid JSON.")
	}
	return nil
}

// requireUser returns the caller's id. The identity middleware always sets
// one, so a miss means the route was mounted without it.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

// pathParam returns a decoded URL parameter. chi matches against RawPath when
// the path holds escaped slashes, leaving the value escaped.
func pathParam(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(value); err == nil {
			return decoded
		}
	}
	return value
}
