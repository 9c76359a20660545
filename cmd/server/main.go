package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	otelchimetric "github.com/riandyrn/otelchi/metric"
	"github.com/socialchef/leftovers/internal/api"
	"github.com/socialchef/leftovers/internal/cache"
	"github.com/socialchef/leftovers/internal/config"
	"github.com/socialchef/leftovers/internal/db"
	"github.com/socialchef/leftovers/internal/logger"
	"github.com/socialchef/leftovers/internal/metrics"
	"github.com/socialchef/leftovers/internal/sentry"
	"github.com/socialchef/leftovers/internal/services/chat"
	"github.com/socialchef/leftovers/internal/services/favorites"
	"github.com/socialchef/leftovers/internal/services/images"
	"github.com/socialchef/leftovers/internal/services/llm"
	"github.com/socialchef/leftovers/internal/services/recipe"
	"github.com/socialchef/leftovers/internal/services/storage"
	"github.com/socialchef/leftovers/internal/telemetry"
	"github.com/socialchef/leftovers/internal/worker"
	"go.opentelemetry.io/otel"
)

func main() {
	defer sentry.Recover()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slog.SetDefault(logger.New(cfg.Env))

	// Initialize telemetry
	if cfg.OtelExporterOTLPEndpoint != "" {
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Settings{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: cfg.ServiceVersion,
			Environment:    cfg.Env,
			Endpoint:       cfg.OtelExporterOTLPEndpoint,
			Headers:        telemetry.ParseHeaders(cfg.OtelExporterOTLPHeaders),
		})
		if err != nil {
			slog.Warn("Failed to init telemetry", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	} else if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to create redis client: %v", err)
		}
		defer redisClient.Close()
	}

	// Generation and images
	textProvider := llm.NewTextProvider(cfg.Generation, cfg.APIKeyFor)
	if !llm.IsConfigured(textProvider) {
		slog.Error("No API key for the generation provider; suggestions and chat will fail",
			"provider", cfg.Generation.Provider)
	}
	imageClient := newImageClient(cfg, redisClient)
	suggester := recipe.NewService(recipe.NewGenerator(textProvider), recipe.NewEnricher(imageClient))

	repo, closeRepo, err := newFavoritesRepository(ctx, cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to set up favorites: %v", err)
	}
	defer closeRepo()

	deps := api.Dependencies{
		Suggester: suggester,
		Favorites: favorites.NewRegistry(repo, imageClient),
		Chat:      chat.NewSessions(chat.NewClient(textProvider)),
	}

	if cfg.RedisURL != "" {
		asynqClient, err := worker.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to create task client: %v", err)
		}
		defer asynqClient.Close()

		inspector, err := worker.NewInspector(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to create task inspector: %v", err)
		}
		defer inspector.Close()

		deps.Jobs = asynqClient
		deps.Inspector = inspector
	} else {
		slog.Warn("REDIS_URL not set; async recipe jobs are disabled")
	}

	apiServer := api.NewServer(cfg, deps)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	r.Use(otelchi.Middleware(cfg.ServiceName,
		otelchi.WithChiRoutes(r),
		otelchi.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	))

	metricCfg := otelchimetric.NewBaseConfig(cfg.ServiceName, otelchimetric.WithMeterProvider(otel.GetMeterProvider()))
	r.Use(otelchimetric.NewRequestDurationMillis(metricCfg))
	r.Use(otelchimetric.NewRequestInFlight(metricCfg))
	r.Use(otelchimetric.NewResponseSizeBytes(metricCfg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Anonymous-ID"},
		AllowCredentials: true,
	}))
	r.Use(sentry.HTTPMiddleware)

	apiServer.Mount(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "favorites_backend", cfg.Favorites.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}

// newImageClient wires the image provider with Supabase Storage uploads and
// the Redis URL cache when those are configured.
func newImageClient(cfg *config.Config, redisClient *redis.Client) *images.Client {
	var opts []images.Option
	if cfg.Images.StoreUploads && cfg.SupabaseConfigured() {
		opts = append(opts, images.WithUploader(storage.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey), cfg.Images.Bucket))
	}
	if redisClient != nil {
		opts = append(opts, images.WithCache(cache.NewImageCache(redisClient, time.Duration(cfg.Images.CacheTTLHrs)*time.Hour)))
	}

	provider := llm.NewImageProvider(cfg.Images, cfg.APIKeyFor)
	if !llm.IsConfigured(provider) {
		slog.Warn("No API key for the image provider; recipes get stock photo URLs", "provider", cfg.Images.Provider)
	}
	return images.NewClient(provider, opts...)
}

func newFavoritesRepository(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (favorites.Repository, func(), error) {
	switch cfg.Favorites.Backend {
	case config.FavoritesPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return favorites.NewPostgresRepository(pool), pool.Close, nil
	case config.FavoritesRedis:
		return favorites.NewRedisRepository(redisClient), func() {}, nil
	default:
		return favorites.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey), func() {}, nil
	}
}
