package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/socialchef/leftovers/internal/cache"
	"github.com/socialchef/leftovers/internal/config"
	"github.com/socialchef/leftovers/internal/logger"
	"github.com/socialchef/leftovers/internal/metrics"
	"github.com/socialchef/leftovers/internal/sentry"
	"github.com/socialchef/leftovers/internal/services/images"
	"github.com/socialchef/leftovers/internal/services/llm"
	"github.com/socialchef/leftovers/internal/services/recipe"
	"github.com/socialchef/leftovers/internal/services/storage"
	"github.com/socialchef/leftovers/internal/telemetry"
	"github.com/socialchef/leftovers/internal/worker"
)

const concurrency = 10

func main() {
	defer sentry.Recover()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required to run the worker")
	}

	slog.SetDefault(logger.New(cfg.Env))

	if cfg.OtelExporterOTLPEndpoint != "" {
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Settings{
			ServiceName:    cfg.ServiceName + "-worker",
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

	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName+"-worker", cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	} else if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	textProvider := llm.NewTextProvider(cfg.Generation, cfg.APIKeyFor)
	if !llm.IsConfigured(textProvider) {
		slog.Error("No API key for the generation provider; every job will fail",
			"provider", cfg.Generation.Provider)
	}
	suggester := recipe.NewService(recipe.NewGenerator(textProvider), recipe.NewEnricher(newImageClient(cfg, redisClient)))

	var broadcaster worker.Broadcaster
	if cfg.SupabaseConfigured() {
		broadcaster = worker.NewProgressBroadcaster(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	}

	workerMetrics, err := worker.NewWorkerMetrics()
	if err != nil {
		slog.Warn("Failed to init worker metrics", "error", err)
	}

	processor := worker.NewRecipeProcessor(suggester, broadcaster, workerMetrics)

	srv, err := worker.NewServer(cfg.RedisURL, concurrency)
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutting down worker...")
		srv.Shutdown()
	}()

	slog.Info("Starting worker", "concurrency", concurrency)

	if err := srv.Run(worker.NewServeMux(processor)); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

func newImageClient(cfg *config.Config, redisClient *redis.Client) *images.Client {
	opts := []images.Option{
		images.WithCache(cache.NewImageCache(redisClient, time.Duration(cfg.Images.CacheTTLHrs)*time.Hour)),
	}
	if cfg.Images.StoreUploads && cfg.SupabaseConfigured() {
		opts = append(opts, images.WithUploader(storage.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey), cfg.Images.Bucket))
	}
	return images.NewClient(llm.NewImageProvider(cfg.Images, cfg.APIKeyFor), opts...)
}
