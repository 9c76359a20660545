package recipe

import (
	"context"
	"log/slog"
	"time"

	"github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Suggester produces an enriched batch of recipes for a set of ingredients.
type Suggester interface {
	Suggest(ctx context.Context, ingredients []string) ([]Recipe, error)
}

// Service chains generation and enrichment.
type Service struct {
	generator *Generator
	enricher  *Enricher
}

// NewService creates a new recipe suggestion service.
func NewService(generator *Generator, enricher *Enricher) *Service {
	return &Service{generator: generator, enricher: enricher}
}

// Suggest generates recipes and attaches images to them.
func (s *Service) Suggest(ctx context.Context, ingredients []string) ([]Recipe, error) {
	start := time.Now()
	status := "success"
	defer func() {
		attrs := metric.WithAttributes(attribute.String("status", status))
		metrics.RecipeSuggestionsTotal.Add(ctx, 1, attrs)
		metrics.RecipeSuggestionDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	recipes, err := s.generator.Generate(ctx, ingredients)
	if err != nil {
		status = "failed"
		if appErr, ok := errors.As(err); ok {
			status = string(appErr.Type)
		}
		return nil, err
	}

	enriched := s.enricher.Enrich(ctx, recipes)
	slog.InfoContext(ctx, "Suggested recipes",
		"ingredients", len(ingredients),
		"recipes", len(enriched),
		"duration_ms", time.Since(start).Milliseconds())
	return enriched, nil
}
