// Package metrics holds the service's OpenTelemetry instruments. They are
// created against the global meter provider, which forwards to the exporter
// once telemetry is initialized.
package metrics

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	RecipeSuggestionsTotal   metric.Int64Counter
	RecipeSuggestionDuration metric.Float64Histogram

	ImageResolutionsTotal metric.Int64Counter
	ImageCacheHitsTotal   metric.Int64Counter

	ExternalAPICallsTotal metric.Int64Counter
	ExternalAPIDuration   metric.Float64Histogram

	AIGenerationDuration  metric.Float64Histogram
	ProviderFallbackTotal metric.Int64Counter

	FavoriteOperationsTotal metric.Int64Counter
	ChatQuestionsTotal      metric.Int64Counter
)

type counter struct {
	dst         *metric.Int64Counter
	name, about string
}

type histogram struct {
	dst         *metric.Float64Histogram
	name, about string
	buckets     []float64
}

var counters = []counter{
	{&RecipeSuggestionsTotal, "recipe.suggestions.total", "Recipe suggestion requests by outcome"},
	{&ImageResolutionsTotal, "image.resolutions.total", "Image resolutions by source (generated, inline, cache, fallback)"},
	{&ImageCacheHitsTotal, "image.cache.hits.total", "Image URL cache hits"},
	{&ExternalAPICallsTotal, "external.api.calls.total", "Outbound HTTP calls by provider and status"},
	{&ProviderFallbackTotal, "provider.fallback.total", "Calls answered by the fallback text provider"},
	{&FavoriteOperationsTotal, "favorites.operations.total", "Favorites list/add/remove operations by outcome"},
	{&ChatQuestionsTotal, "chat.questions.total", "Chat questions by outcome"},
}

var histograms = []histogram{
	{&RecipeSuggestionDuration, "recipe.suggestion.duration", "Duration of generate plus enrich", []float64{0.5, 1, 2, 5, 10, 20, 30, 60}},
	{&ExternalAPIDuration, "external.api.duration", "Duration of outbound HTTP calls", []float64{0.1, 0.5, 1, 2, 5, 10, 30}},
	{&AIGenerationDuration, "ai.generation.duration", "Duration of a single text generation call", []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}},
}

func init() {
	// Instruments must be non-nil before main runs so packages and tests can
	// record without calling Init.
	_ = Init()
}

// Init (re)creates every instrument from the current global meter provider.
func Init() error {
	meter := otel.Meter("leftovers/business")
	var errs []error

	for _, c := range counters {
		inst, err := meter.Int64Counter(c.name, metric.WithDescription(c.about), metric.WithUnit("1"))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*c.dst = inst
	}
	for _, h := range histograms {
		inst, err := meter.Float64Histogram(h.name,
			metric.WithDescription(h.about),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(h.buckets...),
		)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*h.dst = inst
	}
	return errors.Join(errs...)
}
