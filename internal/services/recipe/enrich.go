package recipe

import (
	"context"
	"log/slog"

	"github.com/socialchef/leftovers/internal/services/images"
	"github.com/socialchef/leftovers/internal/utils"
)

// ImageResolver turns image keywords into an image reference. It must not fail.
type ImageResolver interface {
	Resolve(ctx context.Context, keywords string) string
}

// Enricher attaches an image to every recipe of a batch.
type Enricher struct {
	images ImageResolver
}

// NewEnricher creates an Enricher over resolver.
func NewEnricher(resolver ImageResolver) *Enricher {
	return &Enricher{images: resolver}
}

// Enrich resolves all images concurrently and returns the recipes in input
// order with ImageURL set. A panic or empty result for one recipe gives that
// recipe its keyword fallback URL; the batch itself never fails.
func (e *Enricher) Enrich(ctx context.Context, recipes []Recipe) []Recipe {
	if len(recipes) == 0 {
		return recipes
	}

	funcs := make([]func(ctx context.Context) (string, error), len(recipes))
	for i, r := range recipes {
		funcs[i] = func(ctx context.Context) (string, error) {
			return e.images.Resolve(ctx, r.ImageKeywords), nil
		}
	}

	urls, errs := utils.RunParallelWithResults(ctx, funcs)

	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		url := urls[i]
		if errs[i] != nil || url == "" {
			if errs[i] != nil {
				slog.WarnContext(ctx, "Image resolution failed, using fallback", "recipe", r.RecipeName, "error", errs[i])
			}
			url = images.FallbackURL(r.ImageKeywords)
		}
		r.ImageURL = url
		out[i] = r
	}
	return out
}
