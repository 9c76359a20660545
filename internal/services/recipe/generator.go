package recipe

import (
	"context"
	"log/slog"

	"github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/services/ai"
	"github.com/socialchef/leftovers/internal/services/llm"
)

// GenerationFailureMessage is the user-facing text of every generation failure.
const GenerationFailureMessage = "Failed to generate recipes. The model might be overloaded. Please try again later."

// Generator asks a text backend for a batch of recipes.
type Generator struct {
	provider llm.TextProvider
}

// NewGenerator creates a Generator over provider.
func NewGenerator(provider llm.TextProvider) *Generator {
	return &Generator{provider: provider}
}

// Generate returns exactly ai.RecipeCount validated recipes for ingredients.
// Callers pass a non-empty, normalised list. Missing credentials surface as
// a ConfigurationError; everything else as a GenerationFailure.
func (g *Generator) Generate(ctx context.Context, ingredients []string) ([]Recipe, error) {
	text, err := g.provider.Generate(ctx, llm.Request{
		Prompt:      ai.BuildRecipePrompt(ingredients),
		Temperature: ai.RecipeTemperature,
		Schema:      ai.RecipeSchema(),
	})
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeConfiguration) {
			return nil, err
		}
		slog.ErrorContext(ctx, "Recipe generation call failed", "provider", g.provider.Name(), "error", err)
		return nil, errors.NewGenerationError(GenerationFailureMessage, "GENERATION_FAILED", err)
	}

	recipes, err := ParseRecipes(text, ai.RecipeCount)
	if err != nil {
		slog.ErrorContext(ctx, "Generated recipes failed validation", "provider", g.provider.Name(), "error", err)
		return nil, errors.NewGenerationError(GenerationFailureMessage, "INVALID_GENERATION", err)
	}

	return recipes, nil
}
