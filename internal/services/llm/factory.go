package llm

import (
	"context"
	"fmt"

	"github.com/socialchef/leftovers/internal/config"
	"github.com/socialchef/leftovers/internal/errors"
)

// KeyFunc resolves the API key of a provider name.
type KeyFunc func(provider string) string

// UnconfiguredProvider answers every call with a ConfigurationError.
type UnconfiguredProvider struct {
	Provider string
}

func (u UnconfiguredProvider) Name() string { return u.Provider }

func (u UnconfiguredProvider) Generate(ctx context.Context, req Request) (string, error) {
	return "", u.err()
}

func (u UnconfiguredProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	return nil, u.err()
}

func (u UnconfiguredProvider) err() error {
	return errors.NewConfigurationError(
		fmt.Sprintf("no API key configured for provider %q", u.Provider),
		"MISSING_API_KEY",
	)
}

// IsConfigured reports whether p can reach a backend.
func IsConfigured(p any) bool {
	_, unconfigured := p.(UnconfiguredProvider)
	return p != nil && !unconfigured
}

func newTextProvider(name, model string, keys KeyFunc, opts ...Option) TextProvider {
	key := keys(name)
	if key == "" {
		return UnconfiguredProvider{Provider: name}
	}
	switch ProviderType(name) {
	case ProviderOpenAI:
		return NewOpenAIProvider(key, model, opts...)
	case ProviderGroq:
		return NewGroqProvider(key, model, opts...)
	case ProviderCerebras:
		return NewCerebrasProvider(key, model, opts...)
	default:
		return NewGeminiProvider(key, model, opts...)
	}
}

// NewTextProvider creates the text provider described by cfg. With fallback
// enabled and both sides configured it returns a *FallbackProvider; when only
// one side has credentials that side is used alone.
func NewTextProvider(cfg config.GenerationConfig, keys KeyFunc, opts ...Option) TextProvider {
	if cfg.Provider == "" {
		cfg.Provider = string(ProviderGemini)
	}
	primary := newTextProvider(cfg.Provider, cfg.Model, keys, opts...)
	if !cfg.FallbackEnabled || cfg.FallbackProvider == "" {
		return primary
	}

	secondary := newTextProvider(cfg.FallbackProvider, cfg.FallbackModel, keys, opts...)
	switch {
	case IsConfigured(primary) && IsConfigured(secondary):
		return NewFallbackProvider(primary, secondary)
	case IsConfigured(secondary):
		return secondary
	default:
		return primary
	}
}

// NewImageProvider creates the image provider described by cfg. Only gemini
// and openai render images.
func NewImageProvider(cfg config.ImageConfig, keys KeyFunc, opts ...Option) ImageProvider {
	name := cfg.Provider
	if name == "" {
		name = string(ProviderGemini)
	}
	key := keys(name)
	if key == "" {
		return UnconfiguredProvider{Provider: name}
	}
	switch ProviderType(name) {
	case ProviderOpenAI:
		return NewOpenAIImageProvider(key, cfg.Model, opts...)
	case ProviderGemini:
		return NewGeminiImageProvider(key, cfg.Model, opts...)
	default:
		return UnconfiguredProvider{Provider: name}
	}
}
