package llm

import "context"

// ProviderType represents the type of AI provider
type ProviderType string

const (
	ProviderGemini   ProviderType = "gemini"
	ProviderOpenAI   ProviderType = "openai"
	ProviderGroq     ProviderType = "groq"
	ProviderCerebras ProviderType = "cerebras"
)

// Request is a single text generation call.
type Request struct {
	Prompt      string
	Temperature float64
	// Schema, when set, switches the backend to JSON output constrained to it.
	Schema *Schema
}

// TextProvider generates text from a prompt. With a Schema the returned text
// is a JSON document matching that schema.
type TextProvider interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// Image is raw image bytes returned by an image backend.
type Image struct {
	Data     []byte
	MimeType string
}

// ImageProvider renders an image for a prompt.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
	Name() string
}
