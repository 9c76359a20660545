package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/socialchef/leftovers/internal/httpclient"
	"github.com/socialchef/leftovers/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	geminiBaseURL           = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel      = "gemini-2.5-flash"
	DefaultGeminiImageModel = "imagen-4.0-generate-001"
)

// Option customises a provider. Used by tests and self-hosted gateways.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL overrides the API root of a provider.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient overrides the instrumented client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func applyOptions(defaultBaseURL string, opts []Option) options {
	o := options{baseURL: defaultBaseURL, httpClient: httpclient.InstrumentedClient}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GeminiProvider implements TextProvider for the Gemini generateContent API
type GeminiProvider struct {
	apiKey string
	model  string
	opts   options
}

// NewGeminiProvider creates a new Gemini text provider
func NewGeminiProvider(apiKey, model string, opts ...Option) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{apiKey: apiKey, model: model, opts: applyOptions(geminiBaseURL, opts)}
}

func (p *GeminiProvider) Name() string { return string(ProviderGemini) }

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate calls models/{model}:generateContent
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	startTime := time.Now()
	defer recordCall(ctx, p.Name(), startTime)

	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature: req.Temperature,
		},
	}
	if req.Schema != nil {
		body.GenerationConfig.ResponseMimeType = "application/json"
		body.GenerationConfig.ResponseSchema = geminiSchema(req.Schema)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.opts.baseURL, p.model)
	respBody, err := p.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to decode Gemini response: %w", err)
	}
	if resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("Gemini blocked the prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Gemini (finish reason %q)", resp.Candidates[0].FinishReason)
	}
	return strings.TrimSpace(text.String()), nil
}

func (p *GeminiProvider) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "Gemini"), http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-goog-api-key", p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.opts.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("Gemini API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// GeminiImageProvider implements ImageProvider with the Imagen predict endpoint
type GeminiImageProvider struct {
	text *GeminiProvider
}

// NewGeminiImageProvider creates a new Imagen image provider
func NewGeminiImageProvider(apiKey, model string, opts ...Option) *GeminiImageProvider {
	if model == "" {
		model = DefaultGeminiImageModel
	}
	return &GeminiImageProvider{text: &GeminiProvider{apiKey: apiKey, model: model, opts: applyOptions(geminiBaseURL, opts)}}
}

func (p *GeminiImageProvider) Name() string { return string(ProviderGemini) }

// GenerateImage calls models/{model}:predict for a single 4:3 JPEG
func (p *GeminiImageProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	startTime := time.Now()
	defer recordCall(ctx, "gemini-image", startTime)

	payload := map[string]any{
		"instances": []map[string]string{{"prompt": prompt}},
		"parameters": map[string]any{
			"sampleCount":   1,
			"aspectRatio":   "4:3",
			"outputOptions": map[string]string{"mimeType": "image/jpeg"},
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:predict", p.text.opts.baseURL, p.text.model)
	respBody, err := p.text.post(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Predictions []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		} `json:"predictions"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode Imagen response: %w", err)
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return nil, fmt.Errorf("no image data in Imagen response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid image payload: %w", err)
	}
	mime := resp.Predictions[0].MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return &Image{Data: data, MimeType: mime}, nil
}

func recordCall(ctx context.Context, provider string, start time.Time) {
	duration := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	metrics.AIGenerationDuration.Record(ctx, duration, attrs)
}
