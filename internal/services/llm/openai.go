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
)

const (
	openAIBaseURL   = "https://api.openai.com/v1"
	groqBaseURL     = "https://api.groq.com/openai/v1"
	cerebrasBaseURL = "https://api.cerebras.ai/v1"

	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultGroqModel        = "llama-3.3-70b-versatile"
	DefaultCerebrasModel    = "gpt-oss-120b"
	DefaultOpenAIImageModel = "gpt-image-1"
)

// ChatCompletionsProvider implements TextProvider for any OpenAI-compatible
// /chat/completions API (OpenAI, Groq, Cerebras).
type ChatCompletionsProvider struct {
	name   ProviderType
	label  string
	apiKey string
	model  string
	// strict selects response_format json_schema; otherwise json_object with
	// the schema spelled out in the prompt.
	strict bool
	opts   options
}

// NewOpenAIProvider creates a new OpenAI text provider
func NewOpenAIProvider(apiKey, model string, opts ...Option) *ChatCompletionsProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &ChatCompletionsProvider{name: ProviderOpenAI, label: "OpenAI", apiKey: apiKey, model: model, strict: true, opts: applyOptions(openAIBaseURL, opts)}
}

// NewGroqProvider creates a new Groq text provider
func NewGroqProvider(apiKey, model string, opts ...Option) *ChatCompletionsProvider {
	if model == "" {
		model = DefaultGroqModel
	}
	return &ChatCompletionsProvider{name: ProviderGroq, label: "Groq", apiKey: apiKey, model: model, opts: applyOptions(groqBaseURL, opts)}
}

// NewCerebrasProvider creates a new Cerebras text provider
func NewCerebrasProvider(apiKey, model string, opts ...Option) *ChatCompletionsProvider {
	if model == "" {
		model = DefaultCerebrasModel
	}
	return &ChatCompletionsProvider{name: ProviderCerebras, label: "Cerebras", apiKey: apiKey, model: model, opts: applyOptions(cerebrasBaseURL, opts)}
}

func (p *ChatCompletionsProvider) Name() string { return string(p.name) }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

// Generate calls /chat/completions. Non-object schemas are wrapped in an
// object for the request and unwrapped from the answer.
func (p *ChatCompletionsProvider) Generate(ctx context.Context, req Request) (string, error) {
	startTime := time.Now()
	defer recordCall(ctx, p.Name(), startTime)

	schema, wrapped := wrapRoot(req.Schema)
	prompt := req.Prompt

	body := chatRequest{Model: p.model, Temperature: req.Temperature}
	if schema != nil {
		if p.strict {
			body.ResponseFormat = map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "response",
					"strict": true,
					"schema": strictSchema(schema),
				},
			}
		} else {
			spelled, err := json.Marshal(strictSchema(schema))
			if err != nil {
				return "", err
			}
			prompt += "\n\nRespond only with a JSON object matching this JSON Schema:\n" + string(spelled)
			body.ResponseFormat = map[string]any{"type": "json_object"}
		}
	}
	body.Messages = []chatMessage{{Role: "user", Content: prompt}}

	respBody, err := p.post(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode %s response: %w", p.label, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", p.label)
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if !wrapped {
		return content, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return "", fmt.Errorf("%s returned invalid JSON: %w", p.label, err)
	}
	inner, ok := envelope[wrapKey]
	if !ok {
		return "", fmt.Errorf("%s response is missing %q", p.label, wrapKey)
	}
	return string(inner), nil
}

func (p *ChatCompletionsProvider) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, p.label), http.MethodPost, p.opts.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
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
		return nil, fmt.Errorf("%s API error (status %d): %s", p.label, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// OpenAIImageProvider implements ImageProvider with /images/generations
type OpenAIImageProvider struct {
	chat *ChatCompletionsProvider
}

// NewOpenAIImageProvider creates a new OpenAI image provider
func NewOpenAIImageProvider(apiKey, model string, opts ...Option) *OpenAIImageProvider {
	if model == "" {
		model = DefaultOpenAIImageModel
	}
	return &OpenAIImageProvider{chat: &ChatCompletionsProvider{name: ProviderOpenAI, label: "OpenAI", apiKey: apiKey, model: model, opts: applyOptions(openAIBaseURL, opts)}}
}

func (p *OpenAIImageProvider) Name() string { return string(ProviderOpenAI) }

// GenerateImage requests one landscape JPEG as base64
func (p *OpenAIImageProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	startTime := time.Now()
	defer recordCall(ctx, "openai-image", startTime)

	payload := map[string]any{
		"model":         p.chat.model,
		"prompt":        prompt,
		"n":             1,
		"size":          "1536x1024",
		"output_format": "jpeg",
	}
	respBody, err := p.chat.post(ctx, "/images/generations", payload)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode OpenAI image response: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("no image data in OpenAI response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("invalid image payload: %w", err)
	}
	return &Image{Data: data, MimeType: "image/jpeg"}, nil
}
