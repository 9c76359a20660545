package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/metrics"
	"github.com/socialchef/leftovers/internal/services/ai"
	"github.com/socialchef/leftovers/internal/services/llm"
)

// FailureMessage is the user-facing text of a chat failure.
const FailureMessage = "ChefAI could not answer right now. Please try again."

// Asker answers one cooking question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Client sends single questions to the text backend under the ChefAI persona.
// It keeps no history: every call carries only the current question.
type Client struct {
	provider llm.TextProvider
}

func NewClient(provider llm.TextProvider) *Client {
	return &Client{provider: provider}
}

func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	start := time.Now()

	answer, err := c.provider.Generate(ctx, llm.Request{
		Prompt:      ai.BuildChatPrompt(question),
		Temperature: ai.ChatTemperature,
	})
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.NewChatError("empty answer from "+c.provider.Name(), "EMPTY_ANSWER", nil)
	}
	if err != nil {
		record(ctx, "error")
		if errors.IsType(err, errors.ErrorTypeConfiguration) {
			return "", err
		}
		slog.ErrorContext(ctx, "Chat question failed",
			"provider", c.provider.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", errors.NewChatError(FailureMessage, "CHAT_FAILED", err)
	}

	record(ctx, "success")
	return strings.TrimSpace(answer), nil
}

func record(ctx context.Context, status string) {
	metrics.ChatQuestionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
