package llm

import (
	"strings"

	"github.com/socialchef/leftovers/internal/errors"
)

// ProviderError represents a classified error from an AI provider
type ProviderError struct {
	Type     string // "rate_limit", "credit_exhausted", "server_error", "client_error", "unknown"
	Message  string
	Provider string
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return e.Message
}

var (
	rateLimitMarkers   = []string{"status 429", "http 429", "rate limit", "too many requests", "resource_exhausted", "quota"}
	creditMarkers      = []string{"status 402", "http 402", "insufficient credit", "credit exhausted", "billing"}
	serverErrorMarkers = []string{"status 5", "http 5", "server error", "internal error", "overloaded", "unavailable"}
	clientErrorMarkers = []string{"status 4", "http 4", "bad request", "unauthorized", "forbidden", "invalid_argument"}
)

// ClassifyError analyzes an error and returns a ProviderError with classification
func ClassifyError(err error, provider string) *ProviderError {
	if err == nil {
		return nil
	}

	msg := err.Error()
	classified := func(kind string) *ProviderError {
		return &ProviderError{Type: kind, Message: msg, Provider: provider}
	}

	if containsAny(msg, rateLimitMarkers) {
		return classified("rate_limit")
	}
	if containsAny(msg, creditMarkers) {
		return classified("credit_exhausted")
	}

	if appErr, ok := errors.As(err); ok {
		switch {
		case appErr.StatusCode >= 500:
			return classified("server_error")
		case appErr.StatusCode >= 400:
			return classified("client_error")
		}
	}

	if containsAny(msg, serverErrorMarkers) {
		return classified("server_error")
	}
	if containsAny(msg, clientErrorMarkers) {
		return classified("client_error")
	}

	return classified("unknown")
}

// IsRetryableError returns true if the error is retryable (rate limit, credit exhausted, or server error)
func IsRetryableError(err error) bool {
	providerErr := ClassifyError(err, "")
	if providerErr == nil {
		return false
	}

	switch providerErr.Type {
	case "rate_limit", "credit_exhausted", "server_error":
		return true
	default:
		return false
	}
}

func containsAny(s string, markers []string) bool {
	lower := strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
