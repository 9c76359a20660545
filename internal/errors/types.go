// Package errors defines AppError, the error shape every handler and job
// result is rendered from.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeGeneration    ErrorType = "GENERATION_FAILURE"
	ErrorTypeImage         ErrorType = "IMAGE_FAILURE"
	ErrorTypeChat          ErrorType = "CHAT_FAILURE"
	ErrorTypePersistence   ErrorType = "PERSISTENCE_FAILURE"
	ErrorTypeRateLimit     ErrorType = "RATE_LIMIT_ERROR"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

// kinds holds the status and default recovery hint for each type.
var kinds = map[ErrorType]struct {
	status   int
	recovery string
}{
	ErrorTypeValidation:    {http.StatusBadRequest, ""},
	ErrorTypeConfiguration: {http.StatusServiceUnavailable, "Ask the operator to configure the generation backend credentials."},
	ErrorTypeGeneration:    {http.StatusBadGateway, "Try again in a moment."},
	ErrorTypeImage:         {http.StatusBadGateway, ""},
	ErrorTypeChat:          {http.StatusBadGateway, "Ask your question again in a moment."},
	ErrorTypePersistence:   {http.StatusBadGateway, "Your favorites were not changed. Try again later."},
	ErrorTypeRateLimit:     {http.StatusTooManyRequests, ""},
	ErrorTypeNotFound:      {http.StatusNotFound, ""},
	ErrorTypeInternal:      {http.StatusInternalServerError, ""},
}

// AppError is the JSON body of every failed request and failed job.
type AppError struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	StatusCode    int       `json:"statusCode"`
	ErrorCode     string    `json:"errorCode"`
	IsOperational bool      `json:"isOperational"`
	Recovery      string    `json:"recoverySuggestion,omitempty"`
	Err           error     `json:"-"`
}

func newAppError(t ErrorType, message, code string, err error) *AppError {
	kind := kinds[t]
	return &AppError{
		Type:          t,
		Message:       message,
		StatusCode:    kind.status,
		ErrorCode:     code,
		IsOperational: t != ErrorTypeInternal,
		Recovery:      kind.recovery,
		Err:           err,
	}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Code() string { return e.ErrorCode }

func (e *AppError) RecoverySuggestion() string { return e.Recovery }

// IsRetryable reports whether the same request may succeed later. Nothing
// retries automatically; it only drives the client hint.
func (e *AppError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeGeneration, ErrorTypeChat:
		return true
	case ErrorTypePersistence:
		return e.StatusCode >= 500
	}
	return false
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsType reports whether err carries an AppError of type t.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// NewValidationError is a 400 for a malformed or empty request.
func NewValidationError(message, errorCode, suggestion string) *AppError {
	e := newAppError(ErrorTypeValidation, message, errorCode, nil)
	e.Recovery = suggestion
	return e
}

func NewNotFoundError(message, errorCode, suggestion string) *AppError {
	e := newAppError(ErrorTypeNotFound, message, errorCode, nil)
	e.Recovery = suggestion
	return e
}

func NewRateLimitError(message, errorCode, suggestion string) *AppError {
	e := newAppError(ErrorTypeRateLimit, message, errorCode, nil)
	e.Recovery = suggestion
	return e
}

// NewConfigurationError is a 503 for missing backend credentials.
func NewConfigurationError(message, errorCode string) *AppError {
	return newAppError(ErrorTypeConfiguration, message, errorCode, nil)
}

func NewGenerationError(message, errorCode string, err error) *AppError {
	return newAppError(ErrorTypeGeneration, message, errorCode, err)
}

// NewImageError never reaches a client; image failures fall back to a
// placeholder URL.
func NewImageError(message, errorCode string, err error) *AppError {
	return newAppError(ErrorTypeImage, message, errorCode, err)
}

func NewChatError(message, errorCode string, err error) *AppError {
	return newAppError(ErrorTypeChat, message, errorCode, err)
}

func NewPersistenceError(message, errorCode string, err error) *AppError {
	return newAppError(ErrorTypePersistence, message, errorCode, err)
}

// NewInternalError is a 500 for bugs. It is the only non-operational type.
func NewInternalError(message, errorCode string, err error) *AppError {
	return newAppError(ErrorTypeInternal, message, errorCode, err)
}
