// Package sentry reports server and worker failures to Sentry. Every function
// is a no-op until Init is called with a DSN.
package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	apperrors "github.com/socialchef/leftovers/internal/errors"
)

// Init configures the global client. An empty dsn disables reporting.
// Tracing stays with OpenTelemetry.
func Init(dsn, env, serviceName, serviceVersion string) error {
	if dsn == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		ServerName:       serviceName,
		Release:          serviceVersion,
		AttachStacktrace: true,
		BeforeSend:       dropUnreportable,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	return nil
}

// dropUnreportable filters events whose original error ShouldReport rejects.
func dropUnreportable(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if hint != nil && hint.OriginalException != nil && !ShouldReport(hint.OriginalException) {
		return nil
	}
	return event
}

// ShouldReport reports whether err is worth an alert. Client mistakes and
// missing credentials are expected and only logged.
func ShouldReport(err error) bool {
	appErr, ok := apperrors.As(err)
	if !ok {
		return true
	}
	switch appErr.Type {
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeNotFound,
		apperrors.ErrorTypeRateLimit, apperrors.ErrorTypeConfiguration:
		return false
	default:
		return true
	}
}

// Flush waits up to timeout for queued events. Call it on shutdown.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Recover reports a panic on the current goroutine. Use with defer.
func Recover() {
	sentry.Recover()
}

// CaptureError reports err on the request's hub, tagged with the user id.
// Operational application errors are sent as warnings.
func CaptureError(ctx context.Context, userID string, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		if appErr, ok := apperrors.As(err); ok {
			scope.SetTags(map[string]string{
				"error_type": string(appErr.Type),
				"error_code": appErr.Code(),
			})
			if appErr.IsOperational {
				scope.SetLevel(sentry.LevelWarning)
			}
		}
		hub.CaptureException(err)
	})
}
