package sentry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"

	apperrors "github.com/socialchef/leftovers/internal/errors"
)

var panicHandler = sentryhttp.New(sentryhttp.Options{Repanic: true})

// HTTPMiddleware binds a Sentry hub to each request and turns a handler panic
// into a reported event plus a JSON 500, unless the handler already started
// its response.
func HTTPMiddleware(next http.Handler) http.Handler {
	reporting := panicHandler.Handle(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &headerTracker{ResponseWriter: w}

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			slog.ErrorContext(r.Context(), "Handler panicked", "path", r.URL.Path, "panic", fmt.Sprint(rec))
			if rw.wroteHeader {
				return
			}
			appErr := apperrors.NewInternalError("Internal server error", "PANIC", nil)
			rw.Header().Set("Content-Type", "application/json")
			rw.WriteHeader(appErr.StatusCode)
			_ = json.NewEncoder(rw).Encode(appErr)
		}()

		reporting.ServeHTTP(rw, r)
	})
}

type headerTracker struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *headerTracker) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *headerTracker) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
