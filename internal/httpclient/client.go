// Package httpclient provides the shared outbound HTTP client. Every call is
// traced and counted per upstream, named with WithProvider.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/socialchef/leftovers/internal/metrics"
)

type contextKey string

const providerKey contextKey = "httpclient.provider"

const unknownProvider = "unknown"

// WithProvider names the upstream a request goes to, e.g. "gemini" or
// "Supabase Storage".
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, providerKey, provider)
}

// ProviderFromContext returns the provider name set by WithProvider.
func ProviderFromContext(ctx context.Context) string {
	provider, _ := ctx.Value(providerKey).(string)
	return provider
}

// upstreamTransport tags the otelhttp span with the provider and records the
// external API metrics.
type upstreamTransport struct {
	base http.RoundTripper
}

func (t *upstreamTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)

	provider := ProviderFromContext(ctx)
	if provider == "" {
		provider = unknownProvider
	}
	span.SetAttributes(attribute.String("provider", provider))

	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	status := "error"
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case resp.StatusCode >= 400:
		status = strconv.Itoa(resp.StatusCode)
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP status %d", resp.StatusCode))
	default:
		status = strconv.Itoa(resp.StatusCode)
	}

	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	)
	metrics.ExternalAPICallsTotal.Add(ctx, 1, attrs)
	metrics.ExternalAPIDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func newTransport(base http.RoundTripper) http.RoundTripper {
	return otelhttp.NewTransport(&upstreamTransport{base: base},
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			if provider := ProviderFromContext(r.Context()); provider != "" {
				return fmt.Sprintf("%s: %s %s", provider, r.Method, r.URL.Path)
			}
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
	)
}

// InstrumentedClient is shared by every upstream integration. The timeout
// covers image generation, the slowest call.
var InstrumentedClient = New(120*time.Second, nil)

// New returns an instrumented client over base, or http.DefaultTransport when
// base is nil.
func New(timeout time.Duration, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{Transport: newTransport(base), Timeout: timeout}
}
