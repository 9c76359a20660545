package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const metricInterval = 30 * time.Second

// Settings describes the service and where its telemetry goes.
type Settings struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Headers        map[string]string
}

// endpoint is an OTLP endpoint split into host and per-signal paths.
type endpoint struct {
	host       string
	tracePath  string
	logPath    string
	metricPath string
	insecure   bool
}

func parseEndpoint(raw string) endpoint {
	e := endpoint{host: raw}
	basePath := ""

	if raw != "" {
		if strings.HasPrefix(raw, "https://") {
			e.host = strings.TrimPrefix(raw, "https://")
		} else if strings.HasPrefix(raw, "http://") {
			e.host = strings.TrimPrefix(raw, "http://")
			e.insecure = true
		}

		if idx := strings.Index(e.host, "/"); idx > 0 {
			basePath = e.host[idx:]
			e.host = e.host[:idx]
		}
	}

	e.tracePath = "/v1/traces"
	e.metricPath = "/v1/metrics"
	e.logPath = "/" // Better Stack accepts logs at root path

	basePath = strings.TrimSuffix(basePath, "/v1/traces")
	basePath = strings.TrimSuffix(basePath, "/v1/logs")
	basePath = strings.TrimSuffix(basePath, "/v1/metrics")
	basePath = strings.TrimSuffix(basePath, "/")
	if basePath != "" {
		e.tracePath = basePath + "/v1/traces"
		e.logPath = basePath + "/v1/logs"
		e.metricPath = basePath + "/v1/metrics"
	}
	return e
}

// ParseHeaders reads OTEL_EXPORTER_OTLP_HEADERS ("k1=v1,k2=v2", values
// URL-encoded). Malformed pairs are skipped.
func ParseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		if decoded, err := url.QueryUnescape(strings.TrimSpace(value)); err == nil {
			value = decoded
		}
		headers[key] = value
	}
	return headers
}

// InitTelemetry initializes OpenTelemetry with OTLP exporters for traces,
// logs and metrics. Returns a shutdown function that flushes all three.
func InitTelemetry(ctx context.Context, s Settings) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(s.ServiceName),
			semconv.ServiceVersionKey.String(s.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(s.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	ep := parseEndpoint(s.Endpoint)

	traceOpts := []otlptracehttp.Option{otlptracehttp.WithURLPath(ep.tracePath)}
	logOpts := []otlploghttp.Option{otlploghttp.WithURLPath(ep.logPath)}
	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithURLPath(ep.metricPath)}
	if ep.host != "" {
		traceOpts = append(traceOpts, otlptracehttp.WithEndpoint(ep.host))
		logOpts = append(logOpts, otlploghttp.WithEndpoint(ep.host))
		metricOpts = append(metricOpts, otlpmetrichttp.WithEndpoint(ep.host))
	}
	if len(s.Headers) > 0 {
		traceOpts = append(traceOpts, otlptracehttp.WithHeaders(s.Headers))
		logOpts = append(logOpts, otlploghttp.WithHeaders(s.Headers))
		metricOpts = append(metricOpts, otlpmetrichttp.WithHeaders(s.Headers))
	}
	if ep.insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		logOpts = append(logOpts, otlploghttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}

	traceExporter, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, err
	}
	logExporter, err := otlploghttp.New(ctx, logOpts...)
	if err != nil {
		return nil, err
	}
	metricExporter, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(metricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		slog.Warn("Failed to start runtime metrics", "error", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("Telemetry initialized",
		"endpoint", ep.host,
		"trace_path", ep.tracePath,
		"log_path", ep.logPath,
		"metric_path", ep.metricPath,
		"insecure", ep.insecure,
	)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), lp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Tracer returns a tracer with the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
