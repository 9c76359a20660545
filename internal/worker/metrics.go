package worker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("leftovers/worker")

// WorkerMetrics instruments recipe jobs. A nil *WorkerMetrics records nothing.
type WorkerMetrics struct {
	jobs     metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
	recipes  metric.Int64Counter
}

func NewWorkerMetrics() (*WorkerMetrics, error) {
	jobs, err := meter.Int64Counter(
		"worker.jobs.total",
		metric.WithDescription("Recipe jobs by outcome and error code"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"worker.job.duration",
		metric.WithDescription("Time from dequeue to result"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 30, 60, 120),
	)
	if err != nil {
		return nil, err
	}

	inFlight, err := meter.Int64UpDownCounter(
		"worker.jobs.in_flight",
		metric.WithDescription("Recipe jobs currently running"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	recipes, err := meter.Int64Counter(
		"worker.recipes.generated",
		metric.WithDescription("Recipes delivered by completed jobs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &WorkerMetrics{jobs: jobs, duration: duration, inFlight: inFlight, recipes: recipes}, nil
}

// jobRun is one job being measured.
type jobRun struct {
	m       *WorkerMetrics
	jobType string
	start   time.Time
}

// Start marks a job as running. Call done or failed on the result exactly once.
func (m *WorkerMetrics) Start(ctx context.Context, jobType string) *jobRun {
	if m != nil {
		m.inFlight.Add(ctx, 1, metric.WithAttributes(attribute.String("job.type", jobType)))
	}
	return &jobRun{m: m, jobType: jobType, start: time.Now()}
}

func (r *jobRun) done(ctx context.Context, recipes int) {
	r.finish(ctx, "success", "")
	if r.m != nil {
		r.m.recipes.Add(ctx, int64(recipes))
	}
}

func (r *jobRun) failed(ctx context.Context, errorCode string) {
	r.finish(ctx, "failed", errorCode)
}

func (r *jobRun) finish(ctx context.Context, status, errorCode string) {
	if r.m == nil {
		return
	}
	typeAttr := attribute.String("job.type", r.jobType)
	r.m.inFlight.Add(ctx, -1, metric.WithAttributes(typeAttr))
	r.m.duration.Record(ctx, time.Since(r.start).Seconds(), metric.WithAttributes(typeAttr))

	attrs := []attribute.KeyValue{typeAttr, attribute.String("status", status)}
	if errorCode != "" {
		attrs = append(attrs, attribute.String("error_code", errorCode))
	}
	r.m.jobs.Add(ctx, 1, metric.WithAttributes(attrs...))
}
