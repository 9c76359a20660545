package worker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/telemetry"
)

// jobInfo is what both middlewares attach to a job: asynq metadata plus the
// payload fields that are safe to report.
type jobInfo struct {
	id          string
	queue       string
	retries     int
	userID      string
	ingredients int
}

func describe(ctx context.Context, t *asynq.Task) jobInfo {
	info := jobInfo{}
	info.id, _ = asynq.GetTaskID(ctx)
	info.queue, _ = asynq.GetQueueName(ctx)
	info.retries, _ = asynq.GetRetryCount(ctx)
	if payload, err := ParsePayload(t.Payload()); err == nil {
		info.userID = payload.UserID
		info.ingredients = len(payload.Ingredients)
	}
	return info
}

// OTelMiddleware runs each job in a consumer span.
func OTelMiddleware(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		info := describe(ctx, t)

		ctx, span := telemetry.Tracer("leftovers/worker").Start(ctx, fmt.Sprintf("job:%s", t.Type()),
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("job.id", info.id),
				attribute.String("job.type", t.Type()),
				attribute.String("job.queue", info.queue),
				attribute.Int("job.retry_count", info.retries),
				attribute.Int("job.ingredients", info.ingredients),
			),
		)
		defer span.End()

		err := h.ProcessTask(ctx, t)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	})
}

// SentryMiddleware reports failed jobs. Operational failures such as a busy
// model or bad input are sent at warning level.
func SentryMiddleware(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		info := describe(ctx, t)

		hub := sentry.CurrentHub().Clone()
		scope := hub.Scope()
		scope.SetTags(map[string]string{
			"task_type":   t.Type(),
			"task_id":     info.id,
			"queue":       info.queue,
			"retry_count": strconv.Itoa(info.retries),
		})
		if info.userID != "" {
			scope.SetUser(sentry.User{ID: info.userID})
		}

		err := h.ProcessTask(sentry.SetHubOnContext(ctx, hub), t)
		if err == nil {
			return nil
		}

		if appErr, ok := apperrors.As(err); ok {
			scope.SetTag("error_code", appErr.Code())
			if appErr.IsOperational {
				scope.SetLevel(sentry.LevelWarning)
			}
		}
		hub.CaptureException(err)
		return err
	})
}
