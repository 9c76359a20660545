package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	apperrors "github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/services/recipe"
	"github.com/socialchef/leftovers/internal/validation"
)

// Broadcaster pushes job progress to the user's realtime channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, userID string, update ProgressUpdate) error
}

type RecipeProcessor struct {
	suggester   recipe.Suggester
	broadcaster Broadcaster
	metrics     *WorkerMetrics
}

func NewRecipeProcessor(suggester recipe.Suggester, broadcaster Broadcaster, metrics *WorkerMetrics) *RecipeProcessor {
	return &RecipeProcessor{
		suggester:   suggester,
		broadcaster: broadcaster,
		metrics:     metrics,
	}
}

// HandleGenerateRecipes runs Suggest for a queued job and stores the recipes,
// or the failure, as the task result. Failures skip asynq's retry.
func (p *RecipeProcessor) HandleGenerateRecipes(ctx context.Context, t *asynq.Task) error {
	payload, err := ParsePayload(t.Payload())
	if err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	run := p.metrics.Start(ctx, t.Type())

	slog.InfoContext(ctx, "Generating recipes", "job_id", payload.JobID, "ingredients", len(payload.Ingredients))

	ingredients, err := validation.NormalizeIngredients(payload.Ingredients)
	if err != nil {
		return p.fail(ctx, t, payload, run, err)
	}

	p.updateProgress(ctx, payload, StatusGenerating, "Asking the chef for recipes...")

	recipes, err := p.suggester.Suggest(ctx, ingredients)
	if err != nil {
		return p.fail(ctx, t, payload, run, err)
	}

	if err := writeResult(t, JobResult{Recipes: recipes}); err != nil {
		return p.fail(ctx, t, payload, run, fmt.Errorf("failed to store result: %w", err))
	}

	p.updateProgress(ctx, payload, StatusCompleted, "Your recipes are ready!")
	run.done(ctx, len(recipes))
	return nil
}

func (p *RecipeProcessor) fail(ctx context.Context, t *asynq.Task, payload GenerateRecipesPayload, run *jobRun, err error) error {
	jobErr := toJobError(err)
	if werr := writeResult(t, JobResult{Error: jobErr}); werr != nil {
		slog.ErrorContext(ctx, "Failed to store job failure", "job_id", payload.JobID, "error", werr)
	}

	p.markFailed(ctx, payload, jobErr.Message)
	run.failed(ctx, jobErr.Code)
	return fmt.Errorf("job %s failed: %v: %w", payload.JobID, err, asynq.SkipRetry)
}

// writeResult is a no-op for tasks that were not delivered by an asynq server.
func writeResult(t *asynq.Task, result JobResult) error {
	w := t.ResultWriter()
	if w == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func toJobError(err error) *JobError {
	if appErr, ok := apperrors.As(err); ok {
		return &JobError{Type: string(appErr.Type), Code: appErr.Code(), Message: appErr.Message}
	}
	return &JobError{
		Type:    string(apperrors.ErrorTypeGeneration),
		Code:    "GENERATION_FAILED",
		Message: recipe.GenerationFailureMessage,
	}
}

func (p *RecipeProcessor) updateProgress(ctx context.Context, payload GenerateRecipesPayload, status, message string) {
	slog.InfoContext(ctx, "Progress update", "job_id", payload.JobID, "status", status, "message", message)
	p.broadcast(ctx, payload, status, message)
}

func (p *RecipeProcessor) markFailed(ctx context.Context, payload GenerateRecipesPayload, errorMsg string) {
	slog.ErrorContext(ctx, "Job failed", "job_id", payload.JobID, "error", errorMsg)
	p.broadcast(ctx, payload, StatusFailed, errorMsg)
}

func (p *RecipeProcessor) broadcast(ctx context.Context, payload GenerateRecipesPayload, status, message string) {
	if p.broadcaster == nil || payload.UserID == "" {
		return
	}
	err := p.broadcaster.Broadcast(ctx, payload.UserID, ProgressUpdate{
		JobID:   payload.JobID,
		Status:  status,
		Message: message,
	})
	if err != nil {
		slog.WarnContext(ctx, "Progress broadcast failed", "job_id", payload.JobID, "error", err)
	}
}
