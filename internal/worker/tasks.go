package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/socialchef/leftovers/internal/services/recipe"
)

// Task type constants
const (
	TypeGenerateRecipes = "recipes:generate"
)

const (
	Queue = "default"

	// ResultRetention is how long a finished job and its result stay readable.
	ResultRetention = time.Hour

	jobTimeout = 2 * time.Minute
)

// Job statuses reported through the status endpoint and progress broadcasts.
const (
	StatusPending    = "pending"
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// GenerateRecipesPayload is the payload for recipe generation tasks
type GenerateRecipesPayload struct {
	JobID       string   `json:"job_id"`
	UserID      string   `json:"user_id"`
	Ingredients []string `json:"ingredients"`
}

// JobResult is what a finished task stores for the status endpoint. Exactly
// one of Recipes and Error is set.
type JobResult struct {
	Recipes []recipe.Recipe `json:"recipes,omitempty"`
	Error   *JobError       `json:"error,omitempty"`
}

type JobError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewGenerateRecipesTask creates a recipe generation task. The job id doubles
// as the asynq task id. Generation is never retried automatically.
func NewGenerateRecipesTask(payload GenerateRecipesPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerateRecipes, data,
		asynq.TaskID(payload.JobID),
		asynq.Queue(Queue),
		asynq.MaxRetry(0),
		asynq.Timeout(jobTimeout),
		asynq.Retention(ResultRetention),
	), nil
}

// ParsePayload decodes a recipe generation payload.
func ParsePayload(data []byte) (GenerateRecipesPayload, error) {
	var payload GenerateRecipesPayload
	err := json.Unmarshal(data, &payload)
	return payload, err
}
