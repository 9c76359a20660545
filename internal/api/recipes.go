package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	apperrors "github.com/socialchef/leftovers/internal/errors"
	"github.com/socialchef/leftovers/internal/services/recipe"
	"github.com/socialchef/leftovers/internal/validation"
	"github.com/socialchef/leftovers/internal/worker"
)

type SuggestRequest struct {
	Ingredients []string `json:"ingredients"`
}

type SuggestResponse struct {
	Recipes []recipe.Recipe `json:"recipes"`
}

func (s *Server) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req SuggestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ingredients, err := validation.NormalizeIngredients(req.Ingredients)
	if err != nil {
		writeError(w, r, err)
		return
	}

	recipes, err := s.suggester.Suggest(r.Context(), ingredients)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SuggestResponse{Recipes: recipes})
}

type EnqueueJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *Server) HandleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if s.jobs == nil {
		writeError(w, r, apperrors.NewConfigurationError("Background jobs are not available.", "JOBS_DISABLED"))
		return
	}

	var req SuggestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ingredients, err := validation.NormalizeIngredients(req.Ingredients)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jobID := uuid.New().String()

	task, err := worker.NewGenerateRecipesTask(worker.GenerateRecipesPayload{
		JobID:       jobID,
		UserID:      userID,
		Ingredients: ingredients,
	})
	if err != nil {
		writeError(w, r, apperrors.NewInternalError("Failed to create task", "TASK_CREATE_FAILED", err))
		return
	}

	if _, err := s.jobs.EnqueueContext(r.Context(), task); err != nil {
		writeError(w, r, apperrors.NewInternalError("Failed to enqueue task", "ENQUEUE_FAILED", err))
		return
	}

	writeJSON(w, http.StatusAccepted, EnqueueJobResponse{JobID: jobID, Status: worker.StatusPending})
}

type JobStatusResponse struct {
	ID      string           `json:"id"`
	Status  string           `json:"status"`
	Recipes []recipe.Recipe  `json:"recipes,omitempty"`
	Error   *worker.JobError `json:"error,omitempty"`
}

func (s *Server) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if s.inspector == nil {
		writeError(w, r, apperrors.NewConfigurationError("Background jobs are not available.", "JOBS_DISABLED"))
		return
	}

	jobID := pathParam(r, "id")
	notFound := apperrors.NewNotFoundError("Job not found", "JOB_NOT_FOUND", "Jobs expire an hour after they finish.")

	info, err := s.inspector.GetTaskInfo(worker.Queue, jobID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			writeError(w, r, notFound)
			return
		}
		writeError(w, r, apperrors.NewInternalError("Failed to read job", "JOB_LOOKUP_FAILED", err))
		return
	}

	payload, err := worker.ParsePayload(info.Payload)
	if err != nil || payload.UserID != userID {
		writeError(w, r, notFound)
		return
	}

	writeJSON(w, http.StatusOK, jobStatus(info))
}

func jobStatus(info *asynq.TaskInfo) JobStatusResponse {
	resp := JobStatusResponse{ID: info.ID}

	switch info.State {
	case asynq.TaskStateActive:
		resp.Status = worker.StatusGenerating
	case asynq.TaskStateCompleted:
		resp.Status = worker.StatusCompleted
	case asynq.TaskStateArchived:
		resp.Status = worker.StatusFailed
	default:
		resp.Status = worker.StatusPending
	}

	if resp.Status != worker.StatusCompleted && resp.Status != worker.StatusFailed {
		return resp
	}

	var result worker.JobResult
	if len(info.Result) > 0 && json.Unmarshal(info.Result, &result) == nil {
		resp.Recipes = result.Recipes
		resp.Error = result.Error
	}
	if resp.Status == worker.StatusFailed && resp.Error == nil {
		resp.Error = &worker.JobError{
			Type:    string(apperrors.ErrorTypeGeneration),
			Code:    "GENERATION_FAILED",
			Message: recipe.GenerationFailureMessage,
		}
	}
	return resp
}
