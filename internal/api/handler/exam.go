package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/examforge/internal/api/middleware"
	"github.com/kiranshivaraju/examforge/internal/api/response"
	"github.com/kiranshivaraju/examforge/internal/exam"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

// ExamService defines the job operations the exam handlers depend on.
type ExamService interface {
	Submit(ctx context.Context, p exam.SubmitParams) (string, error)
	GetStatus(ctx context.Context, userID int64, taskID string) (*models.TaskView, error)
	ListTasks(ctx context.Context, userID int64) ([]models.TaskSummary, error)
	DeleteTask(ctx context.Context, userID int64, taskID string) error
}

type generateResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type listTasksResponse struct {
	Tasks []models.TaskSummary `json:"tasks"`
}

type deleteTaskResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewGenerateHandler returns an http.HandlerFunc for POST /ai-exam/generate.
func NewGenerateHandler(svc ExamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		var req struct {
			ArchiveIDs  []int64  `json:"archive_ids"`
			Prompt      *string  `json:"prompt"`
			Temperature *float64 `json:"temperature"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		taskID, err := svc.Submit(r.Context(), exam.SubmitParams{
			UserID:      p.UserID,
			ArchiveIDs:  req.ArchiveIDs,
			Prompt:      req.Prompt,
			Temperature: req.Temperature,
		})
		if err != nil {
			writeExamError(w, err, "user_id", p.UserID)
			return
		}

		response.Created(w, generateResponse{
			TaskID:  taskID,
			Status:  models.TaskStatusPending,
			Message: "Exam generation task submitted",
		})
	}
}

// NewTaskStatusHandler returns an http.HandlerFunc for GET /ai-exam/task/{task_id}.
func NewTaskStatusHandler(svc ExamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		taskID, ok := taskIDParam(w, r)
		if !ok {
			return
		}

		view, err := svc.GetStatus(r.Context(), p.UserID, taskID)
		if err != nil {
			writeExamError(w, err, "task_id", taskID)
			return
		}
		response.JSON(w, view)
	}
}

// NewListTasksHandler returns an http.HandlerFunc for GET /ai-exam/tasks.
func NewListTasksHandler(svc ExamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}

		tasks, err := svc.ListTasks(r.Context(), p.UserID)
		if err != nil {
			writeExamError(w, err, "user_id", p.UserID)
			return
		}
		if tasks == nil {
			tasks = []models.TaskSummary{}
		}
		response.JSON(w, listTasksResponse{Tasks: tasks})
	}
}

// NewDeleteTaskHandler returns an http.HandlerFunc for DELETE /ai-exam/task/{task_id}.
func NewDeleteTaskHandler(svc ExamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		taskID, ok := taskIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteTask(r.Context(), p.UserID, taskID); err != nil {
			writeExamError(w, err, "task_id", taskID)
			return
		}
		response.JSON(w, deleteTaskResponse{Success: true, Message: "Task deleted"})
	}
}

func principal(w http.ResponseWriter, r *http.Request) (mw.Principal, bool) {
	p, ok := mw.GetPrincipal(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
	}
	return p, ok
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "task_id"))
	if id == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "task_id is required", nil)
		return "", false
	}
	return id, true
}

// writeExamError maps exam sentinels onto the error envelope. attrs are
// logged with unexpected failures.
func writeExamError(w http.ResponseWriter, err error, attrs ...any) {
	switch {
	case errors.Is(err, exam.ErrEmptyArchiveIDs):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "At least 1 archive is required", nil)
	case errors.Is(err, exam.ErrInvalidTemperature):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "temperature must be between 0 and 2", nil)
	case errors.Is(err, exam.ErrActiveTaskExists):
		response.Error(w, http.StatusConflict, "TASK_IN_PROGRESS",
			"You already have an exam generation task in progress; wait for it to finish", nil)
	case errors.Is(err, exam.ErrTaskNotFound):
		response.Error(w, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found or expired", nil)
	case errors.Is(err, exam.ErrForbidden):
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this task", nil)
	default:
		slog.Error("exam request failed", append(attrs, "error", err)...)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
