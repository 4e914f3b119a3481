package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kiranshivaraju/examforge/internal/cache"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

// Executor runs a single exam generation job.
type Executor interface {
	Execute(ctx context.Context, task models.ExamTask) (*models.GenerationResult, error)
}

var taskIDFromContext = asynq.GetTaskID

// NewHandler adapts an Executor to asynq. Successful results are written to
// the cache for retention; permanent failures skip any retry.
func NewHandler(exec Executor, results cache.Cache, retention time.Duration) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		id, ok := taskIDFromContext(ctx)
		if !ok {
			return fmt.Errorf("task id missing from context: %w", asynq.SkipRetry)
		}

		var task models.ExamTask
		if err := json.Unmarshal(t.Payload(), &task); err != nil {
			return fmt.Errorf("decode task %s: %v: %w", id, err, asynq.SkipRetry)
		}

		slog.Info("exam job started", "task_id", id, "user_id", task.UserID, "archives", len(task.ArchiveIDs))
		res, err := exec.Execute(ctx, task)
		if err != nil {
			if errors.Is(err, ErrPermanent) {
				return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
			}
			return err
		}

		body, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := results.Set(ctx, cache.JobResultKey(id), body, retention); err != nil {
			return fmt.Errorf("store result: %w", err)
		}
		slog.Info("exam job completed", "task_id", id, "user_id", task.UserID)
		return nil
	}
}
