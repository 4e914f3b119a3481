package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/kiranshivaraju/examforge/internal/config"
)

// Worker is the consumer process: an asynq server bound to the exam queue.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewWorker(redisURL string, cfg config.WorkerConfig, handler asynq.Handler) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency:  cfg.Concurrency,
		Queues:       map[string]int{cfg.Queue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(logTaskError),
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeGenerateExam, handler)
	return &Worker{srv: srv, mux: mux}, nil
}

// Start begins processing in background goroutines.
func (w *Worker) Start() error {
	return w.srv.Start(w.mux)
}

// Shutdown stops fetching new tasks and waits for active ones up to the
// server's shutdown timeout.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

func logTaskError(ctx context.Context, task *asynq.Task, err error) {
	id, _ := asynq.GetTaskID(ctx)
	retried, _ := asynq.GetRetryCount(ctx)
	slog.Error("exam job failed", "task_id", id, "type", task.Type(), "retried", retried, "error", err)
}
