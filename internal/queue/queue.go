// Package queue runs exam generation jobs on asynq and maps their lifecycle
// onto the states the API reports.
package queue

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/examforge/pkg/models"
)

const TaskTypeGenerateExam = "ai_exam:generate"

// State is the lifecycle phase of a job as observed on the queue.
type State string

const (
	StateQueued     State = "queued"
	StateDeferred   State = "deferred"
	StateInProgress State = "in_progress"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
	StateNotFound   State = "not_found"
)

// Active reports whether the job still occupies its owner's slot.
func (s State) Active() bool {
	return s == StateQueued || s == StateDeferred || s == StateInProgress
}

// ErrPermanent marks failures that must not be retried.
var ErrPermanent = errors.New("permanent job failure")

// Queue is the producer side of the job queue plus read access to job state
// and stored results.
type Queue interface {
	Enqueue(ctx context.Context, task models.ExamTask) (string, error)
	State(ctx context.Context, jobID string) (State, error)
	// Result returns the stored result, or nil when there is none.
	Result(ctx context.Context, jobID string) (*models.GenerationResult, error)
	// DeleteResult removes the externally visible result copy only.
	DeleteResult(ctx context.Context, jobID string) error
}
