package exam

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kiranshivaraju/examforge/internal/cache"
	"github.com/kiranshivaraju/examforge/internal/queue"
	"github.com/kiranshivaraju/examforge/pkg/models"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTemperature = 0.7
	maxTemperature     = 2.0

	// statusLookupLimit bounds concurrent queue lookups during scans.
	statusLookupLimit = 8

	failedTaskMessage = "exam generation failed"
)

// SubmitParams is a validated-on-entry generation request.
type SubmitParams struct {
	UserID      int64
	ArchiveIDs  []int64
	Prompt      *string
	Temperature *float64
}

// Service is the producer and query side of exam generation jobs.
type Service struct {
	queue              queue.Queue
	meta               *MetadataStore
	now                func() time.Time
	defaultTemperature float64
}

type Option func(*Service)

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithDefaultTemperature(t float64) Option {
	return func(s *Service) { s.defaultTemperature = t }
}

func NewService(q queue.Queue, c cache.Cache, retention time.Duration, opts ...Option) *Service {
	s := &Service{
		queue:              q,
		meta:               NewMetadataStore(c, retention),
		now:                time.Now,
		defaultTemperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit enqueues a generation job unless the user already has one pending
// or running. The check is a scan, so two concurrent submissions from the
// same user can both pass it.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (string, error) {
	if len(p.ArchiveIDs) == 0 {
		return "", ErrEmptyArchiveIDs
	}
	temperature := s.defaultTemperature
	if p.Temperature != nil {
		temperature = *p.Temperature
	}
	if temperature < 0 || temperature > maxTemperature {
		return "", ErrInvalidTemperature
	}

	active, err := s.hasActiveTask(ctx, p.UserID)
	if err != nil {
		return "", err
	}
	if active {
		return "", ErrActiveTaskExists
	}

	jobID, err := s.queue.Enqueue(ctx, models.ExamTask{
		ArchiveIDs:  p.ArchiveIDs,
		UserID:      p.UserID,
		Prompt:      p.Prompt,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	createdAt := s.now().UTC()
	err = s.meta.Create(ctx, jobID, &models.TaskMetadata{
		UserID:     p.UserID,
		ArchiveIDs: p.ArchiveIDs,
		CreatedAt:  &createdAt,
		Status:     models.TaskStatusPending,
	})
	if err != nil {
		// The job stays queued; it just cannot be tracked.
		slog.Error("task metadata write failed after enqueue", "task_id", jobID, "user_id", p.UserID, "error", err)
		return "", err
	}

	slog.Info("exam task submitted", "task_id", jobID, "user_id", p.UserID, "archives", len(p.ArchiveIDs))
	return jobID, nil
}

// GetStatus returns the live view of one of the caller's tasks.
func (s *Service) GetStatus(ctx context.Context, userID int64, taskID string) (*models.TaskView, error) {
	meta, err := s.owned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	state, err := s.queue.State(ctx, taskID)
	if err != nil {
		return nil, err
	}

	view := &models.TaskView{
		TaskID:    taskID,
		Status:    statusFor(state),
		CreatedAt: meta.CreatedAt,
	}

	switch state {
	case queue.StateComplete:
		res, err := s.queue.Result(ctx, taskID)
		if err != nil {
			slog.Warn("failed to fetch task result", "task_id", taskID, "error", err)
		}
		view.Result = res
		s.stampCompleted(ctx, taskID, meta)
	case queue.StateFailed:
		view.Error = failedTaskMessage
		s.stampCompleted(ctx, taskID, meta)
	}
	view.CompletedAt = meta.CompletedAt
	return view, nil
}

// ListTasks returns the caller's tasks, newest first.
func (s *Service) ListTasks(ctx context.Context, userID int64) ([]models.TaskSummary, error) {
	records, err := s.userRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	states, err := s.resolveStates(ctx, records)
	if err != nil {
		return nil, err
	}

	tasks := make([]models.TaskSummary, len(records))
	for i, r := range records {
		tasks[i] = models.TaskSummary{
			TaskID:     r.ID,
			Status:     statusFor(states[i]),
			CreatedAt:  r.Metadata.CreatedAt,
			ArchiveIDs: r.Metadata.ArchiveIDs,
		}
	}
	sortNewestFirst(tasks)
	return tasks, nil
}

// DeleteTask removes the task's metadata and stored result. A running job
// is not stopped.
func (s *Service) DeleteTask(ctx context.Context, userID int64, taskID string) error {
	if _, err := s.owned(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.meta.Delete(ctx, taskID); err != nil {
		return err
	}
	if err := s.queue.DeleteResult(ctx, taskID); err != nil {
		return err
	}
	slog.Info("exam task deleted", "task_id", taskID, "user_id", userID)
	return nil
}

func (s *Service) owned(ctx context.Context, userID int64, taskID string) (*models.TaskMetadata, error) {
	meta, err := s.meta.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrTaskNotFound
	}
	if meta.UserID != userID {
		return nil, ErrForbidden
	}
	return meta, nil
}

func (s *Service) stampCompleted(ctx context.Context, taskID string, meta *models.TaskMetadata) {
	if meta.CompletedAt != nil {
		return
	}
	if err := s.meta.MarkCompleted(ctx, taskID, meta, s.now().UTC()); err != nil {
		slog.Warn("failed to stamp task completion", "task_id", taskID, "error", err)
	}
}

func (s *Service) hasActiveTask(ctx context.Context, userID int64) (bool, error) {
	records, err := s.userRecords(ctx, userID)
	if err != nil {
		return false, err
	}
	states, err := s.resolveStates(ctx, records)
	if err != nil {
		return false, err
	}
	for _, st := range states {
		if st.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) userRecords(ctx context.Context, userID int64) ([]TaskRecord, error) {
	all, err := s.meta.List(ctx)
	if err != nil {
		return nil, err
	}
	var mine []TaskRecord
	for _, r := range all {
		if r.Metadata.UserID == userID {
			mine = append(mine, r)
		}
	}
	return mine, nil
}

// resolveStates looks up each record's queue state; states[i] belongs to records[i].
func (s *Service) resolveStates(ctx context.Context, records []TaskRecord) ([]queue.State, error) {
	states := make([]queue.State, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusLookupLimit)
	for i, r := range records {
		g.Go(func() error {
			st, err := s.queue.State(gctx, r.ID)
			if err != nil {
				return fmt.Errorf("task %s: %w", r.ID, err)
			}
			states[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

// statusFor maps a queue state to the status reported to clients. A failed
// job is finished, so it reports as complete.
func statusFor(st queue.State) string {
	switch st {
	case queue.StateQueued, queue.StateDeferred:
		return models.TaskStatusPending
	case queue.StateInProgress:
		return models.TaskStatusInProgress
	case queue.StateComplete, queue.StateFailed:
		return models.TaskStatusComplete
	default:
		return models.TaskStatusNotFound
	}
}

// sortNewestFirst orders by created_at descending; missing timestamps sort last.
func sortNewestFirst(tasks []models.TaskSummary) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].CreatedAt, tasks[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
