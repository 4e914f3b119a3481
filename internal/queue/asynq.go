package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/kiranshivaraju/examforge/internal/cache"
	"github.com/kiranshivaraju/examforge/internal/config"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

// enqueuer abstracts the asynq client for testability.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// inspector abstracts the asynq inspector for testability.
type inspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// AsynqQueue implements Queue. Job bookkeeping lives in asynq; the result
// copy that clients read lives in the cache under cache.JobResultKey.
type AsynqQueue struct {
	client    enqueuer
	inspector inspector
	results   cache.Cache
	queue     string
	timeout   time.Duration
	retention time.Duration
	closers   []func() error
}

// NewAsynqQueue connects a client and an inspector to the Redis at redisURL.
func NewAsynqQueue(redisURL string, cfg config.WorkerConfig, results cache.Cache) (*AsynqQueue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := asynq.NewClient(opt)
	insp := asynq.NewInspector(opt)

	q := NewWithClients(client, insp, results, cfg)
	q.closers = []func() error{client.Close, insp.Close}
	return q, nil
}

// NewWithClients allows injecting custom asynq clients (for unit tests).
func NewWithClients(client enqueuer, insp inspector, results cache.Cache, cfg config.WorkerConfig) *AsynqQueue {
	return &AsynqQueue{
		client:    client,
		inspector: insp,
		results:   results,
		queue:     cfg.Queue,
		timeout:   cfg.JobTimeout,
		retention: cfg.Retention,
	}
}

func (q *AsynqQueue) Enqueue(ctx context.Context, task models.ExamTask) (string, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("encode task: %w", err)
	}
	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeGenerateExam, body),
		asynq.TaskID(uuid.NewString()),
		asynq.Queue(q.queue),
		asynq.MaxRetry(0),
		asynq.Timeout(q.timeout),
		asynq.Retention(q.retention),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue exam task: %w", err)
	}
	return info.ID, nil
}

func (q *AsynqQueue) State(_ context.Context, jobID string) (State, error) {
	info, err := q.inspector.GetTaskInfo(q.queue, jobID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return StateNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("get task info: %w", err)
	}
	return stateFromTaskState(info.State), nil
}

func stateFromTaskState(s asynq.TaskState) State {
	switch s {
	case asynq.TaskStatePending:
		return StateQueued
	case asynq.TaskStateScheduled, asynq.TaskStateRetry, asynq.TaskStateAggregating:
		return StateDeferred
	case asynq.TaskStateActive:
		return StateInProgress
	case asynq.TaskStateCompleted:
		return StateComplete
	case asynq.TaskStateArchived:
		return StateFailed
	default:
		return StateNotFound
	}
}

func (q *AsynqQueue) Result(ctx context.Context, jobID string) (*models.GenerationResult, error) {
	body, found, err := q.results.Get(ctx, cache.JobResultKey(jobID))
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	if !found {
		return nil, nil
	}
	var res models.GenerationResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &res, nil
}

func (q *AsynqQueue) DeleteResult(ctx context.Context, jobID string) error {
	if err := q.results.Delete(ctx, cache.JobResultKey(jobID)); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	var errs []error
	for _, c := range q.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

var _ Queue = (*AsynqQueue)(nil)
