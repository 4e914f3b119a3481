package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/kiranshivaraju/examforge/internal/cache"
	"github.com/kiranshivaraju/examforge/internal/config"
	"github.com/kiranshivaraju/examforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeEnqueuer struct {
	task *asynq.Task
	opts []asynq.Option
	err  error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.task = task
	f.opts = opts
	id := ""
	for _, o := range opts {
		if o.Type() == asynq.TaskIDOpt {
			id = o.Value().(string)
		}
	}
	return &asynq.TaskInfo{ID: id, Queue: "ai_exam", State: asynq.TaskStatePending}, nil
}

type fakeInspector struct {
	states map[string]asynq.TaskState
	err    error
}

func (f *fakeInspector) GetTaskInfo(queue, id string) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.states[id]
	if !ok {
		return nil, fmt.Errorf("asynq: %w", asynq.ErrTaskNotFound)
	}
	return &asynq.TaskInfo{ID: id, Queue: queue, State: s}, nil
}

func testWorkerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		Queue:       "ai_exam",
		Concurrency: 5,
		JobTimeout:  600 * time.Second,
		Retention:   24 * time.Hour,
	}
}

func newTestCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })
	return rc, mr
}

// --- Enqueue ---

func TestEnqueue_Options(t *testing.T) {
	enq := &fakeEnqueuer{}
	rc, _ := newTestCache(t)
	q := NewWithClients(enq, &fakeInspector{}, rc, testWorkerConfig())

	prompt := "custom"
	id, err := q.Enqueue(context.Background(), models.ExamTask{
		ArchiveIDs:  []int64{3, 1},
		UserID:      7,
		Prompt:      &prompt,
		Temperature: 0.4,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NotNil(t, enq.task)
	assert.Equal(t, TaskTypeGenerateExam, enq.task.Type())

	var payload models.ExamTask
	require.NoError(t, json.Unmarshal(enq.task.Payload(), &payload))
	assert.Equal(t, []int64{3, 1}, payload.ArchiveIDs)
	assert.Equal(t, int64(7), payload.UserID)
	require.NotNil(t, payload.Prompt)
	assert.Equal(t, "custom", *payload.Prompt)
	assert.InDelta(t, 0.4, payload.Temperature, 1e-9)

	got := map[asynq.OptionType]any{}
	for _, o := range enq.opts {
		got[o.Type()] = o.Value()
	}
	assert.Equal(t, "ai_exam", got[asynq.QueueOpt])
	assert.Equal(t, 0, got[asynq.MaxRetryOpt])
	assert.Equal(t, 600*time.Second, got[asynq.TimeoutOpt])
	assert.Equal(t, 24*time.Hour, got[asynq.RetentionOpt])
	assert.Equal(t, id, got[asynq.TaskIDOpt])
}

func TestEnqueue_UniqueIDs(t *testing.T) {
	rc, _ := newTestCache(t)
	q := NewWithClients(&fakeEnqueuer{}, &fakeInspector{}, rc, testWorkerConfig())

	a, err := q.Enqueue(context.Background(), models.ExamTask{ArchiveIDs: []int64{1}, UserID: 1})
	require.NoError(t, err)
	b, err := q.Enqueue(context.Background(), models.ExamTask{ArchiveIDs: []int64{1}, UserID: 1})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEnqueue_ClientError(t *testing.T) {
	rc, _ := newTestCache(t)
	q := NewWithClients(&fakeEnqueuer{err: errors.New("redis down")}, &fakeInspector{}, rc, testWorkerConfig())

	_, err := q.Enqueue(context.Background(), models.ExamTask{ArchiveIDs: []int64{1}, UserID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

// --- State ---

func TestState_Mapping(t *testing.T) {
	insp := &fakeInspector{states: map[string]asynq.TaskState{
		"pending":     asynq.TaskStatePending,
		"scheduled":   asynq.TaskStateScheduled,
		"retry":       asynq.TaskStateRetry,
		"aggregating": asynq.TaskStateAggregating,
		"active":      asynq.TaskStateActive,
		"completed":   asynq.TaskStateCompleted,
		"archived":    asynq.TaskStateArchived,
	}}
	rc, _ := newTestCache(t)
	q := NewWithClients(&fakeEnqueuer{}, insp, rc, testWorkerConfig())

	tests := map[string]State{
		"pending":     StateQueued,
		"scheduled":   StateDeferred,
		"retry":       StateDeferred,
		"aggregating": StateDeferred,
		"active":      StateInProgress,
		"completed":   StateComplete,
		"archived":    StateFailed,
		"missing":     StateNotFound,
	}
	for id, want := range tests {
		t.Run(id, func(t *testing.T) {
			got, err := q.State(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestState_QueueNotFound(t *testing.T) {
	rc, _ := newTestCache(t)
	q := NewWithClients(&fakeEnqueuer{}, &fakeInspector{err: asynq.ErrQueueNotFound}, rc, testWorkerConfig())

	got, err := q.State(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, got)
}

func TestState_InspectorError(t *testing.T) {
	rc, _ := newTestCache(t)
	q := NewWithClients(&fakeEnqueuer{}, &fakeInspector{err: errors.New("connection refused")}, rc, testWorkerConfig())

	_, err := q.State(context.Background(), "x")
	require.Error(t, err)
}

func TestState_Active(t *testing.T) {
	assert.True(t, StateQueued.Active())
	assert.True(t, StateDeferred.Active())
	assert.True(t, StateInProgress.Active())
	assert.False(t, StateComplete.Active())
	assert.False(t, StateFailed.Active())
	assert.False(t, StateNotFound.Active())
}

// --- Result ---

func TestResult_RoundTripAndDelete(t *testing.T) {
	rc, _ := newTestCache(t)
	q := NewWithClients(&fakeEnqueuer{}, &fakeInspector{}, rc, testWorkerConfig())
	ctx := context.Background()

	res, err := q.Result(ctx, "job-1")
	require.NoError(t, err)
	assert.Nil(t, res)

	body, _ := json.Marshal(models.GenerationResult{Success: true, GeneratedContent: "exam"})
	require.NoError(t, rc.Set(ctx, cache.JobResultKey("job-1"), body, time.Hour))

	res, err = q.Result(ctx, "job-1")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "exam", res.GeneratedContent)

	require.NoError(t, q.DeleteResult(ctx, "job-1"))
	res, err = q.Result(ctx, "job-1")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestResult_Corrupt(t *testing.T) {
	rc, _ := newTestCache(t)
	q := NewWithClients(&fakeEnqueuer{}, &fakeInspector{}, rc, testWorkerConfig())
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, cache.JobResultKey("bad"), []byte("{not json"), time.Hour))
	_, err := q.Result(ctx, "bad")
	assert.Error(t, err)
}
