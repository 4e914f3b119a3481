package exam_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kiranshivaraju/examforge/internal/cache"
	"github.com/kiranshivaraju/examforge/internal/objectstore"
	"github.com/kiranshivaraju/examforge/internal/queue"
	"github.com/kiranshivaraju/examforge/internal/store"
	"github.com/kiranshivaraju/examforge/pkg/models"
	"github.com/stretchr/testify/require"
)

// fakeQueue is an in-memory queue.Queue.
type fakeQueue struct {
	mu         sync.Mutex
	next       int
	states     map[string]queue.State
	results    map[string]*models.GenerationResult
	enqueued   []models.ExamTask
	enqueueErr error
	stateErr   error
	resultErr  error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		states:  map[string]queue.State{},
		results: map[string]*models.GenerationResult{},
	}
}

func (q *fakeQueue) Enqueue(_ context.Context, task models.ExamTask) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return "", q.enqueueErr
	}
	q.next++
	id := fmt.Sprintf("job-%d", q.next)
	q.states[id] = queue.StateQueued
	q.enqueued = append(q.enqueued, task)
	return id, nil
}

func (q *fakeQueue) State(_ context.Context, jobID string) (queue.State, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stateErr != nil {
		return "", q.stateErr
	}
	st, ok := q.states[jobID]
	if !ok {
		return queue.StateNotFound, nil
	}
	return st, nil
}

func (q *fakeQueue) Result(_ context.Context, jobID string) (*models.GenerationResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.resultErr != nil {
		return nil, q.resultErr
	}
	return q.results[jobID], nil
}

func (q *fakeQueue) DeleteResult(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.results, jobID)
	return nil
}

func (q *fakeQueue) setState(id string, st queue.State) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.states[id] = st
}

func (q *fakeQueue) enqueuedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.enqueued)
}

// fakeKeys is an in-memory KeyStore.
type fakeKeys struct {
	mu   sync.Mutex
	keys map[int64]string
	err  error
}

func newFakeKeys() *fakeKeys { return &fakeKeys{keys: map[int64]string{}} }

func (k *fakeKeys) GetProviderAPIKey(_ context.Context, userID int64) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.err != nil {
		return "", k.err
	}
	key, ok := k.keys[userID]
	if !ok {
		return "", store.ErrNotFound
	}
	return key, nil
}

func (k *fakeKeys) UpdateProviderAPIKey(_ context.Context, userID int64, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.err != nil {
		return k.err
	}
	k.keys[userID] = key
	return nil
}

// fakeArchives returns rows in the order given, like an unsorted query would.
type fakeArchives struct {
	rows []models.ArchiveWithCourse
	err  error
}

func (f *fakeArchives) FetchArchivesWithCourses(_ context.Context, ids []int64) ([]models.ArchiveWithCourse, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.ArchiveWithCourse
	for _, r := range f.rows {
		if want[r.Archive.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeObjects struct {
	objects map[string][]byte
}

func (f *fakeObjects) ReadObject(_ context.Context, key string) ([]byte, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, objectstore.ErrObjectNotFound
	}
	return b, nil
}

func archiveRow(id int64, year int, professor, course string) models.ArchiveWithCourse {
	return models.ArchiveWithCourse{
		Archive: models.Archive{
			ID:           id,
			Name:         fmt.Sprintf("exam-%d", year),
			AcademicYear: year,
			ArchiveType:  "midterm",
			Professor:    professor,
			ObjectName:   fmt.Sprintf("archives/%d.pdf", id),
			CourseID:     1,
		},
		Course: models.Course{ID: 1, Name: course},
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

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(time.Minute)
		return t
	}
}
