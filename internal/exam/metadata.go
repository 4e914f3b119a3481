package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/examforge/internal/cache"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

// MetadataStore keeps one TaskMetadata record per job in the cache, each
// expiring after the retention window.
type MetadataStore struct {
	cache     cache.Cache
	retention time.Duration
}

func NewMetadataStore(c cache.Cache, retention time.Duration) *MetadataStore {
	return &MetadataStore{cache: c, retention: retention}
}

// TaskRecord pairs a job id with its metadata.
type TaskRecord struct {
	ID       string
	Metadata *models.TaskMetadata
}

func (m *MetadataStore) Create(ctx context.Context, jobID string, meta *models.TaskMetadata) error {
	return m.put(ctx, jobID, meta, m.retention)
}

// Get returns nil when no record exists.
func (m *MetadataStore) Get(ctx context.Context, jobID string) (*models.TaskMetadata, error) {
	body, found, err := m.cache.Get(ctx, cache.TaskMetadataKey(jobID))
	if err != nil {
		return nil, fmt.Errorf("get task metadata: %w", err)
	}
	if !found {
		return nil, nil
	}
	var meta models.TaskMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("decode task metadata %s: %w", jobID, err)
	}
	return &meta, nil
}

// MarkCompleted stamps completed_at without extending the record's expiry.
func (m *MetadataStore) MarkCompleted(ctx context.Context, jobID string, meta *models.TaskMetadata, at time.Time) error {
	meta.CompletedAt = &at
	meta.Status = models.TaskStatusComplete
	return m.put(ctx, jobID, meta, cache.KeepTTL)
}

func (m *MetadataStore) Delete(ctx context.Context, jobID string) error {
	if err := m.cache.Delete(ctx, cache.TaskMetadataKey(jobID)); err != nil {
		return fmt.Errorf("delete task metadata: %w", err)
	}
	return nil
}

// List scans every live record. Records that expire or fail to decode
// mid-scan are skipped.
func (m *MetadataStore) List(ctx context.Context) ([]TaskRecord, error) {
	keys, err := m.cache.Keys(ctx, cache.TaskMetadataPattern)
	if err != nil {
		return nil, fmt.Errorf("scan task metadata: %w", err)
	}

	records := make([]TaskRecord, 0, len(keys))
	for _, key := range keys {
		id, ok := cache.TaskIDFromMetadataKey(key)
		if !ok {
			continue
		}
		meta, err := m.Get(ctx, id)
		if err != nil {
			slog.Warn("skipping unreadable task metadata", "task_id", id, "error", err)
			continue
		}
		if meta == nil {
			continue
		}
		records = append(records, TaskRecord{ID: id, Metadata: meta})
	}
	return records, nil
}

func (m *MetadataStore) put(ctx context.Context, jobID string, meta *models.TaskMetadata, ttl time.Duration) error {
	body, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode task metadata: %w", err)
	}
	if err := m.cache.Set(ctx, cache.TaskMetadataKey(jobID), body, ttl); err != nil {
		return fmt.Errorf("store task metadata: %w", err)
	}
	return nil
}
