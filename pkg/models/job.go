package models

import "time"

// Status values reported to API clients.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusComplete   = "complete"
	TaskStatusNotFound   = "not_found"
)

// ExamTask is the payload carried by a generation job on the queue.
type ExamTask struct {
	ArchiveIDs  []int64 `json:"archive_ids"`
	UserID      int64   `json:"user_id"`
	Prompt      *string `json:"prompt,omitempty"`
	Temperature float64 `json:"temperature"`
}

// GenerationResult is what the worker stores once a job finishes.
type GenerationResult struct {
	Success          bool                `json:"success"`
	GeneratedContent string              `json:"generated_content"`
	ArchivesUsed     []ArchiveDescriptor `json:"archives_used"`
}

// TaskMetadata records ownership and bookkeeping for a submitted job.
// Stored as JSON under task_metadata:{job_id}.
type TaskMetadata struct {
	UserID      int64      `json:"user_id"`
	ArchiveIDs  []int64    `json:"archive_ids"`
	CreatedAt   *time.Time `json:"created_at"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskView is the status of a single task as returned by the query API.
type TaskView struct {
	TaskID      string            `json:"task_id"`
	Status      string            `json:"status"`
	CreatedAt   *time.Time        `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *GenerationResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// TaskSummary is one row of the task listing.
type TaskSummary struct {
	TaskID     string     `json:"task_id"`
	Status     string     `json:"status"`
	CreatedAt  *time.Time `json:"created_at"`
	ArchiveIDs []int64    `json:"archive_ids"`
}
