package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kiranshivaraju/examforge/internal/objectstore"
	"github.com/kiranshivaraju/examforge/internal/queue"
	"github.com/kiranshivaraju/examforge/internal/store"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

const (
	pdfMIMEType           = "application/pdf"
	defaultCleanupTimeout = 30 * time.Second
)

// KeyStore reads and writes a user's provider API key.
type KeyStore interface {
	GetProviderAPIKey(ctx context.Context, userID int64) (string, error)
	UpdateProviderAPIKey(ctx context.Context, userID int64, key string) error
}

// ArchiveFinder resolves archive ids to live archives with their courses.
type ArchiveFinder interface {
	FetchArchivesWithCourses(ctx context.Context, ids []int64) ([]models.ArchiveWithCourse, error)
}

// Generator executes a single exam generation job.
type Generator struct {
	keys           KeyStore
	archives       ArchiveFinder
	objects        objectstore.Reader
	providers      models.AIProviderFactory
	prompts        *PromptBuilder
	cleanupTimeout time.Duration
}

func NewGenerator(keys KeyStore, archives ArchiveFinder, objects objectstore.Reader, providers models.AIProviderFactory, prompts *PromptBuilder) *Generator {
	return &Generator{
		keys:           keys,
		archives:       archives,
		objects:        objects,
		providers:      providers,
		prompts:        prompts,
		cleanupTimeout: defaultCleanupTimeout,
	}
}

// Execute uploads every archive, generates the exam and deletes the uploads
// again. Uploads are removed whether or not generation succeeds.
func (g *Generator) Execute(ctx context.Context, task models.ExamTask) (*models.GenerationResult, error) {
	log := slog.With("user_id", task.UserID)

	apiKey, err := g.keys.GetProviderAPIKey(ctx, task.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMissingAPIKey
	}
	if err != nil {
		return nil, fmt.Errorf("load api key: %w", err)
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	rows, err := g.archives.FetchArchivesWithCourses(ctx, task.ArchiveIDs)
	if err != nil {
		return nil, fmt.Errorf("load archives: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrArchivesNotFound
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Archive.AcademicYear > rows[j].Archive.AcademicYear
	})

	provider, err := g.providers.NewProvider(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	var uploaded []models.RemoteFile
	defer func() { g.cleanup(ctx, log, provider, uploaded) }()

	descriptors := make([]models.ArchiveDescriptor, 0, len(rows))
	for i, row := range rows {
		data, err := g.objects.ReadObject(ctx, row.Archive.ObjectName)
		if err != nil {
			return nil, fmt.Errorf("read archive %d: %w", row.Archive.ID, err)
		}
		f, err := provider.UploadFile(ctx, fmt.Sprintf("archive-%d.pdf", row.Archive.ID), data, pdfMIMEType)
		if err != nil {
			return nil, fmt.Errorf("upload archive %d: %w", row.Archive.ID, err)
		}
		uploaded = append(uploaded, f)
		descriptors = append(descriptors, row.Descriptor())
		log.Debug("archive uploaded", "archive_id", row.Archive.ID, "index", i+1, "total", len(rows), "bytes", len(data))
	}

	prompt, err := g.prompts.Build(task.Prompt, descriptors)
	if err != nil {
		return nil, err
	}

	text, err := provider.Generate(ctx, models.GenerateRequest{
		Files:       uploaded,
		Prompt:      prompt,
		Temperature: task.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate exam: %w", err)
	}

	return &models.GenerationResult{
		Success:          true,
		GeneratedContent: Disclaimer + text,
		ArchivesUsed:     descriptors,
	}, nil
}

// cleanup deletes every upload. It runs on a context detached from the job's
// so a timed-out job still releases its remote files.
func (g *Generator) cleanup(parent context.Context, log *slog.Logger, provider models.AIProvider, files []models.RemoteFile) {
	if len(files) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), g.cleanupTimeout)
	defer cancel()

	for _, f := range files {
		if err := provider.DeleteFile(ctx, f); err != nil {
			log.Warn("failed to delete uploaded file", "file", f.Name, "error", err)
		}
	}
}

var _ queue.Executor = (*Generator)(nil)
