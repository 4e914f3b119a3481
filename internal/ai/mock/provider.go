package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiranshivaraju/examforge/internal/ai"
	"github.com/kiranshivaraju/examforge/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing. Uploads and deletions
// are recorded so tests can check that every upload was cleaned up.
type MockProvider struct {
	Name_        string
	UploadFunc   func(ctx context.Context, displayName string, data []byte, mimeType string) (models.RemoteFile, error)
	GenerateFunc func(ctx context.Context, req models.GenerateRequest) (string, error)
	DeleteFunc   func(ctx context.Context, file models.RemoteFile) error

	mu       sync.Mutex
	uploaded []models.RemoteFile
	deleted  []models.RemoteFile
	requests []models.GenerateRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) UploadFile(ctx context.Context, displayName string, data []byte, mimeType string) (models.RemoteFile, error) {
	var (
		f   models.RemoteFile
		err error
	)
	if m.UploadFunc != nil {
		f, err = m.UploadFunc(ctx, displayName, data, mimeType)
	} else {
		f = m.nextFile(mimeType)
	}
	if err != nil {
		return models.RemoteFile{}, err
	}
	m.mu.Lock()
	m.uploaded = append(m.uploaded, f)
	m.mu.Unlock()
	return f, nil
}

func (m *MockProvider) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

func (m *MockProvider) DeleteFile(ctx context.Context, file models.RemoteFile) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, file)
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, file)
	}
	return nil
}

// Uploaded returns the files successfully uploaded so far.
func (m *MockProvider) Uploaded() []models.RemoteFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RemoteFile(nil), m.uploaded...)
}

// Deleted returns every file DeleteFile was called with, including failed deletions.
func (m *MockProvider) Deleted() []models.RemoteFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RemoteFile(nil), m.deleted...)
}

// Requests returns every GenerateRequest received.
func (m *MockProvider) Requests() []models.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GenerateRequest(nil), m.requests...)
}

func (m *MockProvider) nextFile(mimeType string) models.RemoteFile {
	m.mu.Lock()
	n := len(m.uploaded) + 1
	m.mu.Unlock()
	name := fmt.Sprintf("files/mock-%d", n)
	return models.RemoteFile{Name: name, URI: "mock://" + name, MIMEType: mimeType}
}

// NewMockProvider returns a MockProvider with sensible default responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, req models.GenerateRequest) (string, error) {
			return "Mock exam generated from " + fmt.Sprint(len(req.Files)) + " files", nil
		},
	}
}

// NewFailingProvider returns a MockProvider whose Generate always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ models.GenerateRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider whose Generate blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		GenerateFunc: func(ctx context.Context, _ models.GenerateRequest) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Factory hands out the same provider regardless of key and records the keys it saw.
type Factory struct {
	Provider *MockProvider
	Err      error

	mu   sync.Mutex
	keys []string
}

func NewFactory(p *MockProvider) *Factory {
	return &Factory{Provider: p}
}

func (f *Factory) NewProvider(_ context.Context, apiKey string) (models.AIProvider, error) {
	f.mu.Lock()
	f.keys = append(f.keys, apiKey)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Provider, nil
}

// Keys returns the API keys providers were requested for.
func (f *Factory) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

// Compile-time checks.
var (
	_ models.AIProvider        = (*MockProvider)(nil)
	_ models.AIProviderFactory = (*Factory)(nil)
)
