// Package gemini implements models.AIProvider on top of the Google Gen AI SDK.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kiranshivaraju/examforge/internal/ai"
	"github.com/kiranshivaraju/examforge/internal/config"
	"github.com/kiranshivaraju/examforge/pkg/models"
	"google.golang.org/genai"
)

// Factory builds a Provider per API key. Keys belong to users, so there is
// no process-wide client.
type Factory struct {
	cfg     config.GeminiConfig
	timeout time.Duration
}

func NewFactory(cfg config.GeminiConfig, timeout time.Duration) *Factory {
	return &Factory{cfg: cfg, timeout: timeout}
}

func (f *Factory) NewProvider(ctx context.Context, apiKey string) (models.AIProvider, error) {
	if apiKey == "" {
		return nil, ai.ErrInvalidAPIKey
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if f.cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: f.cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Provider{client: client, model: f.cfg.Model, timeout: f.timeout}, nil
}

// Provider implements models.AIProvider using Gemini.
type Provider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) UploadFile(ctx context.Context, displayName string, data []byte, mimeType string) (models.RemoteFile, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	f, err := p.client.Files.Upload(ctx, bytes.NewReader(data), &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return models.RemoteFile{}, classifyError("uploading file", err)
	}
	return models.RemoteFile{Name: f.Name, URI: f.URI, MIMEType: f.MIMEType}, nil
}

func (p *Provider) Generate(ctx context.Context, req models.GenerateRequest) (string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	parts := make([]*genai.Part, 0, len(req.Files)+1)
	for _, f := range req.Files {
		parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	temperature := float32(req.Temperature)
	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{Temperature: &temperature},
	)
	if err != nil {
		return "", classifyError("generating content", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("generating content: %w: empty response", ai.ErrInvalidResponse)
	}
	return text, nil
}

func (p *Provider) DeleteFile(ctx context.Context, file models.RemoteFile) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if _, err := p.client.Files.Delete(ctx, file.Name, nil); err != nil {
		return classifyError("deleting file", err)
	}
	return nil
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// classifyError maps SDK failures onto the ai error values.
func classifyError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ai.ErrInferenceTimeout)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(op, apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyAPIError(op, *apiErrPtr)
	}

	return fmt.Errorf("%s: %w: %v", op, ai.ErrProviderUnavailable, err)
}

func classifyAPIError(op string, e genai.APIError) error {
	switch {
	case e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden:
		return fmt.Errorf("%s: %w", op, ai.ErrInvalidAPIKey)
	case e.Code == http.StatusBadRequest && isKeyRejection(e.Message):
		return fmt.Errorf("%s: %w", op, ai.ErrInvalidAPIKey)
	case e.Code == http.StatusRequestTimeout || e.Code == http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %w", op, ai.ErrInferenceTimeout)
	case e.Code >= 500:
		return fmt.Errorf("%s: %w: %s", op, ai.ErrProviderUnavailable, e.Message)
	default:
		return fmt.Errorf("%s: %w: %d %s", op, ai.ErrInvalidResponse, e.Code, e.Message)
	}
}

func isKeyRejection(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "api key not valid") ||
		strings.Contains(m, "api_key_invalid") ||
		strings.Contains(m, "api key expired")
}

var (
	_ models.AIProvider        = (*Provider)(nil)
	_ models.AIProviderFactory = (*Factory)(nil)
)
