// Package models contains shared data models used across the examforge codebase.
package models

import "context"

// AIProvider is the capability interface every generative AI integration implements.
// The worker only ever talks to the provider through this interface.
type AIProvider interface {
	// UploadFile stores a document with the provider so it can be referenced by Generate.
	UploadFile(ctx context.Context, displayName string, data []byte, mimeType string) (RemoteFile, error)
	// Generate produces text from the prompt and the referenced uploads.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// DeleteFile removes a previous upload.
	DeleteFile(ctx context.Context, file RemoteFile) error
	// Name returns the provider identifier (e.g., "gemini").
	Name() string
}

// AIProviderFactory builds a provider bound to a single user's API key.
type AIProviderFactory interface {
	NewProvider(ctx context.Context, apiKey string) (AIProvider, error)
}

// RemoteFile is a handle to a document uploaded to the provider.
type RemoteFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mime_type"`
}

type GenerateRequest struct {
	Files       []RemoteFile
	Prompt      string
	Temperature float64
}
