// Package objectstore reads archive PDFs from the blob store.
package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiranshivaraju/examforge/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Reader fetches a whole object by key.
type Reader interface {
	ReadObject(ctx context.Context, key string) ([]byte, error)
}

// NewReader builds the reader for the configured driver.
func NewReader(ctx context.Context, cfg config.ObjectStoreConfig) (Reader, error) {
	switch cfg.Driver {
	case "minio":
		return NewMinioReader(cfg.Minio, cfg.Bucket)
	case "gcs":
		return NewGCSReader(ctx, cfg.GCS, cfg.Bucket)
	default:
		return nil, fmt.Errorf("unknown object store driver %q", cfg.Driver)
	}
}
