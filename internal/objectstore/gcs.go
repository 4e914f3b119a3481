package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/kiranshivaraju/examforge/internal/config"
	"google.golang.org/api/option"
)

// GCSReader reads objects from a Google Cloud Storage bucket.
type GCSReader struct {
	client *storage.Client
	bucket string
}

func NewGCSReader(ctx context.Context, cfg config.GCSConfig, bucket string) (*GCSReader, error) {
	var opts []option.ClientOption
	switch {
	case cfg.EmulatorHost != "":
		opts = append(opts, option.WithoutAuthentication(), option.WithEndpoint(cfg.EmulatorHost+"/storage/v1/"))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadOnly))

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSReader{client: client, bucket: bucket}, nil
}

func (r *GCSReader) ReadObject(ctx context.Context, key string) ([]byte, error) {
	rc, err := r.client.Bucket(r.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", r.bucket, key, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s/%s: %w", r.bucket, key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", r.bucket, key, err)
	}
	return data, nil
}

func (r *GCSReader) Close() error {
	return r.client.Close()
}

var _ Reader = (*GCSReader)(nil)
