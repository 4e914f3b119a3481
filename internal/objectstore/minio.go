package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/kiranshivaraju/examforge/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioReader reads objects from an S3-compatible bucket.
type MinioReader struct {
	client *minio.Client
	bucket string
}

func NewMinioReader(cfg config.MinioConfig, bucket string) (*MinioReader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return &MinioReader{client: client, bucket: bucket}, nil
}

func (r *MinioReader) ReadObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, r.mapError(key, err)
	}
	defer obj.Close()

	// GetObject is lazy; errors such as NoSuchKey surface on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, r.mapError(key, err)
	}
	return data, nil
}

func (r *MinioReader) mapError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s/%s: %w", r.bucket, key, ErrObjectNotFound)
	}
	return fmt.Errorf("reading %s/%s: %w", r.bucket, key, err)
}

var _ Reader = (*MinioReader)(nil)
