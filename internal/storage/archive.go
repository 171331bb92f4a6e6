// Package storage archives raw report attachments to an S3-compatible
// object store after a successful ingestion run.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stn-analytics/stn-dashboard/internal/config"
)

// Archive stores raw attachment bytes under a key. Archiving is best-effort
// operational convenience; ingestion never depends on it.
type Archive interface {
	Store(ctx context.Context, key string, data []byte) error
}

type minioArchive struct {
	client *minio.Client
	bucket string
}

type noopArchive struct{}

// NewArchive builds the configured archive, or a noop when no endpoint is
// set.
func NewArchive(cfg config.ArchiveConfig) (Archive, error) {
	if cfg.Endpoint == "" {
		return &noopArchive{}, nil
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("archive credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket must be provided")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create archive client: %w", err)
	}
	return &minioArchive{client: client, bucket: cfg.Bucket}, nil
}

func NewNoopArchive() Archive {
	return &noopArchive{}
}

func (a *minioArchive) Store(ctx context.Context, key string, data []byte) error {
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("archive put %s: %w", key, err)
	}
	return nil
}

func (a *noopArchive) Store(ctx context.Context, key string, data []byte) error {
	return nil
}
