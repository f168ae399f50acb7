package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cppla/board/config"
)

// MinIO stores files in an S3 compatible bucket under "<purpose>/<name>" keys.
type MinIO struct {
	cli       *minio.Client
	bucket    string
	publicURL string
	maxBytes  int64
}

func NewMinIO(conf config.MinIOSection, maxBytes int64) (*MinIO, error) {
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio bucket creation: %w", err)
		}
	}

	publicURL := strings.TrimRight(conf.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if conf.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + conf.Endpoint
	}
	return &MinIO{cli: client, bucket: conf.Bucket, publicURL: publicURL, maxBytes: maxBytes}, nil
}

func (m *MinIO) Store(ctx context.Context, purpose Purpose, filename string, size int64, r io.Reader) (string, error) {
	ext, err := validate(purpose, filename, size, m.maxBytes)
	if err != nil {
		return "", err
	}
	key := string(purpose) + "/" + storedName(ext)

	if size < 0 {
		// unknown length: read at most one byte past the ceiling so oversized streams fail in PutObject
		r = io.LimitReader(r, m.maxBytes+1)
	}
	info, err := m.cli.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: mime.TypeByExtension(filepath.Ext(filename)),
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	if m.maxBytes > 0 && info.Size > m.maxBytes {
		_ = m.cli.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
		return "", tooLarge(m.maxBytes)
	}
	return m.objectURL(key), nil
}

func (m *MinIO) Delete(ctx context.Context, url string) error {
	prefix := m.objectURL("")
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	key := strings.TrimPrefix(url, prefix)
	if _, _, ok := splitURL("/" + key); !ok {
		return nil
	}
	// RemoveObject succeeds for missing keys
	if err := m.cli.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w", key, err)
	}
	return nil
}

func (m *MinIO) objectURL(key string) string {
	return m.publicURL + "/" + m.bucket + "/" + key
}
