package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps question images in a Google Cloud Storage bucket with
// public-read objects.
type GCSStore struct {
	client    *storage.Client
	projectID string
	bucket    string

	ensureOnce sync.Once
	ensureErr  error
}

func NewGCSStore(ctx context.Context, projectID, bucket, keyFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSStore{
		client:    client,
		projectID: projectID,
		bucket:    bucket,
	}, nil
}

func (s *GCSStore) EnsureBucket(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		_, err := s.client.Bucket(s.bucket).Attrs(ctx)
		if err == nil {
			return
		}
		if !errors.Is(err, storage.ErrBucketNotExist) {
			s.ensureErr = fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
			return
		}
		if err := s.client.Bucket(s.bucket).Create(ctx, s.projectID, nil); err != nil {
			s.ensureErr = fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	})
	return s.ensureErr
}

func (s *GCSStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(path)
	// If the object already exists the upload is rejected, which keeps
	// uploads idempotent per unique path.
	writer := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(writer, r); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to copy object %s to GCS: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", path, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
