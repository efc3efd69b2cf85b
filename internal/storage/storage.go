package storage

import (
	"context"
	"io"
)

// Store uploads question images and hands back a stable public URL. Uploads
// are idempotent per unique object path; callers generate a fresh UUID path
// per upload attempt. EnsureBucket is safe to call concurrently and is
// memoized per process.
type Store interface {
	EnsureBucket(ctx context.Context) error
	Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error)
}
