package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// LocalStore writes objects under a base directory and serves them through
// the router's /uploads file server. Used in development and single-node
// deployments.
type LocalStore struct {
	base string

	ensureOnce sync.Once
	ensureErr  error
}

func NewLocalStore(base string) *LocalStore {
	if base == "" {
		base = "./uploads"
	}
	return &LocalStore{base: base}
}

func (s *LocalStore) EnsureBucket(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		s.ensureErr = os.MkdirAll(s.base, 0o755)
	})
	return s.ensureErr
}

func (s *LocalStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty object path")
	}
	dst := filepath.Join(s.base, filepath.Clean(path))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}

	return "/uploads/" + filepath.ToSlash(filepath.Clean(path)), nil
}

// BasePath exposes the base directory for the router's static file server.
func (s *LocalStore) BasePath() string {
	return s.base
}
