package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreUpload(t *testing.T) {
	base := t.TempDir()
	store := NewLocalStore(base)
	ctx := context.Background()

	if err := store.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket failed: %v", err)
	}

	url, err := store.Upload(ctx, "session-1/q1.png", strings.NewReader("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if url != "/uploads/session-1/q1.png" {
		t.Errorf("Expected '/uploads/session-1/q1.png', got %q", url)
	}

	data, err := os.ReadFile(filepath.Join(base, "session-1", "q1.png"))
	if err != nil {
		t.Fatalf("Failed to read written object: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Expected 'png-bytes', got %q", data)
	}
}

func TestLocalStoreUpload_EmptyPath(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	if _, err := store.Upload(context.Background(), "", strings.NewReader("x"), "image/png"); err == nil {
		t.Error("Expected error for empty object path")
	}
}

func TestLocalStoreEnsureBucket_Memoized(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "uploads")
	store := NewLocalStore(base)
	ctx := context.Background()

	if err := store.EnsureBucket(ctx); err != nil {
		t.Fatalf("first EnsureBucket failed: %v", err)
	}
	// Removing the directory must not break the memoized second call.
	os.RemoveAll(base)
	if err := store.EnsureBucket(ctx); err != nil {
		t.Fatalf("second EnsureBucket failed: %v", err)
	}
}
