package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"dailyq-backend/internal/models"
)

func TestTransitionNeeded(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		to       string
		expected bool
	}{
		{"unlocked to viewed", models.StatusUnlocked, models.StatusViewed, true},
		{"unlocked to completed", models.StatusUnlocked, models.StatusCompleted, true},
		{"viewed to completed", models.StatusViewed, models.StatusCompleted, true},
		{"viewed to viewed is a no-op", models.StatusViewed, models.StatusViewed, false},
		{"completed to viewed never regresses", models.StatusCompleted, models.StatusViewed, false},
		{"completed to completed is a no-op", models.StatusCompleted, models.StatusCompleted, false},
		{"locked to unlocked", models.StatusLocked, models.StatusUnlocked, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := transitionNeeded(tc.current, tc.to)
			if result != tc.expected {
				t.Errorf("transitionNeeded(%q, %q) = %v, expected %v", tc.current, tc.to, result, tc.expected)
			}
		})
	}
}

func TestActionFor(t *testing.T) {
	if actionFor(models.StatusViewed) != models.ActionViewed {
		t.Error("Expected viewed action for viewed status")
	}
	if actionFor(models.StatusCompleted) != models.ActionCompleted {
		t.Error("Expected completed action for completed status")
	}
	if actionFor(models.StatusUnlocked) != models.ActionUnlocked {
		t.Error("Expected unlocked action for unlocked status")
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		contentType string
		expected    string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpeg"},
		{"image/webp", "webp"},
		{"", "png"},
		{"image/", "png"},
	}

	for _, tc := range tests {
		t.Run(tc.contentType, func(t *testing.T) {
			result := extensionFor(tc.contentType)
			if result != tc.expected {
				t.Errorf("extensionFor(%q) = %q, expected %q", tc.contentType, result, tc.expected)
			}
		})
	}
}

func TestRetryAllocate_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := retryAllocate(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls == 1 {
			return errors.New("deadlock detected")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestRetryAllocate_CapacityIsTerminal(t *testing.T) {
	calls := 0
	err := retryAllocate(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &CapacityError{Message: "Upload target reached"}
	})

	var capacity *CapacityError
	if !errors.As(err, &capacity) {
		t.Fatalf("Expected CapacityError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Capacity must never be retried: expected 1 attempt, got %d", calls)
	}
}

func TestRetryAllocate_ExhaustsBudget(t *testing.T) {
	calls := 0
	transient := errors.New("serialization failure")
	err := retryAllocate(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return transient
	})

	if !errors.Is(err, transient) {
		t.Fatalf("Expected the last transient error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", calls)
	}
}

func TestRetryAllocate_NoBackoffAfterFinalAttempt(t *testing.T) {
	// With a single attempt and an hour-long backoff, any sleep after the
	// final failure would blow the deadline below.
	start := time.Now()
	err := retryAllocate(context.Background(), 1, time.Hour, func() error {
		return errors.New("deadlock detected")
	})

	if err == nil {
		t.Fatal("Expected the attempt's error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Backoff ran after the final attempt (took %v)", elapsed)
	}
}

func TestRetryAllocate_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retryAllocate(ctx, 3, time.Hour, func() error {
		calls++
		return errors.New("deadlock detected")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no further attempts after cancellation, got %d", calls)
	}
}

func TestObjectPath_UniquePerAttempt(t *testing.T) {
	sessionID := uuid.New()

	first := objectPath(sessionID, "image/png")
	second := objectPath(sessionID, "image/png")

	if first == second {
		t.Error("Expected distinct paths for distinct upload attempts")
	}
	if !strings.HasPrefix(first, sessionID.String()+"/") {
		t.Errorf("Expected path scoped under session ID, got %q", first)
	}
	if !strings.HasSuffix(first, ".png") {
		t.Errorf("Expected .png extension, got %q", first)
	}
}
