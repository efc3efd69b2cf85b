package services

import (
	"testing"
	"time"
)

func TestBatchEligible(t *testing.T) {
	interval := 30 * time.Minute
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("first batch is immediately eligible", func(t *testing.T) {
		if !batchEligible(t0, nil, interval) {
			t.Fatal("expected a session with no unlocked questions to be eligible")
		}
	})

	t.Run("too early after a batch", func(t *testing.T) {
		last := t0
		now := t0.Add(interval - time.Second)
		if batchEligible(now, &last, interval) {
			t.Fatal("expected call one second before the interval to be rejected")
		}
	})

	t.Run("eligible exactly at the interval", func(t *testing.T) {
		last := t0
		now := t0.Add(interval)
		if !batchEligible(now, &last, interval) {
			t.Fatal("expected call exactly at the interval to be eligible")
		}
	})

	t.Run("eligible after the interval", func(t *testing.T) {
		last := t0
		now := t0.Add(2 * interval)
		if !batchEligible(now, &last, interval) {
			t.Fatal("expected late call to be eligible")
		}
	})
}

func TestNextEligibleAt(t *testing.T) {
	interval := 30 * time.Minute
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("before first batch the session is due at start", func(t *testing.T) {
		next := nextEligibleAt(nil, started, interval)
		if !next.Equal(started) {
			t.Errorf("Expected %v, got %v", started, next)
		}
	})

	t.Run("after a batch the next slot is one interval later", func(t *testing.T) {
		last := started.Add(10 * time.Minute)
		next := nextEligibleAt(&last, started, interval)
		want := last.Add(interval)
		if !next.Equal(want) {
			t.Errorf("Expected %v, got %v", want, next)
		}
	})
}

// The day-start scenario: a bootstrap batch goes out at T0, a poll just
// before T0+interval is rejected, and the next batch is due at exactly
// T0+interval.
func TestUnlockCadenceScenario(t *testing.T) {
	interval := 30 * time.Minute
	t0 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	// Day starts: nothing unlocked yet, so the bootstrap batch is due.
	if !batchEligible(t0, nil, interval) {
		t.Fatal("bootstrap batch must be released at day start")
	}

	// Bootstrap released at t0.
	last := t0

	if batchEligible(t0.Add(interval-time.Second), &last, interval) {
		t.Fatal("poll at T0+interval-1s must not release a batch")
	}
	if !batchEligible(t0.Add(interval), &last, interval) {
		t.Fatal("poll at T0+interval must release the next batch")
	}
}

func TestBatchResult(t *testing.T) {
	interval := 30 * time.Minute
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("a release starts the next interval", func(t *testing.T) {
		res := batchResult(3, now, interval)
		if res.Unlocked != 3 || !res.Started {
			t.Fatalf("Unexpected result %+v", res)
		}
		if res.NextEligibleAt == nil || !res.NextEligibleAt.Equal(now.Add(interval)) {
			t.Errorf("Expected next slot at %v, got %v", now.Add(interval), res.NextEligibleAt)
		}
	})

	t.Run("an empty release starts no countdown", func(t *testing.T) {
		res := batchResult(0, now, interval)
		if res.Unlocked != 0 || !res.Started {
			t.Fatalf("Unexpected result %+v", res)
		}
		if res.NextEligibleAt != nil {
			t.Errorf("Nothing was released, expected no next slot, got %v", res.NextEligibleAt)
		}
	})
}

func TestBatchSize(t *testing.T) {
	if BatchSize != 3 {
		t.Errorf("Expected batch size 3, got %d", BatchSize)
	}
}
