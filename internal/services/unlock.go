package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyq-backend/internal/models"
	"dailyq-backend/internal/repository"
)

// BatchSize is the number of questions released per unlock batch.
const BatchSize = 3

// UnlockResult reports what a TryUnlock invocation did.
type UnlockResult struct {
	Unlocked       int        `json:"unlocked"`
	NextEligibleAt *time.Time `json:"next_eligible_at"`
	Started        bool       `json:"started"`
}

// UnlockService releases locked questions in batches of BatchSize, no more
// often than once per configured interval. TryUnlock is idempotent and safe
// to call concurrently from the admin control, student polls, an external
// cron and the in-process scheduler; they are all just callers of the same
// contract.
type UnlockService struct {
	pool       *pgxpool.Pool
	sessions   *repository.SessionRepo
	questions  *repository.QuestionRepo
	activities *repository.ActivityRepo
	system     *SystemUserService
	notifier   *Notifier
	interval   time.Duration
}

func NewUnlockService(
	pool *pgxpool.Pool,
	sessions *repository.SessionRepo,
	questions *repository.QuestionRepo,
	activities *repository.ActivityRepo,
	system *SystemUserService,
	notifier *Notifier,
	intervalMinutes int,
) *UnlockService {
	return &UnlockService{
		pool:       pool,
		sessions:   sessions,
		questions:  questions,
		activities: activities,
		system:     system,
		notifier:   notifier,
		interval:   time.Duration(intervalMinutes) * time.Minute,
	}
}

func (s *UnlockService) Interval() time.Duration { return s.interval }

// batchEligible decides whether a new batch is due. A session whose first
// batch has never been released is immediately eligible, so the bootstrap
// batch goes out the moment the day starts.
func batchEligible(now time.Time, lastUnlock *time.Time, interval time.Duration) bool {
	if lastUnlock == nil {
		return true
	}
	return !now.Before(lastUnlock.Add(interval))
}

// nextEligibleAt is the earliest instant the next batch may be released.
func nextEligibleAt(lastUnlock *time.Time, startedAt time.Time, interval time.Duration) time.Time {
	if lastUnlock == nil {
		return startedAt
	}
	return lastUnlock.Add(interval)
}

// batchResult summarizes a committed release attempt. An empty release starts
// no interval: nothing was locked, so there is no next batch to count down to.
func batchResult(released int, now time.Time, interval time.Duration) UnlockResult {
	res := UnlockResult{Started: true, Unlocked: released}
	if released > 0 {
		next := now.Add(interval)
		res.NextEligibleAt = &next
	}
	return res
}

// TryUnlock resolves the active session and, if a batch is due, atomically
// unlocks up to BatchSize locked questions and records one activity row per
// question attributed to the system actor.
func (s *UnlockService) TryUnlock(ctx context.Context, now time.Time) (UnlockResult, error) {
	sess, err := s.sessions.GetActive(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UnlockResult{}, &NotFoundError{Message: "No active session"}
		}
		return UnlockResult{}, err
	}

	if sess.StartedAt == nil {
		return UnlockResult{}, nil
	}

	// Steady-state "too early" path must be cheap: one aggregate read,
	// no write transaction.
	lastUnlock, err := s.questions.MaxUnlockTime(ctx, sess.ID)
	if err != nil {
		return UnlockResult{}, err
	}
	if !batchEligible(now, lastUnlock, s.interval) {
		next := nextEligibleAt(lastUnlock, *sess.StartedAt, s.interval)
		return UnlockResult{Started: true, NextEligibleAt: &next}, nil
	}

	result, numbers, err := s.unlockBatch(ctx, sess, now)
	if err != nil {
		return UnlockResult{}, err
	}

	if result.Unlocked > 0 {
		s.notifier.Publish(ctx, models.ActionUnlocked, sess.ID, numbers)
	}
	return result, nil
}

func (s *UnlockService) unlockBatch(ctx context.Context, sess *models.Session, now time.Time) (UnlockResult, []int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return UnlockResult{}, nil, fmt.Errorf("failed to begin unlock transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the session row so concurrent batchers serialize here, then
	// re-check eligibility: a racing caller may have just released a batch.
	locked, err := s.sessions.GetForUpdateTx(ctx, tx, sess.ID)
	if err != nil {
		return UnlockResult{}, nil, err
	}
	if !locked.Active || locked.StartedAt == nil {
		return UnlockResult{}, nil, nil
	}

	lastUnlock, err := s.questions.MaxUnlockTimeTx(ctx, tx, sess.ID)
	if err != nil {
		return UnlockResult{}, nil, err
	}
	if !batchEligible(now, lastUnlock, s.interval) {
		next := nextEligibleAt(lastUnlock, *locked.StartedAt, s.interval)
		return UnlockResult{Started: true, NextEligibleAt: &next}, nil, nil
	}

	batch, err := s.questions.LockedBatchTx(ctx, tx, sess.ID, BatchSize)
	if err != nil {
		return UnlockResult{}, nil, err
	}

	if len(batch) == 0 {
		if err := tx.Commit(ctx); err != nil {
			return UnlockResult{}, nil, err
		}
		return batchResult(0, now, s.interval), nil, nil
	}

	system, err := s.system.Get(ctx)
	if err != nil {
		return UnlockResult{}, nil, err
	}

	questionIDs := make([]uuid.UUID, len(batch))
	numbers := make([]int, len(batch))
	for i, q := range batch {
		questionIDs[i] = q.ID
		numbers[i] = q.Number
	}

	if err := s.questions.UnlockBatchTx(ctx, tx, questionIDs, now); err != nil {
		return UnlockResult{}, nil, err
	}
	if err := s.activities.AppendBatchTx(ctx, tx, questionIDs, system.ID, models.ActionUnlocked, now); err != nil {
		return UnlockResult{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return UnlockResult{}, nil, fmt.Errorf("failed to commit unlock batch: %w", err)
	}

	return batchResult(len(batch), now, s.interval), numbers, nil
}
