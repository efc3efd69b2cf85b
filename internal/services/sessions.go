package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyq-backend/internal/models"
	"dailyq-backend/internal/repository"
)

// SessionService owns the lifecycle of the single global active session.
type SessionService struct {
	pool       *pgxpool.Pool
	sessions   *repository.SessionRepo
	questions  *repository.QuestionRepo
	activities *repository.ActivityRepo
	unlock     *UnlockService
}

func NewSessionService(
	pool *pgxpool.Pool,
	sessions *repository.SessionRepo,
	questions *repository.QuestionRepo,
	activities *repository.ActivityRepo,
	unlock *UnlockService,
) *SessionService {
	return &SessionService{
		pool:       pool,
		sessions:   sessions,
		questions:  questions,
		activities: activities,
		unlock:     unlock,
	}
}

func (s *SessionService) Active(ctx context.Context) (*models.Session, error) {
	sess, err := s.sessions.GetActive(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "No active session"}
		}
		return nil, err
	}
	return sess, nil
}

// SetTarget creates the active session with the given target, or updates the
// target in place while no question has been uploaded yet.
func (s *SessionService) SetTarget(ctx context.Context, target int) (*models.Session, error) {
	if target <= 0 {
		return nil, &ValidationError{Fields: map[string]string{"target": "Target must be a positive integer"}}
	}

	active, err := s.sessions.GetActive(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			sess, createErr := s.sessions.Create(ctx, target)
			if repository.IsUniqueViolation(createErr) {
				// Lost the one-active-session race to a concurrent creator.
				return nil, &ConflictError{Message: "Session was just created by another request, please retry"}
			}
			return sess, createErr
		}
		return nil, err
	}

	if active.Target == target {
		return active, nil
	}
	if active.Uploaded > 0 {
		return nil, &IllegalStateError{Message: "Cannot change target after first upload"}
	}
	if err := s.sessions.UpdateTarget(ctx, active.ID, target); err != nil {
		return nil, err
	}
	active.Target = target
	return active, nil
}

// StartDay stamps started_at and releases the bootstrap batch. Idempotent:
// an already-started session is a successful no-op.
func (s *SessionService) StartDay(ctx context.Context, now time.Time) (*models.Session, UnlockResult, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, UnlockResult{}, err
	}

	if active.StartedAt != nil {
		return active, UnlockResult{Started: true}, nil
	}

	started, err := s.sessions.SetStarted(ctx, active.ID, now)
	if err != nil {
		return nil, UnlockResult{}, err
	}
	if started {
		active.StartedAt = &now
	}

	// Bootstrap: release the first batch immediately.
	result, err := s.unlock.TryUnlock(ctx, now)
	if err != nil {
		return nil, UnlockResult{}, fmt.Errorf("day started but bootstrap unlock failed: %w", err)
	}
	return active, result, nil
}

// EndDay is a hard reset: one transaction deletes the session's activity log
// and questions and marks the session inactive. The day's data does not
// outlive the day.
func (s *SessionService) EndDay(ctx context.Context, now time.Time) (*models.Session, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.activities.DeleteBySessionTx(ctx, tx, active.ID); err != nil {
		return nil, err
	}
	if err := s.questions.DeleteBySessionTx(ctx, tx, active.ID); err != nil {
		return nil, err
	}
	if err := s.sessions.EndTx(ctx, tx, active.ID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	active.Active = false
	active.EndedAt = &now
	return active, nil
}
