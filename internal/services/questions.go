package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyq-backend/internal/models"
	"dailyq-backend/internal/repository"
	"dailyq-backend/internal/storage"
)

const (
	allocateMaxRetries = 3
	allocateBackoff    = 50 * time.Millisecond
)

// QuestionService owns question ingestion (numbering allocation) and the
// student-facing state machine transitions.
type QuestionService struct {
	pool       *pgxpool.Pool
	sessions   *repository.SessionRepo
	questions  *repository.QuestionRepo
	activities *repository.ActivityRepo
	store      storage.Store
	notifier   *Notifier
}

func NewQuestionService(
	pool *pgxpool.Pool,
	sessions *repository.SessionRepo,
	questions *repository.QuestionRepo,
	activities *repository.ActivityRepo,
	store storage.Store,
	notifier *Notifier,
) *QuestionService {
	return &QuestionService{
		pool:       pool,
		sessions:   sessions,
		questions:  questions,
		activities: activities,
		store:      store,
		notifier:   notifier,
	}
}

// Upload stores the image bytes and creates the question row with the next
// session-scoped number. The storage write happens strictly before the
// database transaction: storage latency never holds a transaction open, and
// a failed upload consumes no sequence number.
func (s *QuestionService) Upload(ctx context.Context, file io.Reader, contentType string) (*models.Question, error) {
	sess, err := s.sessions.GetActive(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "No active session"}
		}
		return nil, err
	}

	// Cheap pre-check; the authoritative guard is the counter update in
	// the allocation transaction.
	if sess.Uploaded >= sess.Target {
		return nil, &CapacityError{Message: "Upload target reached"}
	}

	if err := s.store.EnsureBucket(ctx); err != nil {
		return nil, &StorageError{Message: "Object storage unavailable"}
	}

	path := objectPath(sess.ID, contentType)
	imageURL, err := s.store.Upload(ctx, path, file, contentType)
	if err != nil {
		return nil, &StorageError{Message: "Failed to upload image to storage"}
	}

	return s.allocate(ctx, sess.ID, imageURL)
}

// allocate runs the short numbering transaction with a capped retry loop for
// transient conflicts. CapacityError is terminal and never retried.
func (s *QuestionService) allocate(ctx context.Context, sessionID uuid.UUID, imageURL string) (*models.Question, error) {
	var q *models.Question
	err := retryAllocate(ctx, allocateMaxRetries, allocateBackoff, func() error {
		var attemptErr error
		q, attemptErr = s.allocateOnce(ctx, sessionID, imageURL)
		return attemptErr
	})
	if err == nil {
		return q, nil
	}

	var capacity *CapacityError
	if errors.As(err, &capacity) {
		return nil, err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return nil, &ConflictError{Message: fmt.Sprintf("Failed to save question, please retry: %v", err)}
}

// retryAllocate retries fn up to attempts times with a linear per-attempt
// backoff (attempt * backoff). CapacityError is terminal and returned on the
// spot. The backoff only runs between attempts, never after the last one.
func retryAllocate(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var capacity *CapacityError
		if errors.As(err, &capacity) {
			return err
		}

		lastErr = err
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}
	return lastErr
}

func (s *QuestionService) allocateOnce(ctx context.Context, sessionID uuid.UUID, imageURL string) (*models.Question, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	number, err := s.sessions.IncrementUploadedTx(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Guarded update did not fire: the counter was not spent.
			return nil, &CapacityError{Message: "Upload target reached"}
		}
		return nil, err
	}

	q := &models.Question{
		SessionID: sessionID,
		Number:    number,
		ImageURL:  imageURL,
	}
	if err := s.questions.CreateTx(ctx, tx, q); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

// objectPath builds a globally unique storage path per upload attempt.
func objectPath(sessionID uuid.UUID, contentType string) string {
	return fmt.Sprintf("%s/%s.%s", sessionID, uuid.New(), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	if idx := strings.Index(contentType, "/"); idx >= 0 && idx+1 < len(contentType) {
		return contentType[idx+1:]
	}
	return "png"
}

// MarkViewed records that a student revealed a question. Legal only from
// unlocked; already viewed or completed is a no-op, a locked question is an
// error.
func (s *QuestionService) MarkViewed(ctx context.Context, studentID, questionID uuid.UUID) (*models.Question, error) {
	return s.advance(ctx, studentID, questionID, models.StatusViewed, []string{models.StatusUnlocked})
}

// MarkCompleted records that a student finished a question. Legal from
// unlocked or viewed; already completed is a no-op.
func (s *QuestionService) MarkCompleted(ctx context.Context, studentID, questionID uuid.UUID) (*models.Question, error) {
	return s.advance(ctx, studentID, questionID, models.StatusCompleted, []string{models.StatusUnlocked, models.StatusViewed})
}

func (s *QuestionService) advance(ctx context.Context, studentID, questionID uuid.UUID, to string, from []string) (*models.Question, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Question not found"}
		}
		return nil, err
	}

	if q.Status == models.StatusLocked {
		return nil, &IllegalStateError{Message: "Question is locked"}
	}
	if !transitionNeeded(q.Status, to) {
		// Monotonic no-op: never regress, never double-log.
		return q, nil
	}

	now := time.Now().UTC()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	advanced, err := s.questions.AdvanceTx(ctx, tx, questionID, to, from)
	if err != nil {
		return nil, err
	}
	if advanced {
		if err := s.activities.AppendTx(ctx, tx, questionID, studentID, actionFor(to), now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if advanced {
		q.Status = to
		s.notifier.Publish(ctx, actionFor(to), q.SessionID, []int{q.Number})
	}
	return q, nil
}

// transitionNeeded reports whether moving to the target status is a real
// transition from the current one, as opposed to a monotonic no-op.
func transitionNeeded(current, to string) bool {
	rank := map[string]int{
		models.StatusLocked:    0,
		models.StatusUnlocked:  1,
		models.StatusViewed:    2,
		models.StatusCompleted: 3,
	}
	return rank[current] < rank[to]
}

func actionFor(status string) string {
	switch status {
	case models.StatusViewed:
		return models.ActionViewed
	case models.StatusCompleted:
		return models.ActionCompleted
	default:
		return models.ActionUnlocked
	}
}
