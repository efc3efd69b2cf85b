package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyq-backend/internal/models"
)

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

const questionColumns = `id, session_id, number, image_url, status, unlock_time, created_at`

func scanQuestion(row pgx.Row) (*models.Question, error) {
	q := &models.Question{}
	err := row.Scan(&q.ID, &q.SessionID, &q.Number, &q.ImageURL, &q.Status, &q.UnlockTime, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QuestionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	return scanQuestion(r.pool.QueryRow(ctx, query, id))
}

func (r *QuestionRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions
		WHERE session_id = $1 ORDER BY number ASC`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []*models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// MaxUnlockTime returns the timestamp of the last released batch, or nil if
// no question in the session has ever been unlocked. Cheap read used by the
// unlock batcher's steady-state "too early" path.
func (r *QuestionRepo) MaxUnlockTime(ctx context.Context, sessionID uuid.UUID) (*time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(unlock_time) FROM questions WHERE session_id = $1`, sessionID,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}

func (r *QuestionRepo) MaxUnlockTimeTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) (*time.Time, error) {
	var last *time.Time
	err := tx.QueryRow(ctx,
		`SELECT MAX(unlock_time) FROM questions WHERE session_id = $1`, sessionID,
	).Scan(&last)
	if err != nil {
		return nil, err
	}
	return last, nil
}

// CreateTx inserts a freshly numbered locked question inside the allocation
// transaction.
func (r *QuestionRepo) CreateTx(ctx context.Context, tx pgx.Tx, q *models.Question) error {
	q.ID = uuid.New()
	q.Status = models.StatusLocked

	query := `INSERT INTO questions (id, session_id, number, image_url, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return tx.QueryRow(ctx, query,
		q.ID, q.SessionID, q.Number, q.ImageURL, q.Status,
	).Scan(&q.CreatedAt)
}

// LockedBatchTx selects up to limit locked questions, lowest number first.
// Callers hold the session row lock, which serializes concurrent batchers.
func (r *QuestionRepo) LockedBatchTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, limit int) ([]*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions
		WHERE session_id = $1 AND status = 'locked'
		ORDER BY number ASC
		LIMIT $2
		FOR UPDATE`

	rows, err := tx.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []*models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuestionRepo) UnlockBatchTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID, now time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE questions SET status = 'unlocked', unlock_time = $2
		WHERE id = ANY($1) AND status = 'locked'`, ids, now)
	return err
}

// AdvanceTx moves one question to the given status if its current status is
// in the allowed set. Zero rows affected means another writer advanced it
// first; the caller treats that as a no-op.
func (r *QuestionRepo) AdvanceTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, to string, from []string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE questions SET status = $2
		WHERE id = $1 AND status = ANY($3)`, id, to, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteBySessionTx removes the session's questions as part of the end-day
// cascade.
func (r *QuestionRepo) DeleteBySessionTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM questions WHERE session_id = $1`, sessionID)
	return err
}
