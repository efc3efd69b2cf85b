package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyq-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `id, target, uploaded, active, started_at, ended_at, created_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(&s.ID, &s.Target, &s.Uploaded, &s.Active, &s.StartedAt, &s.EndedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetActive resolves "the" active session: the most recently created row with
// active = true. Returns pgx.ErrNoRows if none exists.
func (r *SessionRepo) GetActive(ctx context.Context) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE active ORDER BY created_at DESC LIMIT 1`
	return scanSession(r.pool.QueryRow(ctx, query))
}

func (r *SessionRepo) Create(ctx context.Context, target int) (*models.Session, error) {
	query := `INSERT INTO sessions (id, target, active)
		VALUES ($1, $2, TRUE)
		RETURNING ` + sessionColumns
	return scanSession(r.pool.QueryRow(ctx, query, uuid.New(), target))
}

// UpdateTarget changes the target in place. The guard against sessions that
// already have uploads lives in the service layer.
func (r *SessionRepo) UpdateTarget(ctx context.Context, id uuid.UUID, target int) error {
	_, err := r.pool.Exec(ctx, `UPDATE sessions SET target = $2 WHERE id = $1`, id, target)
	return err
}

// SetStarted stamps started_at exactly once; rows already started are left
// untouched and reported via the returned flag.
func (r *SessionRepo) SetStarted(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET started_at = $2
		WHERE id = $1 AND started_at IS NULL`, id, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// GetForUpdateTx locks the session row for the duration of the transaction.
// The session row is the serialization point for both numbering and unlock
// eligibility.
func (r *SessionRepo) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 FOR UPDATE`
	return scanSession(tx.QueryRow(ctx, query, id))
}

// IncrementUploadedTx is the numbering allocator: it atomically spends one
// slot of the uploaded counter and returns the post-increment value as the
// assigned question number. Returns pgx.ErrNoRows when the session is at
// capacity, in which case nothing was incremented.
func (r *SessionRepo) IncrementUploadedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error) {
	var number int
	err := tx.QueryRow(ctx, `
		UPDATE sessions SET uploaded = uploaded + 1
		WHERE id = $1 AND active AND uploaded < target
		RETURNING uploaded`, id).Scan(&number)
	if err != nil {
		return 0, err
	}
	return number, nil
}

// EndTx marks the session inactive with ended_at set. Question and activity
// deletion happen in the same transaction (see the service layer).
func (r *SessionRepo) EndTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, now time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE sessions SET active = FALSE, ended_at = $2
		WHERE id = $1`, id, now)
	return err
}
