package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyq-backend/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

// AppendTx records exactly one activity row in the same transaction as the
// question transition it describes.
func (r *ActivityRepo) AppendTx(ctx context.Context, tx pgx.Tx, questionID, actorID uuid.UUID, action string, ts time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO activities (id, question_id, actor_id, action, timestamp)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), questionID, actorID, action, ts)
	return err
}

func (r *ActivityRepo) AppendBatchTx(ctx context.Context, tx pgx.Tx, questionIDs []uuid.UUID, actorID uuid.UUID, action string, ts time.Time) error {
	batch := &pgx.Batch{}
	for _, qid := range questionIDs {
		batch.Queue(`
			INSERT INTO activities (id, question_id, actor_id, action, timestamp)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), qid, actorID, action, ts)
	}
	return tx.SendBatch(ctx, batch).Close()
}

// ListBySession returns the newest activity rows for the session's questions,
// joined with the question number for display.
func (r *ActivityRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.Activity, error) {
	query := `
		SELECT a.id, a.question_id, a.actor_id, a.action, a.timestamp, q.number
		FROM activities a
		JOIN questions q ON q.id = a.question_id
		WHERE q.session_id = $1
		ORDER BY a.timestamp DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []*models.Activity{}
	for rows.Next() {
		a := &models.Activity{}
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.ActorID, &a.Action, &a.Timestamp, &a.QuestionNumber); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// DeleteBySessionTx purges the audit log as part of the end-day cascade.
func (r *ActivityRepo) DeleteBySessionTx(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM activities
		WHERE question_id IN (SELECT id FROM questions WHERE session_id = $1)`, sessionID)
	return err
}
