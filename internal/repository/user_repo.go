package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyq-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	user.ID = uuid.New()

	return r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.CreatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByLogin matches a student or admin by username or email,
// case-insensitively.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, email, password_hash, role, created_at
		FROM users
		WHERE LOWER(username) = $1 OR LOWER(email) = $1`

	err := r.pool.QueryRow(ctx, query, strings.ToLower(login)).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetOrCreateByEmail inserts the user unless a row with the same email
// already exists, then returns the winning row. Used for the system actor
// and the bootstrap admin, both of which must be create-once.
func (r *UserRepo) GetOrCreateByEmail(ctx context.Context, user *models.User) (*models.User, error) {
	insert := `
		INSERT INTO users (id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`

	if _, err := r.pool.Exec(ctx, insert,
		uuid.New(), user.Username, user.Email, user.PasswordHash, user.Role,
	); err != nil {
		return nil, err
	}

	existing := &models.User{}
	query := `SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE email = $1`
	err := r.pool.QueryRow(ctx, query, user.Email).Scan(
		&existing.ID, &existing.Username, &existing.Email, &existing.PasswordHash, &existing.Role, &existing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return existing, nil
}
