package user

import (
	"context"
	"errors"
	"time"

	"booklibrary/internal/apperr"
	"booklibrary/internal/platform/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, name, role, bookmarks::text[], created_at, updated_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Bookmarks, &u.CreatedAt, &u.UpdatedAt)
	if u.Bookmarks == nil {
		u.Bookmarks = []string{}
	}
	return u, err
}

func (r *PostgresRepo) Create(ctx context.Context, u *User) error {
	const query = `
	INSERT INTO users (email, password_hash, name, role)
	VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'user'))
	RETURNING id, role, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, u.Email, u.PasswordHash, u.Name, u.Role).
		Scan(&u.ID, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	if u.Bookmarks == nil {
		u.Bookmarks = []string{}
	}
	return nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	u, err := scanUser(r.db.QueryRow(timeoutCtx, "SELECT "+userColumns+" FROM users WHERE email = $1 LIMIT 1", email))
	if err != nil {
		return User{}, mapError(err)
	}
	return u, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, apperr.NotFound("User not found")
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	u, err := scanUser(r.db.QueryRow(timeoutCtx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return User{}, mapError(err)
	}
	return u, nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("User not found")
	}
	if _, ok := postgres.IsUniqueViolation(err); ok {
		return apperr.Conflict("Email already registered").WithCause(err)
	}
	return apperr.Internal("User store error").WithCause(err)
}
