package bookmark

import (
	"context"
	"errors"
	"time"

	"booklibrary/internal/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

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

// update runs a bookmarks assignment against one user and returns the new list.
func (r *PostgresRepo) update(ctx context.Context, userID, bookID, assignment string) ([]string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperr.NotFound("User not found")
	}

	query := `UPDATE users SET bookmarks = ` + assignment + `, updated_at = NOW()
	WHERE id = $1
	RETURNING bookmarks::text[]`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var ids []string
	if err := r.db.QueryRow(timeoutCtx, query, userID, bookID).Scan(&ids); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("Failed to update bookmarks").WithCause(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *PostgresRepo) Append(ctx context.Context, userID, bookID string) ([]string, error) {
	if _, err := uuid.Parse(bookID); err != nil {
		return nil, apperr.NotFound("Book not found")
	}
	return r.update(ctx, userID, bookID, `array_append(bookmarks, $2::uuid)`)
}

func (r *PostgresRepo) AppendUnique(ctx context.Context, userID, bookID string) ([]string, error) {
	if _, err := uuid.Parse(bookID); err != nil {
		return nil, apperr.NotFound("Book not found")
	}
	return r.update(ctx, userID, bookID,
		`CASE WHEN $2::uuid = ANY(bookmarks) THEN bookmarks ELSE array_append(bookmarks, $2::uuid) END`)
}

func (r *PostgresRepo) Pull(ctx context.Context, userID, bookID string) ([]string, error) {
	return r.update(ctx, userID, bookID, `array_remove(bookmarks::text[], $2::text)::uuid[]`)
}

func (r *PostgresRepo) BookExists(ctx context.Context, bookID string) (bool, error) {
	if _, err := uuid.Parse(bookID); err != nil {
		return false, nil
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var ok bool
	if err := r.db.QueryRow(timeoutCtx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&ok); err != nil {
		return false, apperr.Internal("Failed to look up book").WithCause(err)
	}
	return ok, nil
}

func (r *PostgresRepo) ListBooks(ctx context.Context, ids []string) ([]BookSummary, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []BookSummary{}, nil
	}

	const query = `
	SELECT b.id, b.title, b.author, b.isbn, b.read_status, b.notes, b.cover_image_url
	FROM unnest($1::uuid[]) WITH ORDINALITY AS m(book_id, ord)
	JOIN books b ON b.id = m.book_id
	ORDER BY m.ord
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, valid)
	if err != nil {
		return nil, apperr.Internal("Failed to load bookmarks").WithCause(err)
	}
	defer rows.Close()

	items := []BookSummary{}
	for rows.Next() {
		var b BookSummary
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.ReadStatus, &b.Notes, &b.CoverImageURL); err != nil {
			return nil, apperr.Internal("Failed to load bookmarks").WithCause(err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("Failed to load bookmarks").WithCause(err)
	}
	return items, nil
}
