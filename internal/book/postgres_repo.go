package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"booklibrary/internal/apperr"
	"booklibrary/internal/platform/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id, title, author, isbn, read_status, user_rating, notes, file_url,
	cover_image_url, genre, is_best_seller, is_featured, created_at, updated_at`

var sortColumns = map[SortField]string{
	SortTitle:     "title",
	SortAuthor:    "author",
	SortCreatedAt: "created_at",
}

var matchColumns = map[MatchField]string{
	MatchTitle:  "title",
	MatchAuthor: "author",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns s into a literal, unanchored ILIKE pattern.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.ReadStatus, &b.UserRating, &b.Notes, &b.FileURL,
		&b.CoverImageURL, &b.Genre, &b.IsBestSeller, &b.IsFeatured, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// buildFindSQL renders q as a single SELECT. It is separate from Find so the
// clause composition can be tested without a database.
func buildFindSQL(q Query) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Text != "" {
		clauses = append(clauses, fmt.Sprintf("search_vector @@ plainto_tsquery('english', $%d)", argn))
		args = append(args, q.Text)
		argn++
	}

	if q.Match != "" && len(q.MatchIn) > 0 {
		var ors []string
		for _, f := range q.MatchIn {
			col, ok := matchColumns[f]
			if !ok {
				continue
			}
			ors = append(ors, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, col, argn))
		}
		if len(ors) > 0 {
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
			args = append(args, likePattern(q.Match))
			argn++
		}
	}

	if q.Author != "" {
		clauses = append(clauses, fmt.Sprintf(`author ILIKE $%d ESCAPE '\'`, argn))
		args = append(args, likePattern(q.Author))
		argn++
	}

	if q.Read != nil {
		clauses = append(clauses, fmt.Sprintf("read_status = $%d", argn))
		args = append(args, *q.Read)
		argn++
	}

	if q.MinRating != nil {
		clauses = append(clauses, fmt.Sprintf("user_rating >= $%d", argn))
		args = append(args, *q.MinRating)
		argn++
	}

	if q.Genre != nil {
		clauses = append(clauses, fmt.Sprintf("genre = $%d", argn))
		args = append(args, *q.Genre)
		argn++
	}

	if q.BestSeller != nil {
		clauses = append(clauses, fmt.Sprintf("is_best_seller = $%d", argn))
		args = append(args, *q.BestSeller)
		argn++
	}

	if q.Featured != nil {
		clauses = append(clauses, fmt.Sprintf("is_featured = $%d", argn))
		args = append(args, *q.Featured)
		argn++
	}

	// without a sort, rows come back in insertion order
	orderBy := "created_at, id"
	if q.Sort != nil {
		if col, ok := sortColumns[q.Sort.Field]; ok {
			dir := "ASC"
			if q.Sort.Desc {
				dir = "DESC"
			}
			orderBy = fmt.Sprintf("%s %s, id %s", col, dir, dir)
		}
	}

	sql := fmt.Sprintf("SELECT %s FROM books WHERE %s ORDER BY %s",
		bookColumns, strings.Join(clauses, " AND "), orderBy)

	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d", argn)
		args = append(args, q.Limit)
	}
	return sql, args
}

func (r *PostgresRepo) Find(ctx context.Context, q Query) ([]Book, error) {
	sql, args := buildFindSQL(q)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, sql, args...)
	if err != nil {
		return nil, apperr.Internal("Failed to query books").WithCause(err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, apperr.Internal("Failed to read books").WithCause(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("Failed to read books").WithCause(err)
	}
	return out, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Book{}, apperr.NotFound("Book not found")
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, "SELECT "+bookColumns+" FROM books WHERE id = $1", id))
	if err != nil {
		return Book{}, mapError(err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const query = `
	INSERT INTO books (title, author, isbn, read_status, user_rating, notes, file_url,
	                   cover_image_url, genre, is_best_seller, is_featured)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query,
		b.Title, b.Author, b.ISBN, b.ReadStatus, b.UserRating, b.Notes, b.FileURL,
		b.CoverImageURL, b.Genre, b.IsBestSeller, b.IsFeatured,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// buildUpdateSQL renders the SET list for the non-nil fields of c.
func buildUpdateSQL(id string, c Changes) (string, []any) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if c.Title != nil {
		add("title", *c.Title)
	}
	if c.Author != nil {
		add("author", *c.Author)
	}
	if c.ISBN != nil {
		add("isbn", *c.ISBN)
	}
	if c.Genre != nil {
		add("genre", *c.Genre)
	}
	if c.ReadStatus != nil {
		add("read_status", *c.ReadStatus)
	}
	if c.UserRating != nil {
		add("user_rating", *c.UserRating)
	}
	if c.Notes != nil {
		add("notes", *c.Notes)
	}
	if c.CoverImageURL != nil {
		add("cover_image_url", *c.CoverImageURL)
	}
	if c.IsBestSeller != nil {
		add("is_best_seller", *c.IsBestSeller)
	}
	if c.IsFeatured != nil {
		add("is_featured", *c.IsFeatured)
	}
	if c.FileURL != nil && *c.FileURL != "" {
		add("file_url", *c.FileURL)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	sql := fmt.Sprintf("UPDATE books SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), bookColumns)
	return sql, args
}

func (r *PostgresRepo) Update(ctx context.Context, id string, c Changes) (Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Book{}, apperr.NotFound("Book not found")
	}
	sql, args := buildUpdateSQL(id, c)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, sql, args...))
	if err != nil {
		return Book{}, mapError(err)
	}
	return b, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("Book not found")
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return apperr.Internal("Failed to delete book").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Book not found")
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("Book not found")
	}
	if _, ok := postgres.IsUniqueViolation(err); ok {
		return apperr.Conflict("A book with this ISBN already exists").WithCause(err)
	}
	return apperr.Internal("Book store error").WithCause(err)
}
