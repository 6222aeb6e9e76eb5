package bookmark

import (
	"context"

	"booklibrary/internal/user"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=bookmark

// Repository mutates a user's bookmark list. The write methods return the
// list after the write and an apperr NotFound error when the user is missing.
type Repository interface {
	// Append adds bookID at the end even if it is already present.
	Append(ctx context.Context, userID, bookID string) ([]string, error)
	// AppendUnique adds bookID at the end unless it is already present, in a
	// single write.
	AppendUnique(ctx context.Context, userID, bookID string) ([]string, error)
	// Pull removes every occurrence of bookID.
	Pull(ctx context.Context, userID, bookID string) ([]string, error)
	BookExists(ctx context.Context, bookID string) (bool, error)
	// ListBooks resolves ids in order, skipping ids whose book is gone.
	ListBooks(ctx context.Context, ids []string) ([]BookSummary, error)
}

// Users looks up the owner of a bookmark list.
type Users interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}
