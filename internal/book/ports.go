package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=book

// Repository defines the contract for book data storage.
// Implementations return apperr NOT_FOUND for unknown ids and CONFLICT for a
// duplicate ISBN.
type Repository interface {
	Find(ctx context.Context, q Query) ([]Book, error)
	GetByID(ctx context.Context, id string) (Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, id string, c Changes) (Book, error)
	Delete(ctx context.Context, id string) error
}

// FileRemover deletes stored files by URL.
type FileRemover interface {
	Delete(ctx context.Context, url string) error
}
