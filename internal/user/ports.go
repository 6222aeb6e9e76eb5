package user

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=user

// Repository persists users. Lookups return an apperr NotFound error when no
// user matches; Create returns an apperr Conflict error for a taken email.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}
