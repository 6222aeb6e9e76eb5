package auth

import (
	"context"

	"booklibrary/internal/user"
)

//go:generate mockgen -source=ports.go -destination=mock_users_test.go -package=auth

// Users is the part of the user service that authentication needs.
type Users interface {
	Register(ctx context.Context, email, name, passwordHash, role string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}
