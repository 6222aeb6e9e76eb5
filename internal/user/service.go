package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"booklibrary/internal/apperr"
)

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log}
}

// Register stores a new account with an already hashed password. An empty
// role defaults to RoleUser.
func (s *Service) Register(ctx context.Context, email, name, passwordHash, role string) (User, error) {
	email = normalizeEmail(email)

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return User{}, apperr.Conflict("Email already registered")
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return User{}, err
	}

	if role == "" {
		role = RoleUser
	}
	u := &User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		Role:         role,
		Bookmarks:    []string{},
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return *u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
