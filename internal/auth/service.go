package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"booklibrary/internal/apperr"
	"booklibrary/internal/platform/crypto"
	"booklibrary/internal/user"
)

type Service struct {
	secret string
	ttl    time.Duration
	users  Users
	log    *slog.Logger
}

func NewService(secret string, ttl time.Duration, users Users, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{secret: secret, ttl: ttl, users: users, log: log}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is what a successful register or login hands back.
type Session struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

// Register creates the account and signs a token for it. in must already be
// validated.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return Session{}, apperr.Internal("Failed to hash password").WithCause(err)
	}

	u, err := s.users.Register(ctx, in.Email, in.Name, hash, in.Role)
	if err != nil {
		return Session{}, err
	}
	return s.issue(u)
}

// Login checks the credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Session{}, apperr.Unauthorized("Invalid credentials")
		}
		return Session{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, in.Password) {
		s.log.WarnContext(ctx, "login rejected", "user_id", u.ID)
		return Session{}, apperr.Unauthorized("Invalid credentials")
	}
	return s.issue(u)
}

func (s *Service) issue(u user.User) (Session, error) {
	token, err := crypto.GenerateToken(s.secret, u.ID, u.Role, s.ttl)
	if err != nil {
		return Session{}, apperr.Internal("Failed to sign token").WithCause(err)
	}
	return Session{User: u, Token: token}, nil
}
