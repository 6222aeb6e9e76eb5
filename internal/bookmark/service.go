package bookmark

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"booklibrary/internal/apperr"
)

type Service struct {
	users Users
	repo  Repository
	log   *slog.Logger
}

func NewService(users Users, repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{users: users, repo: repo, log: log}
}

// GetBookmarks returns the user with the bookmarked books expanded.
func (s *Service) GetBookmarks(ctx context.Context, userID string) (UserBookmarks, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return UserBookmarks{}, err
	}

	items, err := s.repo.ListBooks(ctx, u.Bookmarks)
	if err != nil {
		return UserBookmarks{}, err
	}
	if items == nil {
		items = []BookSummary{}
	}
	return UserBookmarks{User: u, Bookmarks: items}, nil
}

// Toggle removes bookID from the user's bookmarks when present and adds it
// otherwise. Only the add path requires the book to exist.
func (s *Service) Toggle(ctx context.Context, userID, bookID string) (ToggleResult, error) {
	bookID = normalizeID(bookID)
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ToggleResult{}, err
	}

	if slices.Contains(u.Bookmarks, bookID) {
		ids, err := s.repo.Pull(ctx, userID, bookID)
		if err != nil {
			return ToggleResult{}, err
		}
		s.log.InfoContext(ctx, "bookmark removed", "user_id", userID, "book_id", bookID)
		return ToggleResult{Action: ActionRemoved, Bookmarks: ids}, nil
	}

	if err := s.requireBook(ctx, bookID); err != nil {
		return ToggleResult{}, err
	}
	ids, err := s.repo.AppendUnique(ctx, userID, bookID)
	if err != nil {
		return ToggleResult{}, err
	}
	s.log.InfoContext(ctx, "bookmark added", "user_id", userID, "book_id", bookID)
	return ToggleResult{Action: ActionAdded, Bookmarks: ids}, nil
}

// Add appends bookID without checking membership, so repeated calls
// produce duplicates.
func (s *Service) Add(ctx context.Context, userID, bookID string) ([]string, error) {
	bookID = normalizeID(bookID)
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.repo.Append(ctx, userID, bookID)
}

// Remove drops every occurrence of bookID. The book itself may be gone.
func (s *Service) Remove(ctx context.Context, userID, bookID string) ([]string, error) {
	bookID = normalizeID(bookID)
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.Pull(ctx, userID, bookID)
}

func (s *Service) requireBook(ctx context.Context, bookID string) error {
	ok, err := s.repo.BookExists(ctx, bookID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("Book not found")
	}
	return nil
}

// normalizeID puts a book id in the lower-case form both stores return, so
// membership checks compare like with like.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
