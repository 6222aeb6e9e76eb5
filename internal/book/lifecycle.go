package book

import (
	"context"

	"booklibrary/internal/apperr"
	"booklibrary/internal/validation"
)

// Create validates in and stores a new book referencing fileURL.
func (s *Service) Create(ctx context.Context, in NewBook, fileURL string) (Book, error) {
	if err := validation.Validate(in); err != nil {
		return Book{}, err
	}

	b := &Book{
		Title:         in.Title,
		Author:        in.Author,
		ISBN:          in.ISBN,
		Genre:         in.Genre,
		ReadStatus:    in.ReadStatus,
		UserRating:    in.UserRating,
		Notes:         in.Notes,
		FileURL:       fileURL,
		CoverImageURL: in.CoverImageURL,
		IsBestSeller:  in.IsBestSeller,
		IsFeatured:    in.IsFeatured,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return Book{}, err
	}
	s.log.InfoContext(ctx, "book created", "book_id", b.ID, "isbn", b.ISBN)
	return *b, nil
}

func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies c to the book. A non-empty newFileURL replaces file_url; the
// previous file is removed only once the record points at the new one, and
// failing to remove it is only logged.
func (s *Service) Update(ctx context.Context, id string, c Changes, newFileURL string) (Book, error) {
	if err := validation.Validate(c); err != nil {
		return Book{}, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	c.FileURL = nil
	if newFileURL != "" {
		c.FileURL = &newFileURL
	}

	updated, err := s.repo.Update(ctx, id, c)
	if err != nil {
		return Book{}, err
	}

	if newFileURL != "" && existing.FileURL != "" && existing.FileURL != newFileURL {
		if err := s.files.Delete(ctx, existing.FileURL); err != nil {
			s.log.WarnContext(ctx, "failed to delete old book file",
				"book_id", id, "file_url", existing.FileURL, "error", err)
		}
	}
	return updated, nil
}

// Delete removes the book's file and then the book. If the file cannot be
// removed the book is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if existing.FileURL != "" {
		if err := s.files.Delete(ctx, existing.FileURL); err != nil {
			s.log.ErrorContext(ctx, "failed to delete book file",
				"book_id", id, "file_url", existing.FileURL, "error", err)
			return apperr.DependencyFailure("Failed to delete book file").WithCause(err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "book deleted", "book_id", id)
	return nil
}
