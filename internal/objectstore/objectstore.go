// Package objectstore stores uploaded book files and hands back public URLs.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"booklibrary/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Store uploads a payload and deletes it again by the URL it returned.
// Delete must succeed for objects that are already gone.
type Store interface {
	Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// AllowedFormats lists the accepted book file types.
var AllowedFormats = []string{
	"application/pdf",
	"application/epub+zip",
	"application/x-mobipocket-ebook",
	"application/vnd.amazon.ebook",
	"text/plain",
	"application/rtf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func allowed(contentType string) (string, bool) {
	ct, _, _ := strings.Cut(contentType, ";")
	ct = strings.ToLower(strings.TrimSpace(ct))
	for _, a := range AllowedFormats {
		if a == ct {
			return a, true
		}
	}
	return "", false
}

// DetectBookFormat sniffs the content of r and returns its book MIME type.
// When the content is not recognisable the declared type is trusted if it is
// an allowed one. r is rewound before returning.
func DetectBookFormat(r io.ReadSeeker, declared string) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", apperr.Validation("Could not read uploaded file").WithCause(err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	for _, a := range AllowedFormats {
		if mt.Is(a) {
			return a, nil
		}
	}
	if mt.Is("application/octet-stream") {
		if ct, ok := allowed(declared); ok {
			return ct, nil
		}
	}
	return "", apperr.Validation("Unsupported file type. Allowed: PDF, EPUB, MOBI, AZW, TXT, RTF, DOC, DOCX").
		WithDetails(map[string]string{"detected": mt.String(), "declared": declared})
}

// objectName returns a collision-free name that keeps the original extension.
func objectName(filename string) string {
	return uuid.NewString() + strings.ToLower(path.Ext(filename))
}
