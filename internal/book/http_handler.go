package book

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"booklibrary/internal/apperr"
	"booklibrary/internal/httpx"
	"booklibrary/internal/objectstore"
	"booklibrary/internal/validation"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

type HTTPHandler struct {
	service *Service
	files   objectstore.Store
	log     *slog.Logger
}

func NewHTTPHandler(service *Service, files objectstore.Store, log *slog.Logger) *HTTPHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HTTPHandler{service: service, files: files, log: log}
}

// List handles GET /books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	f := ListFilter{
		Search: query.Get("search"),
		Author: query.Get("author"),
		Read:   parseBoolParam(query.Get("read")),
	}
	if v := query.Get("minRating"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinRating = &n
		}
	}

	books, err := h.service.List(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Books fetched successfully", books, map[string]any{"count": len(books)})
}

// Search handles GET /books/search-books?query=&searchBy=
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	books, err := h.service.Search(r.Context(), query.Get("query"), ParseSearchScope(query.Get("searchBy")))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Books fetched successfully", books, map[string]any{"count": len(books)})
}

// Filter handles GET /books/filter-books?author=&read=&sortBy=&order=
func (h *HTTPHandler) Filter(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	books, err := h.service.Filter(r.Context(), FilterParams{
		Author: query.Get("author"),
		Read:   parseBoolParam(query.Get("read")),
		SortBy: query.Get("sortBy"),
		Order:  query.Get("order"),
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Books fetched successfully", books, map[string]any{"count": len(books)})
}

// Special handles GET /books/special
func (h *HTTPHandler) Special(w http.ResponseWriter, r *http.Request) {
	sets, err := h.service.SpecialSets(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Special books fetched successfully", sets, nil)
}

// ByGenre handles GET /books/genre/{genre}
func (h *HTTPHandler) ByGenre(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ByGenre(r.Context(), r.PathValue("genre"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Books fetched successfully", books, map[string]any{"count": len(books)})
}

// Get handles GET /books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Book fetched successfully", b, nil)
}

// Create handles POST /books (multipart, "file" required)
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	in, err := newBookFromForm(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := validation.Validate(in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	fileURL, err := h.upload(r, true)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	b, err := h.service.Create(r.Context(), in, fileURL)
	if err != nil {
		h.discardUpload(r.Context(), fileURL)
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, "Book created successfully", b)
}

// Update handles PATCH /books/{id}. The body is either JSON or multipart with
// an optional replacement "file".
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var (
		c   Changes
		err error
	)
	multipartBody := isMultipart(r)
	if multipartBody {
		if err = parseMultipart(r); err == nil {
			c, err = changesFromForm(r)
		}
	} else {
		err = httpx.DecodeJSON(r, &c)
	}
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := validation.Validate(c); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	var fileURL string
	if multipartBody {
		if fileURL, err = h.upload(r, false); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}

	b, err := h.service.Update(r.Context(), r.PathValue("id"), c, fileURL)
	if err != nil {
		h.discardUpload(r.Context(), fileURL)
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Book updated successfully", b, nil)
}

// Delete handles DELETE /books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Book deleted successfully", nil, nil)
}

// upload stores the "file" part and returns its URL. Without a file it
// returns "" unless required.
func (h *HTTPHandler) upload(r *http.Request, required bool) (string, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return "", apperr.Validation("Book file is required")
		}
		return "", nil
	}
	if err != nil {
		return "", apperr.Validation("Invalid file upload").WithCause(err)
	}
	defer file.Close()

	contentType, err := objectstore.DetectBookFormat(file, header.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	fileURL, err := h.files.Upload(r.Context(), file, header.Filename, contentType)
	if err != nil {
		return "", apperr.DependencyFailure("Failed to upload book file").WithCause(err)
	}
	h.log.InfoContext(r.Context(), "book file uploaded", "file_url", fileURL, "content_type", contentType, "size", header.Size)
	return fileURL, nil
}

// discardUpload removes a file whose book was never written.
func (h *HTTPHandler) discardUpload(ctx context.Context, fileURL string) {
	if fileURL == "" {
		return
	}
	if err := h.files.Delete(context.WithoutCancel(ctx), fileURL); err != nil {
		h.log.WarnContext(ctx, "failed to discard orphaned upload", "file_url", fileURL, "error", err)
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func parseMultipart(r *http.Request) error {
	if !isMultipart(r) {
		return apperr.Validation("Content-Type must be multipart/form-data")
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation("File too large").WithCause(err)
		}
		return apperr.Validation("Invalid multipart body").WithCause(err)
	}
	return nil
}

// parseBoolParam returns nil unless v is "true" or "false".
func parseBoolParam(v string) *bool {
	switch strings.ToLower(v) {
	case "true":
		b := true
		return &b
	case "false":
		b := false
		return &b
	default:
		return nil
	}
}

type formReader struct {
	r    *http.Request
	errs []validation.FieldError
}

func (f *formReader) has(key string) bool {
	_, ok := f.r.MultipartForm.Value[key]
	return ok
}

func (f *formReader) str(key string) *string {
	if !f.has(key) {
		return nil
	}
	v := strings.TrimSpace(f.r.FormValue(key))
	return &v
}

func (f *formReader) boolean(key string) *bool {
	if !f.has(key) {
		return nil
	}
	b, err := strconv.ParseBool(f.r.FormValue(key))
	if err != nil {
		f.errs = append(f.errs, validation.FieldError{Field: key, Message: key + " must be a boolean"})
		return nil
	}
	return &b
}

func (f *formReader) integer(key string) *int {
	if !f.has(key) || f.r.FormValue(key) == "" {
		return nil
	}
	n, err := strconv.Atoi(f.r.FormValue(key))
	if err != nil {
		f.errs = append(f.errs, validation.FieldError{Field: key, Message: key + " must be an integer"})
		return nil
	}
	return &n
}

func (f *formReader) err() error {
	if len(f.errs) == 0 {
		return nil
	}
	return apperr.Validation(f.errs[0].Message).WithDetails(f.errs)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func newBookFromForm(r *http.Request) (NewBook, error) {
	f := &formReader{r: r}
	in := NewBook{
		Title:         deref(f.str("title")),
		Author:        deref(f.str("author")),
		ISBN:          deref(f.str("isbn")),
		Genre:         deref(f.str("genre")),
		ReadStatus:    deref(f.boolean("read_status")),
		UserRating:    f.integer("user_rating"),
		Notes:         deref(f.str("notes")),
		CoverImageURL: deref(f.str("coverImageUrl")),
		IsBestSeller:  deref(f.boolean("isBestSeller")),
		IsFeatured:    deref(f.boolean("isFeatured")),
	}
	return in, f.err()
}

func changesFromForm(r *http.Request) (Changes, error) {
	f := &formReader{r: r}
	c := Changes{
		Title:         f.str("title"),
		Author:        f.str("author"),
		ISBN:          f.str("isbn"),
		Genre:         f.str("genre"),
		ReadStatus:    f.boolean("read_status"),
		UserRating:    f.integer("user_rating"),
		Notes:         f.str("notes"),
		CoverImageURL: f.str("coverImageUrl"),
		IsBestSeller:  f.boolean("isBestSeller"),
		IsFeatured:    f.boolean("isFeatured"),
	}
	return c, f.err()
}
