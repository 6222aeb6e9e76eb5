package main

import (
	"context"
	"net/http"
	"time"

	"booklibrary/internal/apperr"
	"booklibrary/internal/auth"
	"booklibrary/internal/book"
	"booklibrary/internal/bookmark"
	"booklibrary/internal/httpx"
	"booklibrary/internal/objectstore"
	"booklibrary/internal/user"
)

type handlers struct {
	auth     *auth.HTTPHandler
	user     *user.HTTPHandler
	book     *book.HTTPHandler
	bookmark *bookmark.HTTPHandler
	ready    func(context.Context) error
	uploads  http.Handler
}

func newRouter(h handlers, jwtSecret string) *http.ServeMux {
	mux := http.NewServeMux()
	protected := httpx.AuthMiddleware(jwtSecret)
	authed := func(fn http.HandlerFunc) http.Handler { return protected(fn) }

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("POST /auth/register", h.auth.Register)
	mux.HandleFunc("POST /auth/login", h.auth.Login)
	mux.Handle("GET /auth/me", authed(h.user.Me))

	mux.Handle("GET /auth/user/bookmarks", authed(h.bookmark.List))
	mux.Handle("POST /auth/user/bookmarks/get", authed(h.bookmark.List))
	mux.Handle("POST /auth/user/bookmarks", authed(h.bookmark.Toggle))
	mux.Handle("POST /auth/user/bookmarks/add", authed(h.bookmark.Toggle))

	mux.HandleFunc("GET /books", h.book.List)
	mux.HandleFunc("GET /books/search-books", h.book.Search)
	mux.HandleFunc("GET /books/filter-books", h.book.Filter)
	mux.HandleFunc("GET /books/special", h.book.Special)
	mux.HandleFunc("GET /books/genre/{genre}", h.book.ByGenre)
	mux.HandleFunc("GET /books/{id}", h.book.Get)
	mux.Handle("POST /books", authed(h.book.Create))
	mux.Handle("PATCH /books/{id}", authed(h.book.Update))
	mux.Handle("DELETE /books/{id}", authed(h.book.Delete))

	if h.uploads != nil {
		mux.Handle("GET "+objectstore.URLPrefix, h.uploads)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, apperr.NotFound("Route not found"))
	})
	return mux
}
