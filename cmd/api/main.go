package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booklibrary/internal/auth"
	"booklibrary/internal/book"
	"booklibrary/internal/bookmark"
	"booklibrary/internal/config"
	"booklibrary/internal/httpx"
	"booklibrary/internal/logger"
	"booklibrary/internal/user"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Environment: cfg.Env, Level: cfg.LogLevel})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	uploads, err := openObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("object store ready", "kind", cfg.ObjectStore)

	userService := user.NewService(st.users, log)
	bookService := book.NewService(st.books, uploads.store, log)
	h := handlers{
		auth:     auth.NewHTTPHandler(auth.NewService(cfg.JWTSecret, cfg.JWTTTL, userService, log)),
		user:     user.NewHTTPHandler(userService),
		book:     book.NewHTTPHandler(bookService, uploads.store, log),
		bookmark: bookmark.NewHTTPHandler(bookmark.NewService(userService, st.bookmarks, log)),
		ready:    st.ping,
		uploads:  uploads.handler,
	}

	limiter := httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := httpx.Chain(newRouter(h, cfg.JWTSecret),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(log),
		httpx.RecoveryMiddleware(log),
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSOrigins),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.MaxUploadBytes),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Addr, "store", cfg.StoreDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
