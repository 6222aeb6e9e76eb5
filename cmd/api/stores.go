package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"booklibrary/internal/book"
	"booklibrary/internal/bookmark"
	"booklibrary/internal/config"
	"booklibrary/internal/objectstore"
	"booklibrary/internal/platform/mongodb"
	"booklibrary/internal/platform/postgres"
	"booklibrary/internal/user"
)

type stores struct {
	books     book.Repository
	users     user.Repository
	bookmarks bookmark.Repository
	ping      func(context.Context) error
	close     func()
}

// openStores connects the configured persistence backend.
func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURL)
		if err != nil {
			return stores{}, fmt.Errorf("connect mongodb (%s): %w", config.RedactDSN(cfg.MongoURL), err)
		}
		db := client.Database(cfg.MongoDatabase)
		created, err := mongodb.EnsureIndexes(ctx, db)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return stores{}, fmt.Errorf("ensure mongodb indexes: %w", err)
		}
		log.Info("mongodb connection OK", "database", cfg.MongoDatabase, "indexes", len(created))
		return stores{
			books:     book.NewMongoRepo(db, cfg.DBTimeout),
			users:     user.NewMongoRepo(db, cfg.DBTimeout),
			bookmarks: bookmark.NewMongoRepo(db, cfg.DBTimeout),
			ping:      func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:     func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		pool, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return stores{}, fmt.Errorf("open postgres (%s): %w", config.RedactDSN(cfg.DatabaseDSN), err)
		}
		log.Info("database connection OK")
		return stores{
			books:     book.NewPostgresRepo(pool, cfg.DBTimeout),
			users:     user.NewPostgresRepo(pool, cfg.DBTimeout),
			bookmarks: bookmark.NewPostgresRepo(pool, cfg.DBTimeout),
			ping:      pool.Ping,
			close:     pool.Close,
		}, nil
	}
}

type uploadStore struct {
	store objectstore.Store
	// handler serves local uploads; nil for remote stores
	handler http.Handler
}

func openObjectStore(ctx context.Context, cfg config.Config) (uploadStore, error) {
	switch cfg.ObjectStore {
	case config.ObjectStoreCloudinary:
		s, err := objectstore.NewCloudinaryStore(cfg.Cloudinary)
		if err != nil {
			return uploadStore{}, fmt.Errorf("cloudinary: %w", err)
		}
		return uploadStore{store: s}, nil
	case config.ObjectStoreS3:
		s, err := objectstore.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return uploadStore{}, fmt.Errorf("s3: %w", err)
		}
		return uploadStore{store: s}, nil
	default:
		s, err := objectstore.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return uploadStore{}, err
		}
		return uploadStore{store: s, handler: s.Handler()}, nil
	}
}
