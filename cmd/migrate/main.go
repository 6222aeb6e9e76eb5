package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"booklibrary/internal/config"
	"booklibrary/internal/logger"
	"booklibrary/internal/platform/mongodb"
	"booklibrary/internal/platform/postgres"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create, indexes")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	s := loadSettings()
	log := logger.New(logger.Config{Environment: s.Env, Level: s.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, log, s, *command, *name); err != nil {
		log.Error("migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, s settings, command, name string) error {
	switch command {
	case "create":
		if name == "" {
			return fmt.Errorf("name is required for 'create' command")
		}
		if err := goose.Create(nil, migrationsDir(), name, "sql"); err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		log.Info("migration created", "name", name)
		return nil
	case "indexes":
		return ensureMongoIndexes(ctx, log, s)
	case "up", "down", "status":
		return runGoose(ctx, log, s, command)
	default:
		return fmt.Errorf("unknown command %q (use up, down, status, create, indexes)", command)
	}
}

func runGoose(ctx context.Context, log *slog.Logger, s settings, command string) error {
	pool, err := postgres.Open(ctx, s.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("connect %s: %w", config.RedactDSN(s.DatabaseDSN), err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	dir := migrationsDir()
	switch command {
	case "up":
		if err := goose.UpContext(ctx, db, dir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		log.Info("migrations applied successfully")
	case "down":
		if err := goose.DownContext(ctx, db, dir); err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
		log.Info("migration rolled back successfully")
	case "status":
		if err := goose.StatusContext(ctx, db, dir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
	}
	return nil
}

func ensureMongoIndexes(ctx context.Context, log *slog.Logger, s settings) error {
	client, err := mongodb.Connect(ctx, s.MongoURL)
	if err != nil {
		return fmt.Errorf("connect %s: %w", config.RedactDSN(s.MongoURL), err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	created, err := mongodb.EnsureIndexes(ctx, client.Database(s.MongoDatabase))
	if err != nil {
		return err
	}
	log.Info("mongodb indexes ensured", "database", s.MongoDatabase, "indexes", created)
	return nil
}
