package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync/atomic"

	"booklibrary/internal/apperr"
	"booklibrary/internal/book"
	"booklibrary/internal/config"
	"booklibrary/internal/logger"
	"booklibrary/internal/platform/mongodb"
	"booklibrary/internal/platform/postgres"

	"golang.org/x/sync/errgroup"
)

var (
	genres  = []string{"Fiction", "Science Fiction", "History", "Science", "Technology", "Romance", "Mystery", "Biography", "Philosophy", "Art"}
	authors = []string{"Ada Lovelace", "Italo Calvino", "Ursula K. Le Guin", "Jorge Luis Borges", "Octavia Butler", "Stanislaw Lem", "Mary Shelley", "Chinua Achebe"}
	words   = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
)

func main() {
	var (
		count   = flag.Int("count", 200, "Number of books to create")
		workers = flag.Int("workers", 8, "Concurrent inserts")
		offset  = flag.Int("offset", 0, "First ISBN sequence number, to seed again without conflicts")
	)
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Environment: cfg.Env, Level: cfg.LogLevel})

	ctx := context.Background()
	repo, closeStore, err := openBookRepo(ctx, cfg)
	if err != nil {
		log.Error("cannot open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	svc := book.NewService(repo, nil, log)
	created, skipped, err := seed(ctx, svc, *count, *workers, *offset)
	if err != nil {
		log.Error("seeding failed", "created", created, "error", err)
		os.Exit(1)
	}
	log.Info("seeding finished", "created", created, "skipped_existing", skipped, "driver", cfg.StoreDriver)
}

func openBookRepo(ctx context.Context, cfg config.Config) (book.Repository, func(), error) {
	if cfg.StoreDriver == config.DriverMongo {
		client, err := mongodb.Connect(ctx, cfg.MongoURL)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if _, err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return book.NewMongoRepo(db, cfg.DBTimeout), func() { _ = client.Disconnect(context.Background()) }, nil
	}

	pool, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return book.NewPostgresRepo(pool, cfg.DBTimeout), pool.Close, nil
}

// seed creates count books through the service. Books whose ISBN already
// exists are skipped.
func seed(ctx context.Context, svc *book.Service, count, workers, offset int) (created, skipped int64, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	var nCreated, nSkipped atomic.Int64
	for i := range count {
		in := generateBook(offset + i)
		g.Go(func() error {
			_, err := svc.Create(gctx, in, "")
			switch {
			case err == nil:
				nCreated.Add(1)
			case errors.Is(err, apperr.ErrConflict):
				nSkipped.Add(1)
			default:
				return fmt.Errorf("book %q: %w", in.ISBN, err)
			}
			return nil
		})
	}
	err = g.Wait()
	return nCreated.Load(), nSkipped.Load(), err
}

func generateBook(n int) book.NewBook {
	in := book.NewBook{
		Title:        fmt.Sprintf("The %s of %s", pick(words), pick(words)),
		Author:       pick(authors),
		ISBN:         fmt.Sprintf("978-%010d", n+1),
		Genre:        pick(genres),
		ReadStatus:   rand.IntN(3) == 0,
		Notes:        fmt.Sprintf("A book about %s and %s.", pick(words), pick(words)),
		IsBestSeller: rand.IntN(8) == 0,
		IsFeatured:   rand.IntN(10) == 0,
	}
	if rand.IntN(2) == 0 {
		rating := 1 + rand.IntN(5)
		in.UserRating = &rating
	}
	return in
}

func pick(from []string) string {
	return from[rand.IntN(len(from))]
}
