// Package mongodb connects to MongoDB and maintains the collection indexes.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection = "users"
	BooksCollection = "books"
)

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("cannot ping mongodb: %w", err)
	}
	return client, nil
}

// Indexes returns the index models each collection needs.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		},
		BooksCollection: {
			{Keys: bson.D{{Key: "isbn", Value: 1}}, Options: options.Index().SetUnique(true).SetName("isbn_unique")},
			{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetName("title")},
			{Keys: bson.D{{Key: "author", Value: 1}}, Options: options.Index().SetName("author")},
			{Keys: bson.D{{Key: "genre", Value: 1}}, Options: options.Index().SetName("genre")},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("createdAt_desc")},
			{
				Keys: bson.D{
					{Key: "title", Value: "text"},
					{Key: "author", Value: "text"},
					{Key: "notes", Value: "text"},
				},
				Options: options.Index().SetName("books_text"),
			},
		},
	}
}

// EnsureIndexes creates any missing index. Existing indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) ([]string, error) {
	var created []string
	for coll, models := range Indexes() {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return created, fmt.Errorf("create %s indexes: %w", coll, err)
		}
		created = append(created, names...)
	}
	return created, nil
}
