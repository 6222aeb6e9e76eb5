package bookmark

import (
	"context"
	"errors"
	"time"

	"booklibrary/internal/apperr"
	"booklibrary/internal/platform/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookmarksDocument struct {
	Bookmarks []primitive.ObjectID `bson:"bookmarks"`
}

type summaryDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	Title         string             `bson:"title"`
	Author        string             `bson:"author"`
	ISBN          string             `bson:"isbn"`
	ReadStatus    bool               `bson:"read_status"`
	Notes         string             `bson:"notes"`
	CoverImageURL string             `bson:"coverImageUrl"`
}

// summaryProjection mirrors summaryDocument.
var summaryProjection = bson.D{
	{Key: "title", Value: 1},
	{Key: "author", Value: 1},
	{Key: "isbn", Value: 1},
	{Key: "read_status", Value: 1},
	{Key: "notes", Value: 1},
	{Key: "coverImageUrl", Value: 1},
}

type MongoRepo struct {
	users   *mongo.Collection
	books   *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(db *mongo.Database, timeout time.Duration) *MongoRepo {
	return &MongoRepo{
		users:   db.Collection(mongodb.UsersCollection),
		books:   db.Collection(mongodb.BooksCollection),
		timeout: timeout,
	}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, id := range oids {
		out = append(out, id.Hex())
	}
	return out
}

// update applies op to the user's document and returns the resulting list.
func (r *MongoRepo) update(ctx context.Context, userID string, op bson.D) ([]string, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.NotFound("User not found")
	}

	op = append(op, bson.E{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}})
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "bookmarks", Value: 1}})

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var doc bookmarksDocument
	if err := r.users.FindOneAndUpdate(timeoutCtx, bson.D{{Key: "_id", Value: uid}}, op, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal("Failed to update bookmarks").WithCause(err)
	}
	return hexIDs(doc.Bookmarks), nil
}

func (r *MongoRepo) Append(ctx context.Context, userID, bookID string) ([]string, error) {
	bid, err := primitive.ObjectIDFromHex(bookID)
	if err != nil {
		return nil, apperr.NotFound("Book not found")
	}
	return r.update(ctx, userID, bson.D{{Key: "$push", Value: bson.D{{Key: "bookmarks", Value: bid}}}})
}

func (r *MongoRepo) AppendUnique(ctx context.Context, userID, bookID string) ([]string, error) {
	bid, err := primitive.ObjectIDFromHex(bookID)
	if err != nil {
		return nil, apperr.NotFound("Book not found")
	}
	return r.update(ctx, userID, bson.D{{Key: "$addToSet", Value: bson.D{{Key: "bookmarks", Value: bid}}}})
}

func (r *MongoRepo) Pull(ctx context.Context, userID, bookID string) ([]string, error) {
	bid, err := primitive.ObjectIDFromHex(bookID)
	if err != nil {
		// not an object id, so it cannot be in the list; just report the list
		return r.update(ctx, userID, bson.D{})
	}
	return r.update(ctx, userID, bson.D{{Key: "$pull", Value: bson.D{{Key: "bookmarks", Value: bid}}}})
}

func (r *MongoRepo) BookExists(ctx context.Context, bookID string) (bool, error) {
	bid, err := primitive.ObjectIDFromHex(bookID)
	if err != nil {
		return false, nil
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	n, err := r.books.CountDocuments(timeoutCtx, bson.D{{Key: "_id", Value: bid}}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Internal("Failed to look up book").WithCause(err)
	}
	return n > 0, nil
}

func (r *MongoRepo) ListBooks(ctx context.Context, ids []string) ([]BookSummary, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []BookSummary{}, nil
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	cur, err := r.books.Find(timeoutCtx,
		bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}},
		options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, apperr.Internal("Failed to load bookmarks").WithCause(err)
	}
	var docs []summaryDocument
	if err := cur.All(timeoutCtx, &docs); err != nil {
		return nil, apperr.Internal("Failed to load bookmarks").WithCause(err)
	}

	found := make(map[primitive.ObjectID]BookSummary, len(docs))
	for _, d := range docs {
		found[d.ID] = BookSummary{
			ID:            d.ID.Hex(),
			Title:         d.Title,
			Author:        d.Author,
			ISBN:          d.ISBN,
			ReadStatus:    d.ReadStatus,
			Notes:         d.Notes,
			CoverImageURL: d.CoverImageURL,
		}
	}

	// $in loses the list order and collapses duplicates
	items := make([]BookSummary, 0, len(oids))
	for _, oid := range oids {
		if b, ok := found[oid]; ok {
			items = append(items, b)
		}
	}
	return items, nil
}
