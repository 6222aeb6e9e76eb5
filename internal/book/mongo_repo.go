package book

import (
	"context"
	"errors"
	"regexp"
	"time"

	"booklibrary/internal/apperr"
	"booklibrary/internal/platform/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Author        string             `bson:"author"`
	ISBN          string             `bson:"isbn"`
	ReadStatus    bool               `bson:"read_status"`
	UserRating    *int               `bson:"user_rating,omitempty"`
	Notes         string             `bson:"notes,omitempty"`
	FileURL       string             `bson:"file_url,omitempty"`
	CoverImageURL string             `bson:"coverImageUrl,omitempty"`
	Genre         string             `bson:"genre"`
	IsBestSeller  bool               `bson:"isBestSeller"`
	IsFeatured    bool               `bson:"isFeatured"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d bookDocument) toBook() Book {
	return Book{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Author:        d.Author,
		ISBN:          d.ISBN,
		ReadStatus:    d.ReadStatus,
		UserRating:    d.UserRating,
		Notes:         d.Notes,
		FileURL:       d.FileURL,
		CoverImageURL: d.CoverImageURL,
		Genre:         d.Genre,
		IsBestSeller:  d.IsBestSeller,
		IsFeatured:    d.IsFeatured,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

var sortKeys = map[SortField]string{
	SortTitle:     "title",
	SortAuthor:    "author",
	SortCreatedAt: "createdAt",
}

var matchKeys = map[MatchField]string{
	MatchTitle:  "title",
	MatchAuthor: "author",
}

// literalRegex matches s as a case-insensitive substring.
func literalRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// MongoRepo stores books in the "books" collection.
type MongoRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(db *mongo.Database, timeout time.Duration) *MongoRepo {
	return &MongoRepo{coll: db.Collection(mongodb.BooksCollection), timeout: timeout}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// buildMongoFind renders q as a filter document and find options.
func buildMongoFind(q Query) (bson.D, *options.FindOptions) {
	filter := bson.D{}

	if q.Text != "" {
		filter = append(filter, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: q.Text}}})
	}

	if len(q.MatchIn) > 0 {
		var ors bson.A
		for _, f := range q.MatchIn {
			if key, ok := matchKeys[f]; ok {
				ors = append(ors, bson.D{{Key: key, Value: literalRegex(q.Match)}})
			}
		}
		if len(ors) > 0 {
			filter = append(filter, bson.E{Key: "$or", Value: ors})
		}
	}

	if q.Author != "" {
		filter = append(filter, bson.E{Key: "author", Value: literalRegex(q.Author)})
	}
	if q.Read != nil {
		filter = append(filter, bson.E{Key: "read_status", Value: *q.Read})
	}
	if q.MinRating != nil {
		filter = append(filter, bson.E{Key: "user_rating", Value: bson.D{{Key: "$gte", Value: *q.MinRating}}})
	}
	if q.Genre != nil {
		filter = append(filter, bson.E{Key: "genre", Value: *q.Genre})
	}
	if q.BestSeller != nil {
		filter = append(filter, bson.E{Key: "isBestSeller", Value: *q.BestSeller})
	}
	if q.Featured != nil {
		filter = append(filter, bson.E{Key: "isFeatured", Value: *q.Featured})
	}

	opts := options.Find()
	if q.Sort != nil {
		if key, ok := sortKeys[q.Sort.Field]; ok {
			dir := 1
			if q.Sort.Desc {
				dir = -1
			}
			opts.SetSort(bson.D{{Key: key, Value: dir}, {Key: "_id", Value: dir}})
		}
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return filter, opts
}

func (r *MongoRepo) Find(ctx context.Context, q Query) ([]Book, error) {
	filter, opts := buildMongoFind(q)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	cur, err := r.coll.Find(timeoutCtx, filter, opts)
	if err != nil {
		return nil, apperr.Internal("Failed to query books").WithCause(err)
	}
	var docs []bookDocument
	if err := cur.All(timeoutCtx, &docs); err != nil {
		return nil, apperr.Internal("Failed to read books").WithCause(err)
	}

	out := make([]Book, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toBook())
	}
	return out, nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, apperr.NotFound("Book not found")
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var doc bookDocument
	if err := r.coll.FindOne(timeoutCtx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return Book{}, mapMongoError(err)
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) Create(ctx context.Context, b *Book) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := bookDocument{
		ID:            primitive.NewObjectID(),
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		ReadStatus:    b.ReadStatus,
		UserRating:    b.UserRating,
		Notes:         b.Notes,
		FileURL:       b.FileURL,
		CoverImageURL: b.CoverImageURL,
		Genre:         b.Genre,
		IsBestSeller:  b.IsBestSeller,
		IsFeatured:    b.IsFeatured,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.coll.InsertOne(timeoutCtx, doc); err != nil {
		return mapMongoError(err)
	}
	b.ID = doc.ID.Hex()
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// updateDocument renders the $set document for the non-nil fields of c.
func updateDocument(c Changes, now time.Time) bson.D {
	set := bson.D{}
	if c.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *c.Title})
	}
	if c.Author != nil {
		set = append(set, bson.E{Key: "author", Value: *c.Author})
	}
	if c.ISBN != nil {
		set = append(set, bson.E{Key: "isbn", Value: *c.ISBN})
	}
	if c.Genre != nil {
		set = append(set, bson.E{Key: "genre", Value: *c.Genre})
	}
	if c.ReadStatus != nil {
		set = append(set, bson.E{Key: "read_status", Value: *c.ReadStatus})
	}
	if c.UserRating != nil {
		set = append(set, bson.E{Key: "user_rating", Value: *c.UserRating})
	}
	if c.Notes != nil {
		set = append(set, bson.E{Key: "notes", Value: *c.Notes})
	}
	if c.CoverImageURL != nil {
		set = append(set, bson.E{Key: "coverImageUrl", Value: *c.CoverImageURL})
	}
	if c.IsBestSeller != nil {
		set = append(set, bson.E{Key: "isBestSeller", Value: *c.IsBestSeller})
	}
	if c.IsFeatured != nil {
		set = append(set, bson.E{Key: "isFeatured", Value: *c.IsFeatured})
	}
	if c.FileURL != nil && *c.FileURL != "" {
		set = append(set, bson.E{Key: "file_url", Value: *c.FileURL})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: now})
	return bson.D{{Key: "$set", Value: set}}
}

func (r *MongoRepo) Update(ctx context.Context, id string, c Changes) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, apperr.NotFound("Book not found")
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var doc bookDocument
	err = r.coll.FindOneAndUpdate(timeoutCtx,
		bson.D{{Key: "_id", Value: oid}},
		updateDocument(c, time.Now().UTC().Truncate(time.Millisecond)),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return Book{}, mapMongoError(err)
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFound("Book not found")
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteOne(timeoutCtx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return apperr.Internal("Failed to delete book").WithCause(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("Book not found")
	}
	return nil
}

func mapMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("Book not found")
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("A book with this ISBN already exists").WithCause(err)
	}
	return apperr.Internal("Book store error").WithCause(err)
}
