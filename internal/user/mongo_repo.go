package user

import (
	"context"
	"errors"
	"time"

	"booklibrary/internal/apperr"
	"booklibrary/internal/platform/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDocument struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Email     string               `bson:"email"`
	Password  string               `bson:"password"`
	Name      string               `bson:"name"`
	Role      string               `bson:"role"`
	Bookmarks []primitive.ObjectID `bson:"bookmarks"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func (d userDocument) toUser() User {
	ids := make([]string, 0, len(d.Bookmarks))
	for _, id := range d.Bookmarks {
		ids = append(ids, id.Hex())
	}
	return User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.Password,
		Name:         d.Name,
		Role:         d.Role,
		Bookmarks:    ids,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoRepo stores users in the "users" collection.
type MongoRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(db *mongo.Database, timeout time.Duration) *MongoRepo {
	return &MongoRepo{coll: db.Collection(mongodb.UsersCollection), timeout: timeout}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *MongoRepo) Create(ctx context.Context, u *User) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Email:     u.Email,
		Password:  u.PasswordHash,
		Name:      u.Name,
		Role:      u.Role,
		Bookmarks: []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.coll.InsertOne(timeoutCtx, doc); err != nil {
		return mapMongoError(err)
	}

	u.ID = doc.ID.Hex()
	u.Bookmarks = []string{}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (r *MongoRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, apperr.NotFound("User not found")
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.D) (User, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc userDocument
	if err := r.coll.FindOne(timeoutCtx, filter).Decode(&doc); err != nil {
		return User{}, mapMongoError(err)
	}
	return doc.toUser(), nil
}

func mapMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("User not found")
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("Email already registered").WithCause(err)
	}
	return apperr.Internal("User store error").WithCause(err)
}
