// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/chatseed/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("store: not found")

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// EnsureIndexes creates the indexes the chat collections rely on.
// Re-running it against an existing database is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(models.UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}

	_, err = db.Collection(models.MessagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "senderId", Value: 1}, {Key: "receiverId", Value: 1}},
		Options: options.Index().SetName("sender_receiver"),
	})
	if err != nil {
		return fmt.Errorf("create messages.sender_receiver index: %w", err)
	}
	return nil
}

// Users is the users collection. Safe for concurrent use.
type Users struct {
	c *mongo.Collection
}

// NewUsers returns the users collection of db.
func NewUsers(db *mongo.Database) *Users {
	return &Users{c: db.Collection(models.UsersCollection)}
}

// DeleteAll removes every user and returns how many were deleted.
func (s *Users) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	return res.DeletedCount, nil
}

// Create inserts u, assigning its ID and timestamps, and returns the stored record.
func (s *Users) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	ts := now()
	u.CreatedAt, u.UpdatedAt = ts, ts

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, fmt.Errorf("insert user %s: %w", u.Email, err)
	}
	return u, nil
}

// Count returns the number of users.
func (s *Users) Count(ctx context.Context) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// FindByEmail returns the user with the given email or ErrNotFound.
func (s *Users) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user %s: %w", email, err)
	}
	return u, nil
}

// Messages is the messages collection. Safe for concurrent use.
type Messages struct {
	c *mongo.Collection
}

// NewMessages returns the messages collection of db.
func NewMessages(db *mongo.Database) *Messages {
	return &Messages{c: db.Collection(models.MessagesCollection)}
}

// DeleteAll removes every message and returns how many were deleted.
func (s *Messages) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	return res.DeletedCount, nil
}

// Create inserts m, assigning its ID and timestamps, and returns the stored record.
func (s *Messages) Create(ctx context.Context, m models.Message) (models.Message, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	ts := now()
	m.CreatedAt, m.UpdatedAt = ts, ts

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// Count returns the number of messages.
func (s *Messages) Count(ctx context.Context) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// List returns every message ordered by creation time, then ID.
func (s *Messages) List(ctx context.Context) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return out, nil
}
