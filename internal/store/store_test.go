package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/chatseed/internal/models"
	"github.com/dalemusser/chatseed/internal/mongodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = prev })
	return ts
}

func TestUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns id and timestamps", func(mt *mtest.T) {
		ts := fixedNow(mt.T)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := NewUsers(mt.DB).Create(ctx, models.User{Email: "alice@example.com", FullName: "Alice Johnson"})
		require.NoError(mt, err)
		assert.False(mt, got.ID.IsZero())
		assert.Equal(mt, ts, got.CreatedAt)
		assert.Equal(mt, ts, got.UpdatedAt)
		assert.Equal(mt, "alice@example.com", got.Email)
	})

	mt.Run("create keeps a caller supplied id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		id := primitive.NewObjectID()

		got, err := NewUsers(mt.DB).Create(ctx, models.User{ID: id, Email: "bob@example.com"})
		require.NoError(mt, err)
		assert.Equal(mt, id, got.ID)
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: chat.users index: email_unique",
		}))

		_, err := NewUsers(mt.DB).Create(ctx, models.User{Email: "alice@example.com"})
		require.Error(mt, err)
		assert.True(mt, mongodb.IsDup(err))
		assert.Equal(mt, mongodb.KindData, mongodb.KindOf(err))
	})

	mt.Run("delete all", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(3)}))

		n, err := NewUsers(mt.DB).DeleteAll(ctx)
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, n)
	})

	mt.Run("count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "chat.users", mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(2)}}))

		n, err := NewUsers(mt.DB).Count(ctx)
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, n)
	})

	mt.Run("find by email", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "chat.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "bob@example.com"},
			{Key: "fullName", Value: "Bob Smith"},
		}))

		u, err := NewUsers(mt.DB).FindByEmail(ctx, "bob@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "Bob Smith", u.FullName)
	})

	mt.Run("find by email missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "chat.users", mtest.FirstBatch))

		_, err := NewUsers(mt.DB).FindByEmail(ctx, "nobody@example.com")
		assert.True(mt, errors.Is(err, ErrNotFound), "err = %v", err)
	})
}

func TestMessages(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create", func(mt *mtest.T) {
		ts := fixedNow(mt.T)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		a, b := primitive.NewObjectID(), primitive.NewObjectID()

		got, err := NewMessages(mt.DB).Create(ctx, models.Message{SenderID: a, ReceiverID: b, Text: "hi"})
		require.NoError(mt, err)
		assert.False(mt, got.ID.IsZero())
		assert.Equal(mt, a, got.SenderID)
		assert.Equal(mt, b, got.ReceiverID)
		assert.Equal(mt, ts, got.CreatedAt)
	})

	mt.Run("create failure is wrapped", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 0}, {Key: "code", Value: 13}, {Key: "errmsg", Value: "unauthorized"}})

		_, err := NewMessages(mt.DB).Create(ctx, models.Message{Text: "hi"})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "insert message")
	})

	mt.Run("delete all", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(6)}))

		n, err := NewMessages(mt.DB).DeleteAll(ctx)
		require.NoError(mt, err)
		assert.EqualValues(mt, 6, n)
	})

	mt.Run("list", func(mt *mtest.T) {
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "chat.messages", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "senderId", Value: a}, {Key: "receiverId", Value: b}, {Key: "text", Value: "one"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "senderId", Value: b}, {Key: "receiverId", Value: a}, {Key: "text", Value: "two"}},
		))

		msgs, err := NewMessages(mt.DB).List(ctx)
		require.NoError(mt, err)
		require.Len(mt, msgs, 2)
		assert.Equal(mt, "one", msgs[0].Text)
		assert.Equal(mt, b, msgs[1].SenderID)
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates both indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		require.NoError(mt, EnsureIndexes(context.Background(), mt.DB))
	})

	mt.Run("reports failure", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 0}, {Key: "code", Value: 85}, {Key: "errmsg", Value: "IndexOptionsConflict"}})
		err := EnsureIndexes(context.Background(), mt.DB)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "users.email")
	})
}
