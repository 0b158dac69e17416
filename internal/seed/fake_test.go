package seed

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/chatseed/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory UserRepo and MessageRepo.
type memStore struct {
	mu       sync.Mutex
	users    []models.User
	messages []models.Message
	calls    []string

	failClearUsers    error
	failClearMessages error
	failUserAt        int // -1 disables
	failMessageText   string
	userErr           error
	messageErr        error
}

func newMemStore() *memStore {
	return &memStore{failUserAt: -1}
}

func (s *memStore) record(call string) {
	s.calls = append(s.calls, call)
}

type memUsers struct{ *memStore }

func (s memUsers) DeleteAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("users.DeleteAll")
	if s.failClearUsers != nil {
		return 0, s.failClearUsers
	}
	n := int64(len(s.users))
	s.users = nil
	return n, nil
}

func (s memUsers) Create(ctx context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("users.Create")
	if s.failUserAt == len(s.users) {
		return models.User{}, s.userErr
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return models.User{}, errors.New("E11000 duplicate key error")
		}
	}
	u.ID = primitive.NewObjectID()
	s.users = append(s.users, u)
	return u, nil
}

type memMessages struct{ *memStore }

func (s memMessages) DeleteAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("messages.DeleteAll")
	if s.failClearMessages != nil {
		return 0, s.failClearMessages
	}
	n := int64(len(s.messages))
	s.messages = nil
	return n, nil
}

func (s memMessages) Create(ctx context.Context, m models.Message) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("messages.Create")
	if s.failMessageText != "" && m.Text == s.failMessageText {
		return models.Message{}, s.messageErr
	}
	m.ID = primitive.NewObjectID()
	s.messages = append(s.messages, m)
	return m, nil
}

// failingHasher always fails.
type failingHasher struct{ err error }

func (h failingHasher) Hash(string) (string, error) { return "", h.err }

// uniqueEmailIndex builds a unique email index over st the way the server
// would: it fails with E11000 while duplicate emails are present.
func uniqueEmailIndex(st *memStore) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		st.mu.Lock()
		defer st.mu.Unlock()
		st.record("schema")
		seen := make(map[string]bool, len(st.users))
		for _, u := range st.users {
			if seen[u.Email] {
				return errors.New("E11000 duplicate key error collection: chat_db.users index: email_unique")
			}
			seen[u.Email] = true
		}
		return nil
	}
}
