// internal/seed/seed.go
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/chatseed/internal/models"
	"github.com/dalemusser/chatseed/internal/mongodb"
	"github.com/dalemusser/chatseed/internal/password"
	"github.com/dalemusser/chatseed/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UserRepo is the user storage the seeder writes to.
type UserRepo interface {
	DeleteAll(ctx context.Context) (int64, error)
	Create(ctx context.Context, u models.User) (models.User, error)
}

// MessageRepo is the message storage the seeder writes to.
// Create must be safe for concurrent use.
type MessageRepo interface {
	DeleteAll(ctx context.Context) (int64, error)
	Create(ctx context.Context, m models.Message) (models.Message, error)
}

// Workflow steps, as reported in StepError.
const (
	StepValidate       = "validate fixture"
	StepClearUsers     = "clear users"
	StepClearMessages  = "clear messages"
	StepEnsureSchema   = "ensure schema"
	StepHashPassword   = "hash password"
	StepCreateUser     = "create user"
	StepPlanMessages   = "plan messages"
	StepCreateMessages = "create messages"
)

// StepError reports which step of a run failed. Steps before it completed;
// nothing after it ran.
type StepError struct {
	Step string
	// Index is the fixture entry being processed, or -1.
	Index int
	Err   error
}

func (e *StepError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("seed: %s [%d]: %v", e.Step, e.Index, e.Err)
	}
	return fmt.Sprintf("seed: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ErrorKind classifies the failure. Storage errors keep the driver's
// classification; anything else in a seed step is a data error.
func (e *StepError) ErrorKind() mongodb.Kind {
	if k := mongodb.KindOf(e.Err); k != mongodb.KindUnknown {
		return k
	}
	return mongodb.KindData
}

func stepErr(step string, index int, err error) error {
	return &StepError{Step: step, Index: index, Err: err}
}

// Result describes a completed run.
type Result struct {
	DeletedUsers    int64
	DeletedMessages int64
	// Users are in fixture order, with their generated IDs.
	Users []models.User
	// Messages are in fixture order.
	Messages []models.Message
	Duration time.Duration
}

// Seeder clears and repopulates the chat collections.
//
// Runs are not synchronized with each other: two concurrent runs against
// the same database can interleave their clear and create phases.
type Seeder struct {
	users    UserRepo
	messages MessageRepo
	hasher   password.Hasher
	logger   *zap.Logger
	metrics  *metrics.Seed
	schema   func(ctx context.Context) error
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithHasher overrides the password hasher (bcrypt, cost 10 by default).
func WithHasher(h password.Hasher) Option {
	return func(s *Seeder) { s.hasher = h }
}

// WithLogger sets the logger used for progress lines.
func WithLogger(l *zap.Logger) Option {
	return func(s *Seeder) { s.logger = l }
}

// WithMetrics records run counters into m.
func WithMetrics(m *metrics.Seed) Option {
	return func(s *Seeder) { s.metrics = m }
}

// WithSchema runs ensure once the collections are empty and before any
// insert, so a unique index can be built even on a store whose old data
// would violate it.
func WithSchema(ensure func(ctx context.Context) error) Option {
	return func(s *Seeder) { s.schema = ensure }
}

// New returns a Seeder writing to users and messages. Passwords are hashed
// with bcrypt at cost 10 unless WithHasher says otherwise.
func New(users UserRepo, messages MessageRepo, opts ...Option) *Seeder {
	s := &Seeder{
		users:    users,
		messages: messages,
		hasher:   password.Bcrypt{Cost: password.DefaultCost},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Run validates fx, deletes every user and message, ensures the schema (see
// WithSchema), creates the fixture users in order with hashed passwords, then inserts all messages
// concurrently and waits for them. The first error stops the run; there is
// no rollback, so a failure after the clear leaves the store partially seeded.
func (s *Seeder) Run(ctx context.Context, fx Fixture) (res *Result, err error) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		if res != nil {
			res.Duration = d
		}
		s.metrics.Finished(d, err)
	}()

	if err := fx.Validate(); err != nil {
		return nil, stepErr(StepValidate, -1, err)
	}

	res = &Result{}
	if res.DeletedUsers, err = s.users.DeleteAll(ctx); err != nil {
		return nil, stepErr(StepClearUsers, -1, err)
	}
	s.metrics.Deleted(models.UsersCollection, res.DeletedUsers)

	if res.DeletedMessages, err = s.messages.DeleteAll(ctx); err != nil {
		return nil, stepErr(StepClearMessages, -1, err)
	}
	s.metrics.Deleted(models.MessagesCollection, res.DeletedMessages)

	s.logger.Info("Cleared existing data",
		zap.Int64("users_deleted", res.DeletedUsers),
		zap.Int64("messages_deleted", res.DeletedMessages))

	if s.schema != nil {
		if err = s.schema(ctx); err != nil {
			return nil, stepErr(StepEnsureSchema, -1, err)
		}
	}

	if res.Users, err = s.createUsers(ctx, fx.Users); err != nil {
		return nil, err
	}
	emails := make([]string, len(res.Users))
	for i, u := range res.Users {
		emails[i] = u.Email
	}
	s.logger.Info("Created users", zap.Strings("emails", emails))

	plan, err := PlanMessages(res.Users, fx.Messages)
	if err != nil {
		return nil, stepErr(StepPlanMessages, -1, err)
	}
	if res.Messages, err = s.createMessages(ctx, plan); err != nil {
		return nil, err
	}
	if len(res.Messages) > 0 {
		s.logger.Info(fmt.Sprintf("Created %d messages between %s and %s",
			len(res.Messages), res.Users[0].FullName, res.Users[1].FullName),
			zap.Int("messages", len(res.Messages)))
	}

	s.logger.Info("Database seeded successfully!")
	return res, nil
}

// createUsers hashes and inserts users one at a time, in fixture order.
func (s *Seeder) createUsers(ctx context.Context, seeds []UserSeed) ([]models.User, error) {
	created := make([]models.User, 0, len(seeds))
	for i, us := range seeds {
		hash, err := s.hasher.Hash(us.Password)
		if err != nil {
			return nil, stepErr(StepHashPassword, i, err)
		}
		u, err := s.users.Create(ctx, models.User{
			Email:      us.Email,
			FullName:   us.FullName,
			Password:   hash,
			ProfilePic: us.ProfilePic,
		})
		if err != nil {
			return nil, stepErr(StepCreateUser, i, err)
		}
		s.metrics.UserCreated()
		created = append(created, u)
	}
	return created, nil
}

// createMessages fans out one insert per planned message and waits for all
// of them. Each goroutine writes only its own slot of the result.
func (s *Seeder) createMessages(ctx context.Context, plan []models.Message) ([]models.Message, error) {
	if len(plan) == 0 {
		return nil, nil
	}

	created := make([]models.Message, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	for i := range plan {
		i := i
		g.Go(func() error {
			m, err := s.messages.Create(gctx, plan[i])
			if err != nil {
				return stepErr(StepCreateMessages, i, err)
			}
			created[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.metrics.MessagesCreated(len(created))
	return created, nil
}
