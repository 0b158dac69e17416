// internal/seed/fixture.go
package seed

import (
	"errors"
	"fmt"
	"strings"
)

// Fixture validation errors.
var (
	ErrNotEnoughUsers = errors.New("seed: messages need at least two users")
	ErrEmptyEmail     = errors.New("seed: user email is empty")
	ErrEmptyPassword  = errors.New("seed: user password is empty")
	ErrDuplicateEmail = errors.New("seed: duplicate user email")
)

// UserSeed is a user definition with its plaintext seed password.
type UserSeed struct {
	Email      string
	FullName   string
	Password   string
	ProfilePic string
}

// Fixture is the data a seed run writes. Messages alternate between the
// first two users: even indexes go from Users[0] to Users[1], odd indexes
// the other way.
type Fixture struct {
	Users    []UserSeed
	Messages []string
}

// DefaultFixture returns the development data set: Alice and Bob, and six
// messages between them. The slices are fresh copies.
func DefaultFixture() Fixture {
	return Fixture{
		Users: []UserSeed{
			{
				Email:      "alice@example.com",
				FullName:   "Alice Johnson",
				Password:   "password123",
				ProfilePic: "https://i.pravatar.cc/150?img=1",
			},
			{
				Email:      "bob@example.com",
				FullName:   "Bob Smith",
				Password:   "password123",
				ProfilePic: "https://i.pravatar.cc/150?img=2",
			},
		},
		Messages: []string{
			"Hey Bob, how are you doing?",
			"Hi Alice! I'm doing great, thanks for asking. How about you?",
			"I'm good! Just working on our chat app. What do you think about the new features?",
			"The app looks amazing! I really like the real-time updates and the clean UI.",
			"Thanks! I was thinking of adding file sharing next. What do you think?",
			"That would be awesome! It would make sharing documents much easier.",
		},
	}
}

// Validate checks the fixture before anything is deleted.
func (f Fixture) Validate() error {
	if len(f.Messages) > 0 && len(f.Users) < 2 {
		return fmt.Errorf("%w (have %d)", ErrNotEnoughUsers, len(f.Users))
	}

	seen := make(map[string]int, len(f.Users))
	for i, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("users[%d]: %w", i, ErrEmptyEmail)
		}
		if u.Password == "" {
			return fmt.Errorf("users[%d] %s: %w", i, u.Email, ErrEmptyPassword)
		}
		if j, dup := seen[email]; dup {
			return fmt.Errorf("users[%d] and users[%d] (%s): %w", j, i, email, ErrDuplicateEmail)
		}
		seen[email] = i
	}
	return nil
}
