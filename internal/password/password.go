// internal/password/password.go
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatchedPassword is returned by Verify when the password does not match.
var ErrMismatchedPassword = errors.New("password: does not match hash")

// Cost is the bcrypt work factor.
type Cost int

const (
	MinCost     Cost = Cost(bcrypt.MinCost)
	DefaultCost Cost = 10
	MaxCost     Cost = Cost(bcrypt.MaxCost)
)

// Valid reports whether c is within bcrypt's accepted range.
func (c Cost) Valid() bool {
	return c >= MinCost && c <= MaxCost
}

// Hasher produces salted one-way hashes of plaintext passwords.
type Hasher interface {
	Hash(plain string) (string, error)
}

// Bcrypt hashes with bcrypt at a fixed cost. The zero value uses DefaultCost.
type Bcrypt struct {
	Cost Cost
}

// Hash returns the bcrypt hash of plain. The salt is embedded in the result.
func (b Bcrypt) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	if !cost.Valid() {
		return "", fmt.Errorf("password: bcrypt cost %d out of range [%d,%d]", cost, MinCost, MaxCost)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), int(cost))
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

// Verify checks plain against a bcrypt hash. Returns nil on a match and
// ErrMismatchedPassword when the password is wrong.
func Verify(plain, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatchedPassword
	}
	return err
}

// Check is Verify as a bool.
func Check(plain, hash string) bool {
	return Verify(plain, hash) == nil
}

// HashCost reports the cost a bcrypt hash was generated with.
func HashCost(hash string) (Cost, error) {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return 0, err
	}
	return Cost(c), nil
}
