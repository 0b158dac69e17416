// internal/seed/plan.go
package seed

import (
	"errors"
	"fmt"

	"github.com/dalemusser/chatseed/internal/models"
)

// ErrSameUser is returned when the two participants share an ID.
var ErrSameUser = errors.New("seed: sender and receiver are the same user")

// PlanMessages builds one message per text. Even indexes are sent by
// users[0] to users[1]; odd indexes by users[1] to users[0]. Users beyond
// the first two are not referenced.
func PlanMessages(users []models.User, texts []string) ([]models.Message, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(users) < 2 {
		return nil, fmt.Errorf("%w (have %d)", ErrNotEnoughUsers, len(users))
	}

	a, b := users[0], users[1]
	if a.ID.IsZero() || b.ID.IsZero() {
		return nil, errors.New("seed: participants must be created before planning messages")
	}
	if a.ID == b.ID {
		return nil, ErrSameUser
	}

	plan := make([]models.Message, len(texts))
	for i, text := range texts {
		sender, receiver := a, b
		if i%2 == 1 {
			sender, receiver = b, a
		}
		plan[i] = models.Message{
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Text:       text,
		}
	}
	return plan, nil
}
