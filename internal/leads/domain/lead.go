// Package domain holds the lead types and the sink contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNoContact = errors.New("lead needs an email or a phone number")

// Contact is what a shopper handed over. Phone is E.164 when set.
type Contact struct {
	Email string
	Phone string
	Name  string
}

// Empty reports whether no dedup key is present.
func (c Contact) Empty() bool {
	return c.Email == "" && c.Phone == ""
}

// Lead is one deduplicated prospect.
type Lead struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Name      string    `json:"name,omitempty"`
	Intent    string    `json:"intent"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sink stores leads. Upsert matches an existing lead by email or phone and
// keeps the higher of the stored and the given score.
type Sink interface {
	Upsert(ctx context.Context, contact Contact, intent string, score int) (uuid.UUID, error)
}
