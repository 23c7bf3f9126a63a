package entities

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// NewEventHeader derives the idempotency key from the entity the event
// concerns, so republishing for the same entity stays deduplicatable on
// the consumer side.
func NewEventHeader(idempotencyKey string) EventHeader {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}
