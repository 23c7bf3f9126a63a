package entities

import (
	"time"

	"github.com/google/uuid"
)

// ShowAuthCode is a short-lived per-show credential that authorizes
// asynchronous ticket-class mutation messages crossing the trust
// boundary without a full credential exchange.
type ShowAuthCode struct {
	ShowID    uuid.UUID `db:"show_id"`
	AuthCode  string    `db:"auth_code"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (c ShowAuthCode) ExpiredAt(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
