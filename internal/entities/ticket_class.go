package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketClass is a purchasable ticket category of a show with a finite
// capacity. AvailableQuantity plus everything reserved or issued against
// the class never exceeds Capacity and never goes negative; concurrent
// writers coordinate through the version counter.
type TicketClass struct {
	ID                uuid.UUID       `db:"id"`
	ShowID            uuid.UUID       `db:"show_id"`
	Type              string          `db:"type"`
	Price             decimal.Decimal `db:"price"`
	Capacity          int             `db:"capacity"`
	AvailableQuantity int             `db:"available_quantity"`
	Version           int             `db:"version"`
}

// Ticket is one admission unit, materialized only on PAYMENT_SUCCESS.
// Immutable once issued except for the check-in mark.
type Ticket struct {
	ID            uuid.UUID  `db:"id"`
	TicketClassID uuid.UUID  `db:"ticket_class_id"`
	InvoiceID     uuid.UUID  `db:"invoice_id"`
	EndUserID     string     `db:"end_user_id"`
	CheckedInAt   *time.Time `db:"checked_in_at"`
}
