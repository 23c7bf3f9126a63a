package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event interface {
	IsInternal() bool
}

// TicketLockExpired_v1 is published on the ticket.lock.expiration topic,
// exactly once per invoice the sweeper transitions, strictly after the
// transition is committed. The downstream inventory consumer credits the
// held quantity back.
type TicketLockExpired_v1 struct {
	Header EventHeader `json:"header"`

	InvoiceID     string        `json:"invoice_id"`
	PaymentID     string        `json:"payment_id"`
	TicketDetails TicketDetails `json:"ticket_details"`
	ExpiredAt     time.Time     `json:"timestamp"`
}

func (t TicketLockExpired_v1) IsInternal() bool {
	return false
}

// PaymentStatusChanged_v1 arrives from the payment collaborator and
// drives confirm/fail/cancel on the referenced invoice.
type PaymentStatusChanged_v1 struct {
	Header EventHeader `json:"header"`

	InvoiceID string `json:"invoice_id"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

func (p PaymentStatusChanged_v1) IsInternal() bool {
	return false
}

// TicketClassUpsert_v1 is an inbound cross-boundary mutation of a ticket
// class, authenticated by the show auth code rather than a session.
type TicketClassUpsert_v1 struct {
	Header EventHeader `json:"header"`

	ShowID   string                   `json:"show_id"`
	AuthCode string                   `json:"auth_code"`
	Payload  TicketClassUpsertPayload `json:"payload"`
}

type TicketClassUpsertPayload struct {
	TicketClassID     string          `json:"ticket_class_id"`
	Type              string          `json:"type"`
	Price             decimal.Decimal `json:"price"`
	Capacity          int             `json:"capacity"`
	AvailableQuantity int             `json:"available_quantity"`
}

func (t TicketClassUpsert_v1) IsInternal() bool {
	return false
}

// ShowEnded_v1 is published by the show status scheduler after a show is
// committed as ENDED.
type ShowEnded_v1 struct {
	Header EventHeader `json:"header"`

	ShowID  string    `json:"show_id"`
	EndedAt time.Time `json:"ended_at"`
}

func (s ShowEnded_v1) IsInternal() bool {
	return false
}
