package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceStatusWaitingPayment   InvoiceStatus = "WAITING_PAYMENT"
	InvoiceStatusPaymentSuccess   InvoiceStatus = "PAYMENT_SUCCESS"
	InvoiceStatusPaymentFailed    InvoiceStatus = "PAYMENT_FAILED"
	InvoiceStatusPaymentExpired   InvoiceStatus = "PAYMENT_EXPIRED"
	InvoiceStatusPaymentCancelled InvoiceStatus = "PAYMENT_CANCELLED"
)

// IsTerminal reports whether the status permits no further transitions.
// Every status except WAITING_PAYMENT is terminal.
func (s InvoiceStatus) IsTerminal() bool {
	return s != InvoiceStatusWaitingPayment
}

// Releasable reports whether held quantity must be credited back for an
// invoice in this status. PAYMENT_SUCCESS is excluded: capacity is
// permanently consumed by the issued tickets.
func (s InvoiceStatus) Releasable() bool {
	switch s {
	case InvoiceStatusPaymentExpired, InvoiceStatusPaymentFailed, InvoiceStatusPaymentCancelled:
		return true
	}
	return false
}

// TicketDetail is one reserved (ticket class, quantity) pair.
type TicketDetail struct {
	TicketClassID uuid.UUID `json:"ticket_class_id"`
	Quantity      int       `json:"quantity"`
}

// TicketDetails is the typed reservation manifest carried by an invoice.
// It is persisted as JSONB and validated at every boundary it crosses.
type TicketDetails []TicketDetail

func (d TicketDetails) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("ticket details must not be empty")
	}

	seen := make(map[uuid.UUID]struct{}, len(d))
	for _, detail := range d {
		if detail.TicketClassID == uuid.Nil {
			return fmt.Errorf("ticket detail has no ticket class id")
		}
		if detail.Quantity <= 0 {
			return fmt.Errorf("ticket detail for class %s has non-positive quantity %d", detail.TicketClassID, detail.Quantity)
		}
		if _, ok := seen[detail.TicketClassID]; ok {
			return fmt.Errorf("ticket class %s appears more than once", detail.TicketClassID)
		}
		seen[detail.TicketClassID] = struct{}{}
	}

	return nil
}

func (d TicketDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *TicketDetails) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported ticket details source type %T", src)
	}

	var details TicketDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return fmt.Errorf("failed to unmarshal ticket details: %w", err)
	}
	if err := details.Validate(); err != nil {
		return fmt.Errorf("stored ticket details are malformed: %w", err)
	}

	*d = details
	return nil
}

// Invoice is a reservation record. ExpiresAt is set once at creation and
// never changes; invoices are kept forever for audit.
type Invoice struct {
	ID            uuid.UUID     `db:"id"`
	PaymentID     string        `db:"payment_id"`
	Status        InvoiceStatus `db:"status"`
	ExpiresAt     time.Time     `db:"expires_at"`
	TicketDetails TicketDetails `db:"ticket_details"`
	Version       int           `db:"version"`
	CreatedBy     string        `db:"created_by"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

// CanTransitionTo enforces terminality: the only legal source status is
// WAITING_PAYMENT, and an invoice never transitions back into it.
func (i Invoice) CanTransitionTo(next InvoiceStatus) bool {
	return i.Status == InvoiceStatusWaitingPayment && next != InvoiceStatusWaitingPayment
}

func (i Invoice) Expired(now time.Time) bool {
	return i.Status == InvoiceStatusWaitingPayment && i.ExpiresAt.Before(now)
}
