package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceStatusTerminality(t *testing.T) {
	terminal := []InvoiceStatus{
		InvoiceStatusPaymentSuccess,
		InvoiceStatusPaymentFailed,
		InvoiceStatusPaymentExpired,
		InvoiceStatusPaymentCancelled,
	}

	assert.False(t, InvoiceStatusWaitingPayment.IsTerminal())

	for _, status := range terminal {
		assert.True(t, status.IsTerminal(), "%s should be terminal", status)

		invoice := Invoice{Status: status}
		for _, next := range append(terminal, InvoiceStatusWaitingPayment) {
			assert.False(t, invoice.CanTransitionTo(next),
				"%s -> %s should be rejected", status, next)
		}
	}

	waiting := Invoice{Status: InvoiceStatusWaitingPayment}
	for _, next := range terminal {
		assert.True(t, waiting.CanTransitionTo(next))
	}
	assert.False(t, waiting.CanTransitionTo(InvoiceStatusWaitingPayment))
}

func TestInvoiceStatusReleasable(t *testing.T) {
	assert.True(t, InvoiceStatusPaymentExpired.Releasable())
	assert.True(t, InvoiceStatusPaymentFailed.Releasable())
	assert.True(t, InvoiceStatusPaymentCancelled.Releasable())

	// success consumes capacity, waiting still holds it
	assert.False(t, InvoiceStatusPaymentSuccess.Releasable())
	assert.False(t, InvoiceStatusWaitingPayment.Releasable())
}

func TestInvoiceExpired(t *testing.T) {
	now := time.Now()

	overdue := Invoice{Status: InvoiceStatusWaitingPayment, ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, overdue.Expired(now))

	within := Invoice{Status: InvoiceStatusWaitingPayment, ExpiresAt: now.Add(time.Minute)}
	assert.False(t, within.Expired(now))

	// an already terminal invoice is never considered expired
	paid := Invoice{Status: InvoiceStatusPaymentSuccess, ExpiresAt: now.Add(-time.Hour)}
	assert.False(t, paid.Expired(now))
}

func TestTicketDetailsValidate(t *testing.T) {
	classID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		details := TicketDetails{
			{TicketClassID: classID, Quantity: 2},
			{TicketClassID: uuid.New(), Quantity: 1},
		}
		require.NoError(t, details.Validate())
	})

	t.Run("empty", func(t *testing.T) {
		require.Error(t, TicketDetails{}.Validate())
	})

	t.Run("zero quantity", func(t *testing.T) {
		details := TicketDetails{{TicketClassID: classID, Quantity: 0}}
		require.Error(t, details.Validate())
	})

	t.Run("negative quantity", func(t *testing.T) {
		details := TicketDetails{{TicketClassID: classID, Quantity: -1}}
		require.Error(t, details.Validate())
	})

	t.Run("missing class id", func(t *testing.T) {
		details := TicketDetails{{Quantity: 1}}
		require.Error(t, details.Validate())
	})

	t.Run("duplicate class", func(t *testing.T) {
		details := TicketDetails{
			{TicketClassID: classID, Quantity: 1},
			{TicketClassID: classID, Quantity: 2},
		}
		require.Error(t, details.Validate())
	})
}

func TestTicketDetailsScan(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		original := TicketDetails{{TicketClassID: uuid.New(), Quantity: 3}}

		value, err := original.Value()
		require.NoError(t, err)

		var scanned TicketDetails
		require.NoError(t, scanned.Scan(value))
		assert.Equal(t, original, scanned)
	})

	t.Run("rejects malformed stored payload", func(t *testing.T) {
		var scanned TicketDetails
		require.Error(t, scanned.Scan([]byte(`[{"ticket_class_id":"not-a-uuid"}]`)))
	})

	t.Run("rejects invalid stored details", func(t *testing.T) {
		var scanned TicketDetails
		require.Error(t, scanned.Scan([]byte(`[]`)))
	})
}
