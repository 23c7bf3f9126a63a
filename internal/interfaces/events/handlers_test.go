package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/internal/entities"
	"boxoffice/internal/interfaces/events"
)

type fakeReservations struct {
	confirmed []uuid.UUID
	failed    []uuid.UUID
	cancelled []uuid.UUID
	released  []uuid.UUID

	err error
}

func (f *fakeReservations) Confirm(_ context.Context, id uuid.UUID) error {
	f.confirmed = append(f.confirmed, id)
	return f.err
}

func (f *fakeReservations) Fail(_ context.Context, id uuid.UUID) error {
	f.failed = append(f.failed, id)
	return f.err
}

func (f *fakeReservations) Cancel(_ context.Context, id uuid.UUID) error {
	f.cancelled = append(f.cancelled, id)
	return f.err
}

func (f *fakeReservations) Release(_ context.Context, id uuid.UUID) error {
	f.released = append(f.released, id)
	return f.err
}

type fakeValidator struct {
	err error
}

func (f *fakeValidator) Validate(_ context.Context, _ uuid.UUID, _ string) error {
	return f.err
}

type fakeClassWriter struct {
	upserted []entities.TicketClass
	err      error
}

func (f *fakeClassWriter) UpsertTicketClass(_ context.Context, class entities.TicketClass) error {
	f.upserted = append(f.upserted, class)
	return f.err
}

func TestReleaseExpiredLockHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("releases referenced invoice", func(t *testing.T) {
		reservations := &fakeReservations{}
		handler := events.ReleaseExpiredLockHandler(reservations)

		invoiceID := uuid.New()
		err := handler.Handle(ctx, &entities.TicketLockExpired_v1{InvoiceID: invoiceID.String()})
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{invoiceID}, reservations.released)
	})

	t.Run("drops malformed invoice id", func(t *testing.T) {
		reservations := &fakeReservations{}
		handler := events.ReleaseExpiredLockHandler(reservations)

		err := handler.Handle(ctx, &entities.TicketLockExpired_v1{InvoiceID: "not-a-uuid"})
		require.NoError(t, err)
		assert.Empty(t, reservations.released)
	})

	t.Run("drops unreleasable invoice", func(t *testing.T) {
		for _, dropErr := range []error{entities.ErrNotFound, entities.ErrInvalidTransition} {
			reservations := &fakeReservations{err: dropErr}
			handler := events.ReleaseExpiredLockHandler(reservations)

			err := handler.Handle(ctx, &entities.TicketLockExpired_v1{InvoiceID: uuid.NewString()})
			assert.NoError(t, err, "%v should be dropped, not retried", dropErr)
		}
	})

	t.Run("transient failure is surfaced for retry", func(t *testing.T) {
		transient := errors.New("deadline exceeded")
		reservations := &fakeReservations{err: transient}
		handler := events.ReleaseExpiredLockHandler(reservations)

		err := handler.Handle(ctx, &entities.TicketLockExpired_v1{InvoiceID: uuid.NewString()})
		assert.ErrorIs(t, err, transient)
	})
}

func TestPaymentStatusHandler(t *testing.T) {
	ctx := context.Background()
	invoiceID := uuid.New()

	t.Run("routes statuses to the state machine", func(t *testing.T) {
		reservations := &fakeReservations{}
		handler := events.PaymentStatusHandler(reservations)

		for _, status := range []string{"PAYMENT_SUCCESS", "PAYMENT_FAILED", "PAYMENT_CANCELLED"} {
			err := handler.Handle(ctx, &entities.PaymentStatusChanged_v1{
				InvoiceID: invoiceID.String(),
				Status:    status,
			})
			require.NoError(t, err)
		}

		assert.Equal(t, []uuid.UUID{invoiceID}, reservations.confirmed)
		assert.Equal(t, []uuid.UUID{invoiceID}, reservations.failed)
		assert.Equal(t, []uuid.UUID{invoiceID}, reservations.cancelled)
	})

	t.Run("drops unknown status", func(t *testing.T) {
		reservations := &fakeReservations{}
		handler := events.PaymentStatusHandler(reservations)

		err := handler.Handle(ctx, &entities.PaymentStatusChanged_v1{
			InvoiceID: invoiceID.String(),
			Status:    "PAYMENT_REFUNDED",
		})
		require.NoError(t, err)
		assert.Empty(t, reservations.confirmed)
		assert.Empty(t, reservations.failed)
		assert.Empty(t, reservations.cancelled)
	})

	t.Run("drops late event for already terminal invoice", func(t *testing.T) {
		reservations := &fakeReservations{err: entities.ErrInvalidTransition}
		handler := events.PaymentStatusHandler(reservations)

		err := handler.Handle(ctx, &entities.PaymentStatusChanged_v1{
			InvoiceID: invoiceID.String(),
			Status:    "PAYMENT_SUCCESS",
		})
		assert.NoError(t, err)
	})

	t.Run("drops malformed invoice id", func(t *testing.T) {
		reservations := &fakeReservations{}
		handler := events.PaymentStatusHandler(reservations)

		err := handler.Handle(ctx, &entities.PaymentStatusChanged_v1{
			InvoiceID: "42",
			Status:    "PAYMENT_SUCCESS",
		})
		require.NoError(t, err)
		assert.Empty(t, reservations.confirmed)
	})
}

func TestTicketClassUpsertHandler(t *testing.T) {
	ctx := context.Background()
	showID := uuid.New()

	event := func() *entities.TicketClassUpsert_v1 {
		return &entities.TicketClassUpsert_v1{
			ShowID:   showID.String(),
			AuthCode: "deadbeef",
			Payload: entities.TicketClassUpsertPayload{
				Type:              "standard",
				Price:             decimal.NewFromInt(30),
				Capacity:          100,
				AvailableQuantity: 100,
			},
		}
	}

	t.Run("upserts with fresh id when none given", func(t *testing.T) {
		writer := &fakeClassWriter{}
		handler := events.TicketClassUpsertHandler(&fakeValidator{}, writer)

		require.NoError(t, handler.Handle(ctx, event()))
		require.Len(t, writer.upserted, 1)

		got := writer.upserted[0]
		assert.NotEqual(t, uuid.Nil, got.ID)
		assert.Equal(t, showID, got.ShowID)
		assert.Equal(t, "standard", got.Type)
		assert.Equal(t, 100, got.Capacity)
	})

	t.Run("keeps the given class id", func(t *testing.T) {
		writer := &fakeClassWriter{}
		handler := events.TicketClassUpsertHandler(&fakeValidator{}, writer)

		classID := uuid.New()
		e := event()
		e.Payload.TicketClassID = classID.String()

		require.NoError(t, handler.Handle(ctx, e))
		require.Len(t, writer.upserted, 1)
		assert.Equal(t, classID, writer.upserted[0].ID)
	})

	t.Run("rejects invalid auth code without retry", func(t *testing.T) {
		writer := &fakeClassWriter{}
		validator := &fakeValidator{err: entities.ErrInvalidAuthCode}
		handler := events.TicketClassUpsertHandler(validator, writer)

		require.NoError(t, handler.Handle(ctx, event()))
		assert.Empty(t, writer.upserted)
	})

	t.Run("validator infrastructure failure is retried", func(t *testing.T) {
		transient := errors.New("connection refused")
		handler := events.TicketClassUpsertHandler(&fakeValidator{err: transient}, &fakeClassWriter{})

		err := handler.Handle(ctx, event())
		assert.ErrorIs(t, err, transient)
	})

	t.Run("drops inconsistent quantities", func(t *testing.T) {
		writer := &fakeClassWriter{}
		handler := events.TicketClassUpsertHandler(&fakeValidator{}, writer)

		e := event()
		e.Payload.AvailableQuantity = e.Payload.Capacity + 1

		require.NoError(t, handler.Handle(ctx, e))
		assert.Empty(t, writer.upserted)
	})

	t.Run("drops malformed ids", func(t *testing.T) {
		writer := &fakeClassWriter{}
		handler := events.TicketClassUpsertHandler(&fakeValidator{}, writer)

		badShow := event()
		badShow.ShowID = "nope"
		require.NoError(t, handler.Handle(ctx, badShow))

		badClass := event()
		badClass.Payload.TicketClassID = "nope"
		require.NoError(t, handler.Handle(ctx, badClass))

		assert.Empty(t, writer.upserted)
	})
}
