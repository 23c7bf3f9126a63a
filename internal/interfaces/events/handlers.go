package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"

	"boxoffice/internal/entities"
)

type ReservationService interface {
	Confirm(ctx context.Context, invoiceID uuid.UUID) error
	Fail(ctx context.Context, invoiceID uuid.UUID) error
	Cancel(ctx context.Context, invoiceID uuid.UUID) error
	Release(ctx context.Context, invoiceID uuid.UUID) error
}

type AuthCodeValidator interface {
	Validate(ctx context.Context, showID uuid.UUID, code string) error
}

type TicketClassWriter interface {
	UpsertTicketClass(ctx context.Context, class entities.TicketClass) error
}

// ReleaseExpiredLockHandler is the ledger-side consumer of
// ticket.lock.expiration: it credits the held quantity back. The release
// path is idempotent per invoice, so redelivered events are harmless.
func ReleaseExpiredLockHandler(reservations ReservationService) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"release_expired_lock_handler",
		func(ctx context.Context, event *entities.TicketLockExpired_v1) error {
			invoiceID, err := uuid.Parse(event.InvoiceID)
			if err != nil {
				log.FromContext(ctx).
					WithField("invoice_id", event.InvoiceID).
					Warn("Dropping expiration event with malformed invoice id")
				return nil
			}

			err = reservations.Release(ctx, invoiceID)
			if errors.Is(err, entities.ErrNotFound) || errors.Is(err, entities.ErrInvalidTransition) {
				// nothing to credit; retrying cannot change that
				log.FromContext(ctx).
					WithField("invoice_id", event.InvoiceID).
					WithField("error", err).
					Warn("Dropping unreleasable expiration event")
				return nil
			}
			return err
		},
	)
}

// PaymentStatusHandler applies payment results from the payment
// collaborator to the invoice state machine.
func PaymentStatusHandler(reservations ReservationService) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"payment_status_handler",
		func(ctx context.Context, event *entities.PaymentStatusChanged_v1) error {
			invoiceID, err := uuid.Parse(event.InvoiceID)
			if err != nil {
				log.FromContext(ctx).
					WithField("invoice_id", event.InvoiceID).
					Warn("Dropping payment event with malformed invoice id")
				return nil
			}

			switch entities.InvoiceStatus(event.Status) {
			case entities.InvoiceStatusPaymentSuccess:
				err = reservations.Confirm(ctx, invoiceID)
			case entities.InvoiceStatusPaymentFailed:
				err = reservations.Fail(ctx, invoiceID)
			case entities.InvoiceStatusPaymentCancelled:
				err = reservations.Cancel(ctx, invoiceID)
			default:
				log.FromContext(ctx).
					WithField("status", event.Status).
					Warn("Dropping payment event with unknown status")
				return nil
			}

			if errors.Is(err, entities.ErrInvalidTransition) {
				// the invoice reached a different terminal state first
				log.FromContext(ctx).
					WithField("invoice_id", event.InvoiceID).
					WithField("error", err).
					Warn("Dropping late payment event")
				return nil
			}
			return err
		},
	)
}

// TicketClassUpsertHandler applies cross-boundary ticket-class
// mutations. Messages failing auth-code validation are dropped, not
// retried: a stale code never becomes valid again.
func TicketClassUpsertHandler(codes AuthCodeValidator, classes TicketClassWriter) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"ticket_class_upsert_handler",
		func(ctx context.Context, event *entities.TicketClassUpsert_v1) error {
			showID, err := uuid.Parse(event.ShowID)
			if err != nil {
				log.FromContext(ctx).
					WithField("show_id", event.ShowID).
					Warn("Dropping ticket class mutation with malformed show id")
				return nil
			}

			if err := codes.Validate(ctx, showID, event.AuthCode); err != nil {
				if errors.Is(err, entities.ErrInvalidAuthCode) {
					log.FromContext(ctx).
						WithField("show_id", event.ShowID).
						Warn("Rejected ticket class mutation with invalid auth code")
					return nil
				}
				return err
			}

			classID := uuid.New()
			if event.Payload.TicketClassID != "" {
				classID, err = uuid.Parse(event.Payload.TicketClassID)
				if err != nil {
					log.FromContext(ctx).
						WithField("ticket_class_id", event.Payload.TicketClassID).
						Warn("Dropping ticket class mutation with malformed class id")
					return nil
				}
			}

			if event.Payload.Capacity < 0 || event.Payload.AvailableQuantity < 0 ||
				event.Payload.AvailableQuantity > event.Payload.Capacity {
				log.FromContext(ctx).
					WithField("ticket_class_id", classID.String()).
					Warn("Dropping ticket class mutation with inconsistent quantities")
				return nil
			}

			return classes.UpsertTicketClass(ctx, entities.TicketClass{
				ID:                classID,
				ShowID:            showID,
				Type:              event.Payload.Type,
				Price:             event.Payload.Price,
				Capacity:          event.Payload.Capacity,
				AvailableQuantity: event.Payload.AvailableQuantity,
			})
		},
	)
}
