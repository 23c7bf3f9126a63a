package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"boxoffice/internal/entities"
	"boxoffice/internal/identity"
	"boxoffice/internal/monitoring"
)

// anonymousActor is recorded when no actor was installed on the context.
const anonymousActor identity.Actor = "anonymous"

// TxManager runs fn inside a single database transaction. Satisfied by
// the go-transaction-manager Manager.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type InvoicesRepo interface {
	CreateInvoice(ctx context.Context, invoice entities.Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (entities.Invoice, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to entities.InvoiceStatus) error
	LogRelease(ctx context.Context, invoiceID uuid.UUID) (bool, error)
}

type TicketClassesRepo interface {
	GetTicketClass(ctx context.Context, id uuid.UUID) (entities.TicketClass, error)
	DecrementAvailable(ctx context.Context, id uuid.UUID, quantity, version int) error
	CreditAvailable(ctx context.Context, id uuid.UUID, quantity int) error
}

type TicketsRepo interface {
	CreateTickets(ctx context.Context, tickets []entities.Ticket) error
}

type Usecase struct {
	invoices  InvoicesRepo
	classes   TicketClassesRepo
	tickets   TicketsRepo
	trManager TxManager

	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewUsecase(
	invoices InvoicesRepo,
	classes TicketClassesRepo,
	tickets TicketsRepo,
	trManager TxManager,
	ttl time.Duration,
	maxAttempts int,
) *Usecase {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Usecase{
		invoices:    invoices,
		classes:     classes,
		tickets:     tickets,
		trManager:   trManager,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

type ReserveRequest struct {
	PaymentID     string
	TicketDetails entities.TicketDetails
}

// Reserve decrements the ledger and creates the owning invoice in one
// transaction. Version clashes retry the whole transaction a bounded
// number of times; insufficient availability fails immediately.
func (u *Usecase) Reserve(ctx context.Context, req ReserveRequest) (uuid.UUID, error) {
	if err := req.TicketDetails.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("invalid reservation request: %w", err)
	}

	actor, ok := identity.ActorFromContext(ctx)
	if !ok {
		actor = anonymousActor
	}

	var invoiceID uuid.UUID
	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		err := u.trManager.Do(ctx, func(ctx context.Context) error {
			for _, detail := range req.TicketDetails {
				class, err := u.classes.GetTicketClass(ctx, detail.TicketClassID)
				if err != nil {
					return err
				}
				if class.AvailableQuantity < detail.Quantity {
					return fmt.Errorf("ticket class %s has %d left, requested %d: %w",
						class.ID, class.AvailableQuantity, detail.Quantity, entities.ErrOutOfStock)
				}
				if err := u.classes.DecrementAvailable(ctx, class.ID, detail.Quantity, class.Version); err != nil {
					return err
				}
			}

			now := u.now()
			invoice := entities.Invoice{
				ID:            uuid.New(),
				PaymentID:     req.PaymentID,
				Status:        entities.InvoiceStatusWaitingPayment,
				ExpiresAt:     now.Add(u.ttl),
				TicketDetails: req.TicketDetails,
				CreatedBy:     string(actor),
				CreatedAt:     now,
			}
			if err := u.invoices.CreateInvoice(ctx, invoice); err != nil {
				return err
			}

			invoiceID = invoice.ID
			return nil
		})

		if err == nil {
			return invoiceID, nil
		}
		if errors.Is(err, entities.ErrOutOfStock) {
			monitoring.ReservationRejections.WithLabelValues("out_of_stock").Inc()
			return uuid.Nil, err
		}
		if !errors.Is(err, entities.ErrConflict) {
			return uuid.Nil, err
		}

		log.FromContext(ctx).
			WithField("attempt", attempt).
			Info("Reservation lost a version race, retrying")
	}

	monitoring.ReservationRejections.WithLabelValues("contention").Inc()
	return uuid.Nil, fmt.Errorf("reservation gave up after %d attempts: %w", u.maxAttempts, entities.ErrConflict)
}

// Confirm transitions the invoice to PAYMENT_SUCCESS and materializes
// one ticket per reserved unit. Confirming an already confirmed invoice
// is a no-op; any other terminal state is an error. Held capacity is
// never credited back here: it is consumed by the issued tickets.
func (u *Usecase) Confirm(ctx context.Context, invoiceID uuid.UUID) error {
	return u.trManager.Do(ctx, func(ctx context.Context) error {
		invoice, err := u.invoices.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}

		if invoice.Status == entities.InvoiceStatusPaymentSuccess {
			return nil
		}
		if invoice.Status.IsTerminal() {
			return fmt.Errorf("cannot confirm invoice %s in status %s: %w",
				invoice.ID, invoice.Status, entities.ErrInvalidTransition)
		}

		if err := u.invoices.TransitionStatus(ctx, invoice.ID, entities.InvoiceStatusPaymentSuccess); err != nil {
			return err
		}

		var tickets []entities.Ticket
		for _, detail := range invoice.TicketDetails {
			for i := 0; i < detail.Quantity; i++ {
				tickets = append(tickets, entities.Ticket{
					ID:            uuid.New(),
					TicketClassID: detail.TicketClassID,
					InvoiceID:     invoice.ID,
					EndUserID:     invoice.CreatedBy,
				})
			}
		}

		return u.tickets.CreateTickets(ctx, tickets)
	})
}

// Fail and Cancel are the payment-result transitions. Both return the
// reservation's hold through the idempotent release path once the
// transition is committed.

func (u *Usecase) Fail(ctx context.Context, invoiceID uuid.UUID) error {
	return u.transitionAndRelease(ctx, invoiceID, entities.InvoiceStatusPaymentFailed)
}

func (u *Usecase) Cancel(ctx context.Context, invoiceID uuid.UUID) error {
	return u.transitionAndRelease(ctx, invoiceID, entities.InvoiceStatusPaymentCancelled)
}

func (u *Usecase) transitionAndRelease(ctx context.Context, invoiceID uuid.UUID, to entities.InvoiceStatus) error {
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		invoice, err := u.invoices.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}

		if invoice.Status == to {
			return nil
		}
		if invoice.Status.IsTerminal() {
			return fmt.Errorf("cannot move invoice %s from %s to %s: %w",
				invoice.ID, invoice.Status, to, entities.ErrInvalidTransition)
		}

		return u.invoices.TransitionStatus(ctx, invoice.ID, to)
	})
	if err != nil {
		return err
	}

	return u.Release(ctx, invoiceID)
}

// Release credits held quantity back to the ledger for an invoice in a
// releasable terminal state. Keyed by invoice id in the release log, so
// duplicate deliveries of the same release event never double-credit.
func (u *Usecase) Release(ctx context.Context, invoiceID uuid.UUID) error {
	return u.trManager.Do(ctx, func(ctx context.Context) error {
		invoice, err := u.invoices.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}

		if !invoice.Status.Releasable() {
			return fmt.Errorf("invoice %s in status %s holds nothing to release: %w",
				invoice.ID, invoice.Status, entities.ErrInvalidTransition)
		}

		first, err := u.invoices.LogRelease(ctx, invoice.ID)
		if err != nil {
			return err
		}
		if !first {
			log.FromContext(ctx).
				WithField("invoice_id", invoice.ID.String()).
				Info("Release already applied, skipping")
			return nil
		}

		for _, detail := range invoice.TicketDetails {
			if err := u.classes.CreditAvailable(ctx, detail.TicketClassID, detail.Quantity); err != nil {
				return err
			}
		}

		return nil
	})
}
