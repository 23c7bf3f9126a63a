package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"

	"boxoffice/internal/entities"
	"boxoffice/internal/monitoring"
)

type InvoicesStore interface {
	FindExpired(ctx context.Context, now time.Time, limit int) ([]entities.Invoice, error)
	MarkExpired(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type EventBus interface {
	Publish(ctx context.Context, event any) error
}

// ExpirationSweeper reclaims reservations abandoned by the buyer: it
// scans for invoices past their deadline still in WAITING_PAYMENT,
// transitions them to PAYMENT_EXPIRED and, strictly after the
// transition is committed, publishes one release event per invoice.
// The downstream ledger consumer does the actual crediting.
type ExpirationSweeper struct {
	invoices  InvoicesStore
	eventBus  EventBus
	batchSize int
	now       func() time.Time
}

func NewExpirationSweeper(invoices InvoicesStore, eventBus EventBus, batchSize int) *ExpirationSweeper {
	if batchSize < 1 {
		batchSize = 100
	}

	return &ExpirationSweeper{
		invoices:  invoices,
		eventBus:  eventBus,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (s *ExpirationSweeper) Name() string {
	return "expiration_sweeper"
}

func (s *ExpirationSweeper) Run(ctx context.Context) error {
	now := s.now()

	expired, err := s.invoices.FindExpired(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to scan for expired invoices: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(expired))
	for _, invoice := range expired {
		ids = append(ids, invoice.ID)
	}

	transitioned, err := s.invoices.MarkExpired(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to expire invoices: %w", err)
	}

	committed := make(map[uuid.UUID]struct{}, len(transitioned))
	for _, id := range transitioned {
		committed[id] = struct{}{}
	}

	for _, invoice := range expired {
		if _, ok := committed[invoice.ID]; !ok {
			// lost the race to a payment-result transition
			continue
		}

		event := entities.TicketLockExpired_v1{
			Header:        entities.NewEventHeader(invoice.ID.String()),
			InvoiceID:     invoice.ID.String(),
			PaymentID:     invoice.PaymentID,
			TicketDetails: invoice.TicketDetails,
			ExpiredAt:     now,
		}

		// The committed status is the source of truth; a failed publish
		// is logged and left to the reconciliation audit.
		if err := s.eventBus.Publish(ctx, event); err != nil {
			monitoring.PublishFailures.WithLabelValues("TicketLockExpired_v1").Inc()
			log.FromContext(ctx).
				WithField("invoice_id", invoice.ID.String()).
				WithField("error", err).
				Error("Failed to publish expiration event")
		}
	}

	monitoring.InvoicesExpired.Add(float64(len(transitioned)))
	log.FromContext(ctx).
		WithField("count", len(transitioned)).
		Info("Expired abandoned reservations")

	return nil
}
