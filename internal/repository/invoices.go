package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"boxoffice/internal/entities"
)

type InvoicesRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewInvoicesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *InvoicesRepo {
	return &InvoicesRepo{db: db, getter: getter}
}

func (r *InvoicesRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

func (r *InvoicesRepo) CreateInvoice(ctx context.Context, invoice entities.Invoice) error {
	if err := invoice.TicketDetails.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invoice %s: %w", invoice.ID, err)
	}

	query := `
		INSERT INTO invoices (
			id, payment_id, status, expires_at, ticket_details, version, created_by
		) VALUES (
			$1, $2, $3, $4, $5, 0, $6
		)`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		invoice.ID,
		invoice.PaymentID,
		invoice.Status,
		invoice.ExpiresAt,
		invoice.TicketDetails,
		invoice.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

func (r *InvoicesRepo) GetInvoice(ctx context.Context, id uuid.UUID) (entities.Invoice, error) {
	var invoice entities.Invoice

	query := `
		SELECT id, payment_id, status, expires_at, ticket_details, version, created_by, created_at, updated_at
		FROM invoices
		WHERE id = $1`

	err := r.conn(ctx).GetContext(ctx, &invoice, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Invoice{}, fmt.Errorf("invoice %s: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return entities.Invoice{}, fmt.Errorf("failed to get invoice: %w", err)
	}

	return invoice, nil
}

// TransitionStatus moves an invoice out of WAITING_PAYMENT. The status
// filter in the UPDATE is the terminality guard: a row already in a
// terminal state is never matched, so no second transition can happen.
func (r *InvoicesRepo) TransitionStatus(ctx context.Context, id uuid.UUID, to entities.InvoiceStatus) error {
	if to == entities.InvoiceStatusWaitingPayment {
		return fmt.Errorf("cannot transition invoice %s back to %s: %w", id, to, entities.ErrInvalidTransition)
	}

	query := `
		UPDATE invoices
		SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND status = $3`

	res, err := r.conn(ctx).ExecContext(ctx, query, id, to, entities.InvoiceStatusWaitingPayment)
	if err != nil {
		return fmt.Errorf("failed to transition invoice: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	invoice, err := r.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("invoice %s is already %s: %w", id, invoice.Status, entities.ErrInvalidTransition)
}

func (r *InvoicesRepo) FindExpired(ctx context.Context, now time.Time, limit int) ([]entities.Invoice, error) {
	var invoices []entities.Invoice

	query := `
		SELECT id, payment_id, status, expires_at, ticket_details, version, created_by, created_at, updated_at
		FROM invoices
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at
		LIMIT $3`

	err := r.conn(ctx).SelectContext(ctx, &invoices, query, entities.InvoiceStatusWaitingPayment, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired invoices: %w", err)
	}

	return invoices, nil
}

// MarkExpired batch-transitions the given invoices to PAYMENT_EXPIRED and
// returns the ids actually transitioned. Invoices that left
// WAITING_PAYMENT between scan and save drop out of the result, so the
// caller publishes no event for them.
func (r *InvoicesRepo) MarkExpired(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		UPDATE invoices
		SET status = $1, version = version + 1, updated_at = now()
		WHERE id = ANY ($2) AND status = $3
		RETURNING id`

	rows, err := r.conn(ctx).QueryContext(ctx, query,
		entities.InvoiceStatusPaymentExpired,
		pq.Array(ids),
		entities.InvoiceStatusWaitingPayment,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invoices expired: %w", err)
	}
	defer rows.Close()

	var transitioned []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expired invoice id: %w", err)
		}
		transitioned = append(transitioned, id)
	}

	return transitioned, rows.Err()
}

// LogRelease records that the invoice's hold was credited back. Returns
// false when a release for the invoice was already recorded, which makes
// duplicate event deliveries a no-op for the caller.
func (r *InvoicesRepo) LogRelease(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO release_log (invoice_id)
		VALUES ($1)
		ON CONFLICT (invoice_id) DO NOTHING`

	res, err := r.conn(ctx).ExecContext(ctx, query, invoiceID)
	if err != nil {
		return false, fmt.Errorf("failed to log release: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected == 1, nil
}
