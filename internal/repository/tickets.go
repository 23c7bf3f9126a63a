package repository

import (
	"context"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"boxoffice/internal/entities"
)

type TicketsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTicketsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TicketsRepo {
	return &TicketsRepo{db: db, getter: getter}
}

func (r *TicketsRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

// CreateTickets inserts the admission units materialized by a confirmed
// invoice, one row per unit.
func (r *TicketsRepo) CreateTickets(ctx context.Context, tickets []entities.Ticket) error {
	query := `
		INSERT INTO tickets (
			id, ticket_class_id, invoice_id, end_user_id
		) VALUES (
			$1, $2, $3, $4
		)`

	for _, ticket := range tickets {
		_, err := r.conn(ctx).ExecContext(ctx, query,
			ticket.ID,
			ticket.TicketClassID,
			ticket.InvoiceID,
			ticket.EndUserID,
		)
		if err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
	}

	return nil
}

func (r *TicketsRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entities.Ticket, error) {
	var tickets []entities.Ticket

	query := `
		SELECT id, ticket_class_id, invoice_id, end_user_id, checked_in_at
		FROM tickets
		WHERE invoice_id = $1`

	err := r.conn(ctx).SelectContext(ctx, &tickets, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, nil
}

func (r *TicketsRepo) CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int, error) {
	var count int

	err := r.conn(ctx).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM tickets WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	return count, nil
}
