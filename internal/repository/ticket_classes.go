package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"boxoffice/internal/entities"
)

type TicketClassesRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTicketClassesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TicketClassesRepo {
	return &TicketClassesRepo{db: db, getter: getter}
}

func (r *TicketClassesRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

func (r *TicketClassesRepo) GetTicketClass(ctx context.Context, id uuid.UUID) (entities.TicketClass, error) {
	var class entities.TicketClass

	query := `
		SELECT id, show_id, type, price, capacity, available_quantity, version
		FROM ticket_classes
		WHERE id = $1`

	err := r.conn(ctx).GetContext(ctx, &class, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.TicketClass{}, fmt.Errorf("ticket class %s: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return entities.TicketClass{}, fmt.Errorf("failed to get ticket class: %w", err)
	}

	return class, nil
}

// DecrementAvailable takes quantity off the ledger, guarded by the
// version the caller read. A zero-row update means a concurrent writer
// got there first; the caller re-reads and retries.
func (r *TicketClassesRepo) DecrementAvailable(ctx context.Context, id uuid.UUID, quantity, version int) error {
	query := `
		UPDATE ticket_classes
		SET available_quantity = available_quantity - $2, version = version + 1
		WHERE id = $1 AND version = $3 AND available_quantity >= $2`

	res, err := r.conn(ctx).ExecContext(ctx, query, id, quantity, version)
	if err != nil {
		return fmt.Errorf("failed to decrement availability: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ticket class %s changed underneath us: %w", id, entities.ErrConflict)
	}

	return nil
}

// CreditAvailable returns released quantity to the ledger. Unconditional:
// the release path is already serialized by the release log.
func (r *TicketClassesRepo) CreditAvailable(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE ticket_classes
		SET available_quantity = available_quantity + $2, version = version + 1
		WHERE id = $1`

	res, err := r.conn(ctx).ExecContext(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to credit availability: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ticket class %s: %w", id, entities.ErrNotFound)
	}

	return nil
}

func (r *TicketClassesRepo) UpsertTicketClass(ctx context.Context, class entities.TicketClass) error {
	query := `
		INSERT INTO ticket_classes (
			id, show_id, type, price, capacity, available_quantity, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, 0
		)
		ON CONFLICT (id) DO UPDATE
		SET type = EXCLUDED.type,
			price = EXCLUDED.price,
			capacity = EXCLUDED.capacity,
			available_quantity = EXCLUDED.available_quantity,
			version = ticket_classes.version + 1`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		class.ID,
		class.ShowID,
		class.Type,
		class.Price,
		class.Capacity,
		class.AvailableQuantity,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ticket class: %w", err)
	}

	return nil
}
