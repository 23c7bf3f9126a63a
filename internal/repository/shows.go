package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"boxoffice/internal/entities"
)

type ShowsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewShowsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *ShowsRepo {
	return &ShowsRepo{db: db, getter: getter}
}

func (r *ShowsRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

func (r *ShowsRepo) CreateShow(ctx context.Context, show entities.Show) (uuid.UUID, error) {
	var id uuid.UUID

	query := `
		INSERT INTO shows (
			title, venue, show_date, show_time, sale_status, auto_update_status
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING id`

	err := r.conn(ctx).QueryRowxContext(ctx, query,
		show.Title,
		show.Venue,
		show.Date,
		show.Time,
		show.SaleStatus,
		show.AutoUpdateStatus,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create show: %w", err)
	}

	return id, nil
}

func (r *ShowsRepo) GetShow(ctx context.Context, id uuid.UUID) (entities.Show, error) {
	var show entities.Show

	query := `
		SELECT id, title, venue, show_date, show_time, sale_status, auto_update_status
		FROM shows
		WHERE id = $1`

	err := r.conn(ctx).GetContext(ctx, &show, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Show{}, fmt.Errorf("show %s: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return entities.Show{}, fmt.Errorf("failed to get show: %w", err)
	}

	return show, nil
}

// UpdateSaleStatus performs the externally driven transition, guarded by
// the status the caller read so monotonicity checked in the usecase
// cannot be raced past.
func (r *ShowsRepo) UpdateSaleStatus(ctx context.Context, id uuid.UUID, from, to entities.SaleStatus) error {
	query := `
		UPDATE shows
		SET sale_status = $2
		WHERE id = $1 AND sale_status = $3`

	res, err := r.conn(ctx).ExecContext(ctx, query, id, to, from)
	if err != nil {
		return fmt.Errorf("failed to update sale status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("show %s is no longer %s: %w", id, from, entities.ErrConflict)
	}

	return nil
}

// FindAutoUpdatable returns the shows the status scheduler is allowed to
// touch: auto-update enabled and not yet ended.
func (r *ShowsRepo) FindAutoUpdatable(ctx context.Context) ([]entities.Show, error) {
	var shows []entities.Show

	query := `
		SELECT id, title, venue, show_date, show_time, sale_status, auto_update_status
		FROM shows
		WHERE auto_update_status = TRUE AND sale_status <> $1`

	err := r.conn(ctx).SelectContext(ctx, &shows, query, entities.SaleStatusEnded)
	if err != nil {
		return nil, fmt.Errorf("failed to find auto-updatable shows: %w", err)
	}

	return shows, nil
}

// MarkEnded batch-saves the scheduler's pass in one statement and
// returns the ids actually transitioned.
func (r *ShowsRepo) MarkEnded(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		UPDATE shows
		SET sale_status = $1
		WHERE id = ANY ($2) AND auto_update_status = TRUE AND sale_status <> $1
		RETURNING id`

	rows, err := r.conn(ctx).QueryContext(ctx, query, entities.SaleStatusEnded, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to mark shows ended: %w", err)
	}
	defer rows.Close()

	var ended []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ended show id: %w", err)
		}
		ended = append(ended, id)
	}

	return ended, rows.Err()
}
