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

type AuthCodesRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewAuthCodesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *AuthCodesRepo {
	return &AuthCodesRepo{db: db, getter: getter}
}

func (r *AuthCodesRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

func (r *AuthCodesRepo) UpsertAuthCode(ctx context.Context, code entities.ShowAuthCode) error {
	query := `
		INSERT INTO show_auth_codes (show_id, auth_code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (show_id) DO UPDATE
		SET auth_code = EXCLUDED.auth_code, expires_at = EXCLUDED.expires_at`

	_, err := r.conn(ctx).ExecContext(ctx, query, code.ShowID, code.AuthCode, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert auth code: %w", err)
	}

	return nil
}

func (r *AuthCodesRepo) GetAuthCode(ctx context.Context, showID uuid.UUID) (entities.ShowAuthCode, error) {
	var code entities.ShowAuthCode

	query := `
		SELECT show_id, auth_code, expires_at
		FROM show_auth_codes
		WHERE show_id = $1`

	err := r.conn(ctx).GetContext(ctx, &code, query, showID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.ShowAuthCode{}, fmt.Errorf("auth code for show %s: %w", showID, entities.ErrNotFound)
	}
	if err != nil {
		return entities.ShowAuthCode{}, fmt.Errorf("failed to get auth code: %w", err)
	}

	return code, nil
}

// DeleteOrphanedAuthCodes discards codes for shows that no longer have
// any ticket class to mutate.
func (r *AuthCodesRepo) DeleteOrphanedAuthCodes(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM show_auth_codes c
		WHERE NOT EXISTS (
			SELECT 1 FROM ticket_classes tc WHERE tc.show_id = c.show_id
		)`

	res, err := r.conn(ctx).ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to purge auth codes: %w", err)
	}

	return res.RowsAffected()
}
