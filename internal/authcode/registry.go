// Package authcode issues and validates the short-lived per-show codes
// that authorize cross-boundary ticket-class mutation messages.
package authcode

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"boxoffice/internal/entities"
)

const codeBytes = 16

type Store interface {
	UpsertAuthCode(ctx context.Context, code entities.ShowAuthCode) error
	GetAuthCode(ctx context.Context, showID uuid.UUID) (entities.ShowAuthCode, error)
	DeleteOrphanedAuthCodes(ctx context.Context) (int64, error)
}

type Registry struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewRegistry(store Store, ttl time.Duration) *Registry {
	return &Registry{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Issue creates a fresh code for the show, replacing any previous one.
func (r *Registry) Issue(ctx context.Context, showID uuid.UUID) (string, error) {
	raw := make([]byte, codeBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate auth code: %w", err)
	}
	code := hex.EncodeToString(raw)

	err := r.store.UpsertAuthCode(ctx, entities.ShowAuthCode{
		ShowID:    showID,
		AuthCode:  code,
		ExpiresAt: r.now().Add(r.ttl),
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

// Validate succeeds only when a matching, unexpired code exists for the
// show. A missing, expired, or mismatched code all come back as
// ErrInvalidAuthCode, so callers leak nothing about which it was.
func (r *Registry) Validate(ctx context.Context, showID uuid.UUID, code string) error {
	stored, err := r.store.GetAuthCode(ctx, showID)
	if errors.Is(err, entities.ErrNotFound) {
		return entities.ErrInvalidAuthCode
	}
	if err != nil {
		return err
	}

	if stored.ExpiredAt(r.now()) {
		return entities.ErrInvalidAuthCode
	}
	if subtle.ConstantTimeCompare([]byte(stored.AuthCode), []byte(code)) != 1 {
		return entities.ErrInvalidAuthCode
	}

	return nil
}

// Purge removes codes whose show has no remaining ticket classes.
func (r *Registry) Purge(ctx context.Context) (int64, error) {
	return r.store.DeleteOrphanedAuthCodes(ctx)
}
