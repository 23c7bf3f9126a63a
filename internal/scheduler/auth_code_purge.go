package scheduler

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

type AuthCodeRegistry interface {
	Purge(ctx context.Context) (int64, error)
}

// AuthCodePurger drops auth codes whose show has no ticket classes left.
type AuthCodePurger struct {
	registry AuthCodeRegistry
}

func NewAuthCodePurger(registry AuthCodeRegistry) *AuthCodePurger {
	return &AuthCodePurger{registry: registry}
}

func (p *AuthCodePurger) Name() string {
	return "auth_code_purger"
}

func (p *AuthCodePurger) Run(ctx context.Context) error {
	purged, err := p.registry.Purge(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge auth codes: %w", err)
	}

	if purged > 0 {
		log.FromContext(ctx).
			WithField("count", purged).
			Info("Purged orphaned auth codes")
	}

	return nil
}
