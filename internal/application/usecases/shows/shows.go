package shows

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"boxoffice/internal/entities"
)

type ShowsRepo interface {
	CreateShow(ctx context.Context, show entities.Show) (uuid.UUID, error)
	GetShow(ctx context.Context, id uuid.UUID) (entities.Show, error)
	UpdateSaleStatus(ctx context.Context, id uuid.UUID, from, to entities.SaleStatus) error
}

type Usecase struct {
	showsRepo ShowsRepo
}

func NewUsecase(showsRepo ShowsRepo) *Usecase {
	return &Usecase{
		showsRepo: showsRepo,
	}
}

func (u *Usecase) CreateShow(ctx context.Context, show entities.Show) (uuid.UUID, error) {
	if show.SaleStatus == "" {
		show.SaleStatus = entities.SaleStatusUpcoming
	}
	if !show.SaleStatus.Valid() {
		return uuid.Nil, fmt.Errorf("unknown sale status %q", show.SaleStatus)
	}

	return u.showsRepo.CreateShow(ctx, show)
}

func (u *Usecase) GetShow(ctx context.Context, id uuid.UUID) (entities.Show, error) {
	return u.showsRepo.GetShow(ctx, id)
}

// UpdateSaleStatus applies an externally driven transition. The sale
// status only ever moves forward along
// UPCOMING -> ON_SALE -> SOLD_OUT -> ENDED; repeating the current status
// is a no-op.
func (u *Usecase) UpdateSaleStatus(ctx context.Context, id uuid.UUID, to entities.SaleStatus) error {
	if !to.Valid() {
		return fmt.Errorf("unknown sale status %q", to)
	}

	show, err := u.showsRepo.GetShow(ctx, id)
	if err != nil {
		return err
	}

	if show.SaleStatus == to {
		return nil
	}
	if !show.SaleStatus.CanTransitionTo(to) {
		return fmt.Errorf("cannot move show %s from %s to %s: %w",
			id, show.SaleStatus, to, entities.ErrInvalidTransition)
	}

	return u.showsRepo.UpdateSaleStatus(ctx, id, show.SaleStatus, to)
}
