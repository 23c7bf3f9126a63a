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

type ShowsStore interface {
	FindAutoUpdatable(ctx context.Context) ([]entities.Show, error)
	MarkEnded(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

// ShowStatusScheduler pushes shows whose scheduled start has passed to
// ENDED. It only ever moves toward ENDED and only touches shows with
// auto-update enabled; everything else changes via operator-driven
// transitions.
type ShowStatusScheduler struct {
	shows    ShowsStore
	eventBus EventBus
	now      func() time.Time
}

func NewShowStatusScheduler(shows ShowsStore, eventBus EventBus) *ShowStatusScheduler {
	return &ShowStatusScheduler{
		shows:    shows,
		eventBus: eventBus,
		now:      time.Now,
	}
}

func (s *ShowStatusScheduler) Name() string {
	return "show_status_scheduler"
}

func (s *ShowStatusScheduler) Run(ctx context.Context) error {
	now := s.now()

	shows, err := s.shows.FindAutoUpdatable(ctx)
	if err != nil {
		return fmt.Errorf("failed to scan shows: %w", err)
	}

	var passed []uuid.UUID
	for _, show := range shows {
		if show.Passed(now) {
			passed = append(passed, show.ID)
		}
	}
	if len(passed) == 0 {
		return nil
	}

	ended, err := s.shows.MarkEnded(ctx, passed)
	if err != nil {
		return fmt.Errorf("failed to end shows: %w", err)
	}

	for _, id := range ended {
		event := entities.ShowEnded_v1{
			Header:  entities.NewEventHeader(id.String()),
			ShowID:  id.String(),
			EndedAt: now,
		}

		if err := s.eventBus.Publish(ctx, event); err != nil {
			monitoring.PublishFailures.WithLabelValues("ShowEnded_v1").Inc()
			log.FromContext(ctx).
				WithField("show_id", id.String()).
				WithField("error", err).
				Error("Failed to publish show ended event")
		}
	}

	monitoring.ShowsEnded.Add(float64(len(ended)))
	log.FromContext(ctx).
		WithField("count", len(ended)).
		Info("Ended shows past their start time")

	return nil
}
