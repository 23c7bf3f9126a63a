// Package scheduler owns the process's recurring tasks: the expiration
// sweeper and the show status scheduler. Tasks run on fixed periods,
// independently of request traffic; a failing cycle is logged and the
// next cycle runs regardless.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"boxoffice/internal/identity"
	"boxoffice/internal/monitoring"
)

type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type Runner struct {
	scheduler gocron.Scheduler
	logger    zerolog.Logger
	actor     identity.Actor
}

// NewRunner builds a runner whose tasks all execute as the given actor.
func NewRunner(logger zerolog.Logger, actor identity.Actor) (*Runner, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Runner{
		scheduler: s,
		logger:    logger,
		actor:     actor,
	}, nil
}

func (r *Runner) Add(period time.Duration, task Task) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(func() {
			ctx := identity.WithActor(context.Background(), r.actor)

			if err := task.Run(ctx); err != nil {
				monitoring.SchedulerCycles.WithLabelValues(task.Name(), "error").Inc()
				r.logger.Err(err).Str("task", task.Name()).Msg("scheduler cycle failed")
				return
			}

			monitoring.SchedulerCycles.WithLabelValues(task.Name(), "ok").Inc()
		}),
	)
	return err
}

func (r *Runner) Start() {
	r.scheduler.Start()
}

func (r *Runner) Stop() error {
	return r.scheduler.Shutdown()
}
