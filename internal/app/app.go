package app

import (
	"context"
	"os"
	"time"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"boxoffice/internal/application/usecases/reservation"
	showsusecase "boxoffice/internal/application/usecases/shows"
	"boxoffice/internal/authcode"
	"boxoffice/internal/config"
	"boxoffice/internal/identity"
	"boxoffice/internal/infrastructure/event_publisher"
	"boxoffice/internal/interfaces/events"
	"boxoffice/internal/interfaces/http"
	"boxoffice/internal/repository"
	"boxoffice/internal/scheduler"
)

type App struct {
	logger zerolog.Logger
	router *message.Router
	srv    *http.Server
	runner *scheduler.Runner
	db     *sqlx.DB
}

func NewApp(
	watermillLogger watermill.LoggerAdapter,
	redisClient *redis.Client,
	db *sqlx.DB,
	cfg *config.Config,
) (*App, error) {
	getter := trmsqlx.DefaultCtxGetter
	trManager := trmanager.Must(trmsqlx.NewDefaultFactory(db))

	invoicesRepo := repository.NewInvoicesRepo(db, getter)
	classesRepo := repository.NewTicketClassesRepo(db, getter)
	ticketsRepo := repository.NewTicketsRepo(db, getter)
	showsRepo := repository.NewShowsRepo(db, getter)
	authCodesRepo := repository.NewAuthCodesRepo(db, getter)

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	var publisher message.Publisher
	publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: redisClient,
	}, watermillLogger)
	if err != nil {
		return nil, err
	}
	publisher = event_publisher.CorrelationPublisherDecorator{
		Publisher: publisher,
	}

	eventBus, err := events.NewEventBus(publisher, watermillLogger)
	if err != nil {
		return nil, err
	}

	reservations := reservation.NewUsecase(
		invoicesRepo,
		classesRepo,
		ticketsRepo,
		trManager,
		cfg.ReservationTTL,
		cfg.ReserveMaxAttempts,
	)
	showsService := showsusecase.NewUsecase(showsRepo)
	authCodes := authcode.NewRegistry(authCodesRepo, cfg.AuthCodeTTL)

	systemActor := identity.Actor(cfg.SystemActor)

	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.ActorMiddleware(systemActor))
	router.AddMiddleware(events.LoggingMiddleware)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	// skip marshalling errors before retrying
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)

	processor, err := events.NewEventProcessor(router, redisClient, watermillLogger)
	if err != nil {
		return nil, err
	}
	processor.AddHandlers(
		events.ReleaseExpiredLockHandler(reservations),
		events.PaymentStatusHandler(reservations),
		events.TicketClassUpsertHandler(authCodes, classesRepo),
	)

	logger := zerolog.New(os.Stdout)

	runner, err := scheduler.NewRunner(logger, systemActor)
	if err != nil {
		return nil, err
	}
	if err := runner.Add(cfg.SweepInterval, scheduler.NewExpirationSweeper(invoicesRepo, eventBus, cfg.SweepBatchSize)); err != nil {
		return nil, err
	}
	if err := runner.Add(cfg.ShowStatusInterval, scheduler.NewShowStatusScheduler(showsRepo, eventBus)); err != nil {
		return nil, err
	}
	if err := runner.Add(cfg.AuthCodePurgeInterval, scheduler.NewAuthCodePurger(authCodes)); err != nil {
		return nil, err
	}

	e := commonHTTP.NewEcho()
	srv := http.NewServer(
		e,
		cfg.HTTPAddr,
		reservations,
		showsService,
		authCodes,
		identity.Actor(cfg.DefaultActor),
		router.IsRunning,
	)

	return &App{
		logger: logger,
		router: router,
		srv:    srv,
		runner: runner,
		db:     db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	if err := repository.InitializeDBSchema(a.db); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Msg("starting router")

		return a.router.Run(ctx)
	})

	g.Go(func() error {
		<-a.router.Running()
		a.logger.Info().Msg("router is running")

		a.runner.Start()
		a.logger.Info().Msg("schedulers are running")

		a.logger.Info().Msg("starting server")
		return a.srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := a.runner.Stop(); err != nil {
			a.logger.Err(err).Msg("error stopping schedulers")
		}

		err := a.srv.Stop(context.Background())
		if err != nil {
			a.logger.Err(err).Msg("error stopping server")
		}

		return err
	})

	return g.Wait()
}
