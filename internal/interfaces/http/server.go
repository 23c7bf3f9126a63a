package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"boxoffice/internal/application/usecases/reservation"
	"boxoffice/internal/application/usecases/shows"
	"boxoffice/internal/authcode"
	"boxoffice/internal/entities"
	"boxoffice/internal/identity"
)

type Server struct {
	e *echo.Echo

	addr string

	reservations *reservation.Usecase
	shows        *shows.Usecase
	authCodes    *authcode.Registry
}

func NewServer(
	e *echo.Echo,
	addr string,
	reservations *reservation.Usecase,
	showsService *shows.Usecase,
	authCodes *authcode.Registry,
	defaultActor identity.Actor,
	routerIsRunning func() bool,
) *Server {
	srv := &Server{
		e:            e,
		addr:         addr,
		reservations: reservations,
		shows:        showsService,
		authCodes:    authCodes,
	}

	e.POST("/reservations", srv.ReserveHandler)
	e.POST("/invoices/:invoice_id/confirm", srv.ConfirmHandler)

	e.POST("/shows", srv.CreateShowHandler)
	e.GET("/shows/:show_id", srv.GetShowHandler)
	e.POST("/shows/:show_id/sale-status", srv.UpdateSaleStatusHandler)
	e.POST("/shows/:show_id/auth-code", srv.IssueAuthCodeHandler)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})

	// every request runs as the caller-declared actor or the configured
	// default; nothing downstream reads a global identity
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := defaultActor
			if header := c.Request().Header.Get("X-Actor"); header != "" {
				actor = identity.Actor(header)
			}

			ctx := identity.WithActor(c.Request().Context(), actor)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	})

	// logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log.FromContext(c.Request().Context()).
				WithField("path", c.Request().URL.Path).
				Info("Handling a request")

			err := next(c)

			if err != nil {
				log.FromContext(c.Request().Context()).
					WithField("error", err).
					Error("Request handling error")
			}

			return err
		}
	})

	return srv
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// httpError maps the domain error taxonomy onto response codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, entities.ErrOutOfStock):
		return echo.NewHTTPError(http.StatusConflict, "insufficient availability")
	case errors.Is(err, entities.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "conflicting concurrent update, retry later")
	case errors.Is(err, entities.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, entities.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid status transition")
	default:
		return err
	}
}
