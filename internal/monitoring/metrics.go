package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SchedulerCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_scheduler_cycles_total",
			Help: "Completed scheduler cycles per task and outcome",
		},
		[]string{"task", "outcome"},
	)

	InvoicesExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boxoffice_invoices_expired_total",
			Help: "Invoices transitioned to PAYMENT_EXPIRED by the sweeper",
		},
	)

	ShowsEnded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "boxoffice_shows_ended_total",
			Help: "Shows transitioned to ENDED by the status scheduler",
		},
	)

	PublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_publish_failures_total",
			Help: "Event publications that failed after a committed state change",
		},
		[]string{"event"},
	)

	ReservationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxoffice_reservation_rejections_total",
			Help: "Reservations rejected, by reason",
		},
		[]string{"reason"},
	)
)
