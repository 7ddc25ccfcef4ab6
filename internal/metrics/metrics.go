package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalyard_transitions_total",
		Help: "Total number of equipment lifecycle transitions committed.",
	},
		[]string{"event"},
	)

	TransitionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalyard_transition_errors_total",
		Help: "Total number of rejected or failed lifecycle transitions.",
	},
		[]string{"event", "reason"},
	)

	CABilledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentalyard_ca_billed_total",
		Help: "Sum of CA recorded on returned rentals.",
	})

	RentalEpisodesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentalyard_rental_episodes_total",
		Help: "Total number of rental episodes archived.",
	})

	MaintenanceEpisodesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentalyard_maintenance_episodes_total",
		Help: "Total number of maintenance episodes archived.",
	})

	MaintenanceWithoutStartTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentalyard_maintenance_without_start_total",
		Help: "Maintenance completions that had no start timestamp and archived nothing.",
	})

	CAAuditDiscrepancies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentalyard_ca_audit_discrepancies",
		Help: "Rental episodes whose stored CA differs from the recomputed one at the last audit.",
	})

	EventPublishErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalyard_event_publish_errors_total",
		Help: "Total number of events a publisher failed to deliver.",
	},
		[]string{"publisher"},
	)
)
