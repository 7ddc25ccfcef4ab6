// Package events carries lifecycle notifications to external listeners.
// Delivery is best-effort and always happens after the change committed.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentalyard/internal/metrics"

	"go.uber.org/zap"
)

const (
	TypeEquipmentCreated    = "equipment.created"
	TypeReserved            = "equipment.reserved"
	TypeReservationCanceled = "equipment.reservation_canceled"
	TypeRentalStarted       = "equipment.rental_started"
	TypeReturned            = "equipment.returned"
	TypeMaintenanceDone     = "equipment.maintenance_completed"
	TypeCACorrected         = "rental_episode.ca_corrected"
)

type Event struct {
	Type        string                 `json:"type"`
	EquipmentID string                 `json:"equipment_id"`
	Status      string                 `json:"status,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type namedPublisher struct {
	name string
	pub  Publisher
}

// Fanout delivers each event to every registered publisher. A failing
// publisher does not stop the others.
type Fanout struct {
	publishers []namedPublisher
	logger     *zap.Logger
}

func NewFanout(logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{logger: logger}
}

func (f *Fanout) Add(name string, p Publisher) *Fanout {
	f.publishers = append(f.publishers, namedPublisher{name: name, pub: p})
	return f
}

func (f *Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, np := range f.publishers {
		if err := np.pub.Publish(ctx, ev); err != nil {
			metrics.EventPublishErrorsTotal.WithLabelValues(np.name).Inc()
			f.logger.Warn("event publish failed",
				zap.String("publisher", np.name),
				zap.String("type", ev.Type),
				zap.String("equipment_id", ev.EquipmentID),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", np.name, err))
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
