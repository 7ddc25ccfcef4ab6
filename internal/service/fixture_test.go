package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rentalyard/internal/calendar"
	"rentalyard/internal/events"
	"rentalyard/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

// recorder is an events.Publisher that keeps what it receives.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	cal       *calendar.Service
	pub       *recorder
	clock     time.Time
	equipment EquipmentService
	lifecycle LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		cal:   calendar.NewService(calendar.Options{Holidays: calendar.DefaultHolidayCalendar()}),
		pub:   &recorder{},
		clock: time.Date(2025, 10, 8, 17, 0, 0, 0, time.UTC),
	}
	f.equipment = NewEquipmentService(
		f.store.Equipment(), f.store.RentalEpisodes(), f.store.MaintenanceEpisodes(),
		f.store.Audit(), f.store, f.pub, nil,
	)
	f.lifecycle = NewLifecycleService(LifecycleDeps{
		EquipmentRepo:    f.store.Equipment(),
		RentalRepo:       f.store.RentalEpisodes(),
		MaintenanceRepo:  f.store.MaintenanceEpisodes(),
		AuditRepo:        f.store.Audit(),
		TxManager:        f.store,
		Calendar:         f.cal,
		Publisher:        f.pub,
		MaintenanceMotif: "post-rental inspection",
		Now:              func() time.Time { return f.clock },
	})
	return f
}

func (f *fixture) create(t *testing.T, serial, rate string) EquipmentResponse {
	t.Helper()
	unit, err := f.equipment.CreateEquipment(context.Background(), "mgr", CreateEquipmentRequest{
		SerialNumber: serial,
		Designation:  "Mini excavator",
		Category:     "earthmoving",
		DailyRate:    rate,
	})
	require.NoError(t, err)
	return unit
}

func (f *fixture) createWithFloor(t *testing.T, serial, rate, floor string) EquipmentResponse {
	t.Helper()
	unit, err := f.equipment.CreateEquipment(context.Background(), "mgr", CreateEquipmentRequest{
		SerialNumber:          serial,
		Designation:           "Plate compactor",
		DailyRate:             rate,
		MinimumInvoice:        floor,
		MinimumInvoiceEnabled: true,
	})
	require.NoError(t, err)
	return unit
}

// rent moves a new unit to RENTED starting on start.
func (f *fixture) rent(t *testing.T, id, start string) {
	t.Helper()
	_, err := f.lifecycle.BeginRentalDirect(context.Background(), "op", id, RentRequest{ClientName: "ACME", StartDate: start})
	require.NoError(t, err)
}
