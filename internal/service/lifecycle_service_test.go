package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rentalyard/internal/calendar"
	"rentalyard/internal/events"
	"rentalyard/internal/lifecycle"
	"rentalyard/internal/model"
	"rentalyard/internal/repository"
	"rentalyard/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_FullCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.create(t, "EX-1", "150")

	reserved, err := f.lifecycle.Reserve(ctx, "op", unit.ID, ReserveRequest{
		ClientName:         "ACME",
		StartDate:          "01/10/2025",
		TheoreticalEndDate: "2025-10-10",
		Note:               "site B",
	})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusReserved, reserved.Status)
	assert.Equal(t, "2025-10-01", reserved.RentalStart.String())

	rented, err := f.lifecycle.BeginRental(ctx, "op", unit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusRented, rented.Status)
	assert.Equal(t, "ACME", *rented.ClientName)

	ret, err := f.lifecycle.ReturnUnit(ctx, "op", unit.ID, ReturnRequest{ReturnDate: "2025-10-08", ReturnNote: "bucket worn"})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusInMaintenance, ret.Equipment.Status)
	assert.Nil(t, ret.Equipment.ClientName)
	assert.Equal(t, "post-rental inspection", *ret.Equipment.MaintenanceMotif)
	assert.Equal(t, "bucket worn", *ret.Equipment.ReturnNote)
	assert.Equal(t, 5, ret.Episode.BusinessDays)
	assert.Equal(t, "750.00", ret.Episode.CA)
	assert.Equal(t, "2025-10-10", ret.Episode.TheoreticalEnd.String())
	assert.Equal(t, calendar.DefaultHolidayCalendar().Version, ret.Episode.HolidayCalendarVersion)

	f.clock = f.clock.Add(50 * time.Hour)
	done, err := f.lifecycle.CompleteMaintenance(ctx, "op", unit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusOnYard, done.Status)
	assert.Nil(t, done.MaintenanceStart)
	assert.Nil(t, done.ReturnNote)

	rentals, err := f.equipment.RentalHistory(ctx, unit.ID)
	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Equal(t, "750.00", rentals[0].CA)

	maint, err := f.equipment.MaintenanceHistory(ctx, unit.ID)
	require.NoError(t, err)
	require.Len(t, maint, 1)
	assert.Equal(t, 2, maint[0].DurationDays)
	assert.Equal(t, "bucket worn", maint[0].ReturnNote)

	logs, total, err := f.store.Audit().List(ctx, repository.AuditFilter{EntityID: unit.ID}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Equal(t, model.ActionCompleteMaintenance, logs[0].Action)

	assert.Equal(t, []string{
		events.TypeEquipmentCreated,
		events.TypeReserved,
		events.TypeRentalStarted,
		events.TypeReturned,
		events.TypeMaintenanceDone,
	}, f.pub.types())
}

func TestLifecycle_CancelReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.create(t, "EX-2", "90")

	_, err := f.lifecycle.Reserve(ctx, "op", unit.ID, ReserveRequest{ClientName: "ACME", StartDate: "2025-10-01"})
	require.NoError(t, err)

	back, err := f.lifecycle.CancelReservation(ctx, "op", unit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusOnYard, back.Status)
	assert.Nil(t, back.ClientName)
	assert.Nil(t, back.RentalStart)

	rentals, err := f.equipment.RentalHistory(ctx, unit.ID)
	require.NoError(t, err)
	assert.Empty(t, rentals)
}

func TestLifecycle_ReturnFromYardIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.create(t, "EX-3", "150")

	_, err := f.lifecycle.ReturnUnit(ctx, "op", unit.ID, ReturnRequest{ReturnDate: "2025-10-08"})

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, lifecycle.EventReturn, terr.Event)
	assert.ErrorIs(t, err, lifecycle.ErrTransitionNotAllowed)

	got, err := f.equipment.GetEquipment(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusOnYard, got.Status)

	rentals, _ := f.equipment.RentalHistory(ctx, unit.ID)
	assert.Empty(t, rentals)
	_, total, _ := f.store.Audit().List(ctx, repository.AuditFilter{Action: model.ActionReturnEquipment}, 1, 10)
	assert.Zero(t, total)
}

func TestLifecycle_ReturnBeforeStartKeepsRental(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.create(t, "EX-4", "150")
	f.rent(t, unit.ID, "2025-10-08")

	_, err := f.lifecycle.ReturnUnit(ctx, "op", unit.ID, ReturnRequest{ReturnDate: "2025-10-01"})
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	got, err := f.equipment.GetEquipment(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusRented, got.Status)
	assert.Equal(t, "ACME", *got.ClientName)

	rentals, _ := f.equipment.RentalHistory(ctx, unit.ID)
	assert.Empty(t, rentals)
}

func TestLifecycle_ReturnSameDayBillsFloor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.createWithFloor(t, "PC-1", "30", "200")
	f.rent(t, unit.ID, "2025-10-06")

	ret, err := f.lifecycle.ReturnUnit(ctx, "op", unit.ID, ReturnRequest{ReturnDate: "2025-10-06"})
	require.NoError(t, err)
	assert.Equal(t, 0, ret.Episode.BusinessDays)
	assert.Equal(t, "200.00", ret.Episode.CA)
	assert.True(t, ret.Episode.MinimumInvoiceApplied)
}

func TestLifecycle_LongRentalDiscount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.create(t, "EX-5", "100")
	// 2025-10-01 to 2025-10-30: 21 weekdays, no holidays.
	f.rent(t, unit.ID, "2025-10-01")

	ret, err := f.lifecycle.ReturnUnit(ctx, "op", unit.ID, ReturnRequest{ReturnDate: "2025-10-30"})
	require.NoError(t, err)
	assert.Equal(t, 21, ret.Episode.BusinessDays)
	assert.Equal(t, "1680.00", ret.Episode.CA)
	assert.True(t, ret.Episode.LongDurationDiscount)
}

func TestLifecycle_InvalidRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.create(t, "EX-6", "150")

	_, err := f.lifecycle.Reserve(ctx, "op", unit.ID, ReserveRequest{ClientName: "ACME", StartDate: "someday"})
	assert.ErrorIs(t, err, calendar.ErrUnparseableDate)

	_, err = f.lifecycle.Reserve(ctx, "op", unit.ID, ReserveRequest{StartDate: "2025-10-01"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.lifecycle.Reserve(ctx, "op", unit.ID, ReserveRequest{ClientName: "ACME", StartDate: "2025-10-10", TheoreticalEndDate: "2025-10-01"})
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)

	_, err = f.lifecycle.BeginRental(ctx, "op", "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.lifecycle.BeginRental(ctx, "op", uuid.NewString())
	assert.ErrorIs(t, err, ErrEquipmentNotFound)

	got, err := f.equipment.GetEquipment(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusOnYard, got.Status)
}

func TestLifecycle_StorageFailuresLeaveNoTrace(t *testing.T) {
	for _, op := range []string{memory.OpRentalAppend, memory.OpEquipmentUpdate, memory.OpAuditLog, memory.OpCommit} {
		t.Run(op, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			unit := f.create(t, "EX-7", "150")
			f.rent(t, unit.ID, "2025-10-01")
			published := len(f.pub.types())

			f.store.FailNext(op, errors.New("storage unavailable"))
			_, err := f.lifecycle.ReturnUnit(ctx, "op", unit.ID, ReturnRequest{ReturnDate: "2025-10-08"})
			assert.ErrorIs(t, err, ErrPersistenceFailure)

			got, err := f.equipment.GetEquipment(ctx, unit.ID)
			require.NoError(t, err)
			assert.Equal(t, lifecycle.StatusRented, got.Status)
			assert.Nil(t, got.MaintenanceStart)

			rentals, _ := f.equipment.RentalHistory(ctx, unit.ID)
			assert.Empty(t, rentals)
			assert.Len(t, f.pub.types(), published, "nothing published for a failed transition")

			// The same return succeeds once storage recovers.
			ret, err := f.lifecycle.ReturnUnit(ctx, "op", unit.ID, ReturnRequest{ReturnDate: "2025-10-08"})
			require.NoError(t, err)
			assert.Equal(t, "750.00", ret.Episode.CA)
		})
	}
}

func TestLifecycle_ConcurrentReturnsBillOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.create(t, "EX-8", "150")
	f.rent(t, unit.ID, "2025-10-01")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.lifecycle.ReturnUnit(ctx, "op", unit.ID, ReturnRequest{ReturnDate: "2025-10-08"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, lifecycle.ErrTransitionNotAllowed)
	}
	assert.Equal(t, 1, ok)

	rentals, err := f.equipment.RentalHistory(ctx, unit.ID)
	require.NoError(t, err)
	assert.Len(t, rentals, 1)
}

func TestLifecycle_CompleteMaintenanceWithoutStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	legacy := &model.EquipmentUnit{
		SerialNumber: "OLD-1",
		Designation:  "Legacy generator",
		Status:       lifecycle.StatusInMaintenance,
	}
	require.NoError(t, f.store.Equipment().Create(ctx, legacy))

	done, err := f.lifecycle.CompleteMaintenance(ctx, "op", legacy.ID.String())
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusOnYard, done.Status)

	maint, err := f.equipment.MaintenanceHistory(ctx, legacy.ID.String())
	require.NoError(t, err)
	assert.Empty(t, maint)
}

func TestLifecycle_PublishFailureDoesNotUndo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.create(t, "EX-9", "150")
	f.pub.err = errors.New("broker down")

	res, err := f.lifecycle.Reserve(ctx, "op", unit.ID, ReserveRequest{ClientName: "ACME", StartDate: "2025-10-01"})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusReserved, res.Status)
}

func TestLifecycle_TransitionTableEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	unit := f.create(t, "EX-10", "150")

	rejected := map[string]func() error{
		"cancel": func() error { _, err := f.lifecycle.CancelReservation(ctx, "op", unit.ID); return err },
		"begin":  func() error { _, err := f.lifecycle.BeginRental(ctx, "op", unit.ID); return err },
		"finish": func() error { _, err := f.lifecycle.CompleteMaintenance(ctx, "op", unit.ID); return err },
	}
	for name, call := range rejected {
		assert.ErrorIs(t, call(), lifecycle.ErrTransitionNotAllowed, name)
	}

	f.rent(t, unit.ID, "2025-10-01")
	_, err := f.lifecycle.Reserve(ctx, "op", unit.ID, ReserveRequest{ClientName: "B", StartDate: "2025-10-02"})
	assert.ErrorIs(t, err, lifecycle.ErrTransitionNotAllowed)
}

func TestUnitLocker_SerializesPerUnit(t *testing.T) {
	l := newUnitLocker()
	id := uuid.New()

	release := l.Lock(id)
	acquired := make(chan struct{})
	go func() {
		r := l.Lock(id)
		close(acquired)
		r()
	}()

	// Another unit is not blocked by the held one.
	l.Lock(uuid.New())()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	<-acquired

	// Released names can be taken again.
	l.Lock(id)()
}
