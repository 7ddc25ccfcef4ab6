package model

import (
	"testing"
	"time"

	"rentalyard/internal/billing"
	"rentalyard/internal/calendar"
	"rentalyard/internal/lifecycle"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newUnit(status lifecycle.Status) *EquipmentUnit {
	return &EquipmentUnit{
		ID:           uuid.New(),
		SerialNumber: "SN-1",
		Designation:  "Telehandler",
		DailyRate:    decimal.RequireFromString("150"),
		Status:       status,
	}
}

func TestCheckInvariants_Valid(t *testing.T) {
	start := calendar.MustParseISO("2025-10-01")
	now := time.Now()

	onYard := newUnit(lifecycle.StatusOnYard)
	assert.NoError(t, onYard.CheckInvariants())

	reserved := newUnit(lifecycle.StatusReserved)
	reserved.SetRental("ACME", start, nil, "")
	assert.NoError(t, reserved.CheckInvariants())

	rented := newUnit(lifecycle.StatusRented)
	end := start.AddDays(7)
	rented.SetRental("ACME", start, &end, "long job")
	assert.NoError(t, rented.CheckInvariants())

	maint := newUnit(lifecycle.StatusInMaintenance)
	maint.MaintenanceStart = &now
	maint.MaintenanceMotif = strPtr("post-rental inspection")
	assert.NoError(t, maint.CheckInvariants())

	legacy := newUnit(lifecycle.StatusInMaintenance)
	assert.NoError(t, legacy.CheckInvariants(), "legacy unit without maintenance start")
}

func TestCheckInvariants_Violations(t *testing.T) {
	start := calendar.MustParseISO("2025-10-01")
	now := time.Now()

	tests := []struct {
		name string
		unit func() *EquipmentUnit
	}{
		{"unknown status", func() *EquipmentUnit { return newUnit("LOST") }},
		{"rented without client", func() *EquipmentUnit { return newUnit(lifecycle.StatusRented) }},
		{"on yard with client", func() *EquipmentUnit {
			u := newUnit(lifecycle.StatusOnYard)
			u.SetRental("ACME", start, nil, "")
			return u
		}},
		{"client without start", func() *EquipmentUnit {
			u := newUnit(lifecycle.StatusReserved)
			u.ClientName = strPtr("ACME")
			return u
		}},
		{"maintenance start outside maintenance", func() *EquipmentUnit {
			u := newUnit(lifecycle.StatusRented)
			u.SetRental("ACME", start, nil, "")
			u.MaintenanceStart = &now
			return u
		}},
		{"maintenance with client", func() *EquipmentUnit {
			u := newUnit(lifecycle.StatusInMaintenance)
			u.SetRental("ACME", start, nil, "")
			u.MaintenanceMotif = strPtr("x")
			return u
		}},
		{"on yard with return note", func() *EquipmentUnit {
			u := newUnit(lifecycle.StatusOnYard)
			u.ReturnNote = strPtr("dented")
			return u
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.unit().CheckInvariants(), ErrInvariantViolated)
		})
	}
}

func TestSetRental_CopiesEndDate(t *testing.T) {
	u := newUnit(lifecycle.StatusRented)
	end := calendar.MustParseISO("2025-10-10")
	u.SetRental("ACME", calendar.MustParseISO("2025-10-01"), &end, "")

	end = end.AddDays(5)
	require.NotNil(t, u.TheoreticalEnd)
	assert.Equal(t, "2025-10-10", u.TheoreticalEnd.String())
	assert.Nil(t, u.RentalNote)

	u.ClearRental()
	assert.Nil(t, u.ClientName)
	assert.Nil(t, u.RentalStart)
	assert.Nil(t, u.TheoreticalEnd)
}

func TestNewRentalEpisode_SnapshotsUnit(t *testing.T) {
	u := newUnit(lifecycle.StatusRented)
	u.MinimumInvoice = decimal.NewNullDecimal(decimal.RequireFromString("200"))
	u.MinimumInvoiceEnabled = true
	u.SetRental("ACME", calendar.MustParseISO("2025-10-01"), nil, "")

	res, err := billing.ComputeCA(5, decimal.NewNullDecimal(u.DailyRate), u.MinimumInvoice, true)
	require.NoError(t, err)
	ep := NewRentalEpisode(u, calendar.MustParseISO("2025-10-08"), 5, "fr-test", res)

	assert.Equal(t, u.ID, ep.EquipmentID)
	assert.Equal(t, "ACME", ep.ClientName)
	assert.Equal(t, "2025-10-01", ep.RentalStart.String())
	assert.Equal(t, "750.00", ep.CA.StringFixed(2))
	assert.Equal(t, "fr-test", ep.HolidayCalendarVersion)
	assert.True(t, ep.StoredResult().Equal(res))

	again, err := ep.Recompute()
	require.NoError(t, err)
	assert.True(t, again.Equal(ep.StoredResult()))
}

func TestWholeDaysBetween(t *testing.T) {
	entered := time.Date(2025, 10, 8, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, WholeDaysBetween(entered, entered.Add(23*time.Hour)))
	assert.Equal(t, 1, WholeDaysBetween(entered, entered.Add(24*time.Hour)))
	assert.Equal(t, 2, WholeDaysBetween(entered, entered.Add(71*time.Hour)))
	assert.Equal(t, 0, WholeDaysBetween(entered, entered.Add(-time.Hour)))
}
