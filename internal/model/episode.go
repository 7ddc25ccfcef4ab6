package model

import (
	"time"

	"rentalyard/internal/billing"
	"rentalyard/internal/calendar"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentalEpisode is the immutable record of one completed rental.
// CA must always equal billing.ComputeCA over the row's own inputs.
type RentalEpisode struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EquipmentID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"equipment_id"`
	ClientName     string         `gorm:"type:varchar(255);not null" json:"client_name"`
	RentalStart    calendar.Date  `gorm:"type:date;not null" json:"rental_start"`
	TheoreticalEnd *calendar.Date `gorm:"type:date" json:"theoretical_end"`
	ReturnDate     calendar.Date  `gorm:"type:date;not null;index" json:"return_date"`
	BusinessDays   int            `gorm:"type:int;not null" json:"business_days"`

	// Billing inputs captured at return time.
	DailyRate                decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"daily_rate"`
	MinimumInvoiceEnabled    bool                `gorm:"not null" json:"minimum_invoice_enabled"`
	MinimumInvoiceConfigured decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"minimum_invoice_configured"`
	HolidayCalendarVersion   string              `gorm:"type:varchar(50)" json:"holiday_calendar_version"`

	// Billing result.
	LongDurationDiscount  bool            `gorm:"not null" json:"long_duration_discount"`
	MinimumInvoiceApplied bool            `gorm:"not null" json:"minimum_invoice_applied"`
	MinimumInvoiceAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"minimum_invoice_amount"`
	CA                    decimal.Decimal `gorm:"column:ca;type:decimal(18,2);not null" json:"ca"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRentalEpisode snapshots a unit at return time together with its billing result.
func NewRentalEpisode(unit *EquipmentUnit, returnDate calendar.Date, businessDays int, holidayVersion string, res billing.Result) RentalEpisode {
	ep := RentalEpisode{
		EquipmentID:              unit.ID,
		ReturnDate:               returnDate,
		BusinessDays:             businessDays,
		DailyRate:                unit.DailyRate,
		MinimumInvoiceEnabled:    unit.MinimumInvoiceEnabled,
		MinimumInvoiceConfigured: unit.MinimumInvoice,
		HolidayCalendarVersion:   holidayVersion,
	}
	if unit.ClientName != nil {
		ep.ClientName = *unit.ClientName
	}
	if unit.RentalStart != nil {
		ep.RentalStart = *unit.RentalStart
	}
	if unit.TheoreticalEnd != nil {
		end := *unit.TheoreticalEnd
		ep.TheoreticalEnd = &end
	}
	ep.ApplyResult(res)
	return ep
}

// ApplyResult copies a billing result into the row.
func (e *RentalEpisode) ApplyResult(res billing.Result) {
	e.LongDurationDiscount = res.LongDurationDiscountApplied
	e.MinimumInvoiceApplied = res.MinimumInvoiceApplied
	e.MinimumInvoiceAmount = res.MinimumInvoiceAmountUsed
	e.CA = res.CA
}

// StoredResult is the billing result as persisted.
func (e RentalEpisode) StoredResult() billing.Result {
	return billing.Result{
		CA:                          e.CA,
		LongDurationDiscountApplied: e.LongDurationDiscount,
		MinimumInvoiceApplied:       e.MinimumInvoiceApplied,
		MinimumInvoiceAmountUsed:    e.MinimumInvoiceAmount,
	}
}

// Recompute runs the billing formula over the row's stored inputs.
func (e RentalEpisode) Recompute() (billing.Result, error) {
	return billing.ComputeCA(
		e.BusinessDays,
		decimal.NewNullDecimal(e.DailyRate),
		e.MinimumInvoiceConfigured,
		e.MinimumInvoiceEnabled,
	)
}

// MaintenanceEpisode is the immutable record of one completed maintenance cycle.
type MaintenanceEpisode struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EquipmentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"equipment_id"`
	Motif        string    `gorm:"type:text" json:"motif"`
	ReturnNote   string    `gorm:"type:text" json:"return_note"`
	EnteredAt    time.Time `gorm:"not null;index" json:"entered_at"`
	ExitedAt     time.Time `gorm:"not null" json:"exited_at"`
	DurationDays int       `gorm:"type:int;not null" json:"duration_days"`
	CreatedAt    time.Time `json:"created_at"`
}

// WholeDaysBetween counts complete 24h periods from entered to exited.
func WholeDaysBetween(entered, exited time.Time) int {
	if exited.Before(entered) {
		return 0
	}
	return int(exited.Sub(entered) / (24 * time.Hour))
}
