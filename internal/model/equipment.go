package model

import (
	"errors"
	"fmt"
	"time"

	"rentalyard/internal/calendar"
	"rentalyard/internal/lifecycle"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvariantViolated = errors.New("equipment invariant violated")

// EquipmentUnit is a physical rental asset and the only mutable entity of the lifecycle.
type EquipmentUnit struct {
	ID                    uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SerialNumber          string              `gorm:"type:varchar(100);uniqueIndex;not null" json:"serial_number"`
	Designation           string              `gorm:"type:varchar(255);not null" json:"designation"`
	Category              string              `gorm:"type:varchar(100);index" json:"category"`
	DailyRate             decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"daily_rate"`
	MinimumInvoice        decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"minimum_invoice"`
	MinimumInvoiceEnabled bool                `gorm:"not null" json:"minimum_invoice_enabled"`
	Status                lifecycle.Status    `gorm:"type:varchar(20);not null;index" json:"status"`

	// Rental fields: set while RESERVED or RENTED.
	ClientName     *string        `gorm:"type:varchar(255)" json:"client_name"`
	RentalStart    *calendar.Date `gorm:"type:date" json:"rental_start"`
	TheoreticalEnd *calendar.Date `gorm:"type:date" json:"theoretical_end"`
	RentalNote     *string        `gorm:"type:text" json:"rental_note"`

	// Maintenance fields: set while IN_MAINTENANCE.
	MaintenanceStart *time.Time `json:"maintenance_start"`
	MaintenanceMotif *string    `gorm:"type:text" json:"maintenance_motif"`
	ReturnNote       *string    `gorm:"type:text" json:"return_note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetRental fills the rental fields for a reservation or a rental.
func (u *EquipmentUnit) SetRental(client string, start calendar.Date, theoreticalEnd *calendar.Date, note string) {
	u.ClientName = &client
	u.RentalStart = &start
	u.TheoreticalEnd = nil
	if theoreticalEnd != nil {
		end := *theoreticalEnd
		u.TheoreticalEnd = &end
	}
	u.RentalNote = nil
	if note != "" {
		u.RentalNote = &note
	}
}

func (u *EquipmentUnit) ClearRental() {
	u.ClientName = nil
	u.RentalStart = nil
	u.TheoreticalEnd = nil
	u.RentalNote = nil
}

func (u *EquipmentUnit) ClearMaintenance() {
	u.MaintenanceStart = nil
	u.MaintenanceMotif = nil
	u.ReturnNote = nil
}

// CheckInvariants verifies that only the fields of the current status are active.
func (u *EquipmentUnit) CheckInvariants() error {
	if !u.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", u.Status, ErrInvariantViolated)
	}

	hasClient := u.ClientName != nil
	hasStart := u.RentalStart != nil
	if hasClient != hasStart {
		return fmt.Errorf("client and rental start must be set together: %w", ErrInvariantViolated)
	}
	if u.MaintenanceStart != nil && u.Status != lifecycle.StatusInMaintenance {
		return fmt.Errorf("maintenance start set while %s: %w", u.Status, ErrInvariantViolated)
	}

	hasMaintenance := u.MaintenanceStart != nil || u.MaintenanceMotif != nil || u.ReturnNote != nil
	if hasClient && hasMaintenance {
		return fmt.Errorf("rental and maintenance fields both active: %w", ErrInvariantViolated)
	}

	switch {
	case u.Status.HasRental() && !hasClient:
		return fmt.Errorf("%s unit has no client: %w", u.Status, ErrInvariantViolated)
	case !u.Status.HasRental() && hasClient:
		return fmt.Errorf("%s unit still has client: %w", u.Status, ErrInvariantViolated)
	case u.Status == lifecycle.StatusOnYard && hasMaintenance:
		return fmt.Errorf("unit on yard still has maintenance fields: %w", ErrInvariantViolated)
	}
	return nil
}
