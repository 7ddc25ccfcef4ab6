package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateEquipment     = "CREATE_EQUIPMENT"
	ActionReserve             = "RESERVE_EQUIPMENT"
	ActionCancelReservation   = "CANCEL_RESERVATION"
	ActionBeginRental         = "BEGIN_RENTAL"
	ActionBeginRentalDirect   = "BEGIN_RENTAL_DIRECT"
	ActionReturnEquipment     = "RETURN_EQUIPMENT"
	ActionCompleteMaintenance = "COMPLETE_MAINTENANCE"

	// Out-of-band correction of legacy rental episodes.
	ActionBackfillCA = "BACKFILL_CA"
)

// AuditLog tracks Who, What, and When for every lifecycle change
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Actor      string    `gorm:"type:varchar(100);index" json:"actor"` // JWT subject, or "system" for jobs
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string    `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
