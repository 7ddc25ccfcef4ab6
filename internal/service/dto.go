package service

import (
	"time"

	"rentalyard/internal/calendar"
	"rentalyard/internal/lifecycle"
	"rentalyard/internal/model"
)

// DTOs

type CreateEquipmentRequest struct {
	SerialNumber          string `json:"serial_number" binding:"required"`
	Designation           string `json:"designation" binding:"required"`
	Category              string `json:"category"`
	DailyRate             string `json:"daily_rate" binding:"required"` // decimal string, e.g. "150.00"
	MinimumInvoice        string `json:"minimum_invoice"`
	MinimumInvoiceEnabled bool   `json:"minimum_invoice_enabled"`
}

// ReserveRequest carries the rental terms. Dates accept ISO or the local
// day/month/year format.
type ReserveRequest struct {
	ClientName         string `json:"client_name" binding:"required"`
	StartDate          string `json:"start_date" binding:"required"`
	TheoreticalEndDate string `json:"theoretical_end_date"`
	Note               string `json:"note"`
}

// RentRequest starts a rental without a prior reservation.
type RentRequest = ReserveRequest

type ReturnRequest struct {
	ReturnDate string `json:"return_date" binding:"required"`
	ReturnNote string `json:"return_note"`
}

type EquipmentResponse struct {
	ID                    string            `json:"id"`
	SerialNumber          string            `json:"serial_number"`
	Designation           string            `json:"designation"`
	Category              string            `json:"category"`
	DailyRate             string            `json:"daily_rate"`
	MinimumInvoice        *string           `json:"minimum_invoice"`
	MinimumInvoiceEnabled bool              `json:"minimum_invoice_enabled"`
	Status                lifecycle.Status  `json:"status"`
	AllowedEvents         []lifecycle.Event `json:"allowed_events"`
	ClientName            *string           `json:"client_name"`
	RentalStart           *calendar.Date    `json:"rental_start"`
	TheoreticalEnd        *calendar.Date    `json:"theoretical_end"`
	RentalNote            *string           `json:"rental_note"`
	MaintenanceStart      *time.Time        `json:"maintenance_start"`
	MaintenanceMotif      *string           `json:"maintenance_motif"`
	ReturnNote            *string           `json:"return_note"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

type RentalEpisodeResponse struct {
	ID                     string         `json:"id"`
	EquipmentID            string         `json:"equipment_id"`
	ClientName             string         `json:"client_name"`
	RentalStart            calendar.Date  `json:"rental_start"`
	TheoreticalEnd         *calendar.Date `json:"theoretical_end"`
	ReturnDate             calendar.Date  `json:"return_date"`
	BusinessDays           int            `json:"business_days"`
	DailyRate              string         `json:"daily_rate"`
	LongDurationDiscount   bool           `json:"long_duration_discount"`
	MinimumInvoiceApplied  bool           `json:"minimum_invoice_applied"`
	MinimumInvoiceAmount   string         `json:"minimum_invoice_amount"`
	CA                     string         `json:"ca"`
	HolidayCalendarVersion string         `json:"holiday_calendar_version"`
}

type MaintenanceEpisodeResponse struct {
	ID           string    `json:"id"`
	EquipmentID  string    `json:"equipment_id"`
	Motif        string    `json:"motif"`
	ReturnNote   string    `json:"return_note"`
	EnteredAt    time.Time `json:"entered_at"`
	ExitedAt     time.Time `json:"exited_at"`
	DurationDays int       `json:"duration_days"`
}

type ReturnResponse struct {
	Equipment EquipmentResponse     `json:"equipment"`
	Episode   RentalEpisodeResponse `json:"episode"`
}

func toEquipmentResponse(u *model.EquipmentUnit) EquipmentResponse {
	res := EquipmentResponse{
		ID:                    u.ID.String(),
		SerialNumber:          u.SerialNumber,
		Designation:           u.Designation,
		Category:              u.Category,
		DailyRate:             u.DailyRate.StringFixed(2),
		MinimumInvoiceEnabled: u.MinimumInvoiceEnabled,
		Status:                u.Status,
		AllowedEvents:         lifecycle.Allowed(u.Status),
		ClientName:            u.ClientName,
		RentalStart:           u.RentalStart,
		TheoreticalEnd:        u.TheoreticalEnd,
		RentalNote:            u.RentalNote,
		MaintenanceStart:      u.MaintenanceStart,
		MaintenanceMotif:      u.MaintenanceMotif,
		ReturnNote:            u.ReturnNote,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
	if u.MinimumInvoice.Valid {
		s := u.MinimumInvoice.Decimal.StringFixed(2)
		res.MinimumInvoice = &s
	}
	return res
}

func toRentalEpisodeResponse(ep model.RentalEpisode) RentalEpisodeResponse {
	return RentalEpisodeResponse{
		ID:                     ep.ID.String(),
		EquipmentID:            ep.EquipmentID.String(),
		ClientName:             ep.ClientName,
		RentalStart:            ep.RentalStart,
		TheoreticalEnd:         ep.TheoreticalEnd,
		ReturnDate:             ep.ReturnDate,
		BusinessDays:           ep.BusinessDays,
		DailyRate:              ep.DailyRate.StringFixed(2),
		LongDurationDiscount:   ep.LongDurationDiscount,
		MinimumInvoiceApplied:  ep.MinimumInvoiceApplied,
		MinimumInvoiceAmount:   ep.MinimumInvoiceAmount.StringFixed(2),
		CA:                     ep.CA.StringFixed(2),
		HolidayCalendarVersion: ep.HolidayCalendarVersion,
	}
}

func toMaintenanceEpisodeResponse(ep model.MaintenanceEpisode) MaintenanceEpisodeResponse {
	return MaintenanceEpisodeResponse{
		ID:           ep.ID.String(),
		EquipmentID:  ep.EquipmentID.String(),
		Motif:        ep.Motif,
		ReturnNote:   ep.ReturnNote,
		EnteredAt:    ep.EnteredAt,
		ExitedAt:     ep.ExitedAt,
		DurationDays: ep.DurationDays,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
