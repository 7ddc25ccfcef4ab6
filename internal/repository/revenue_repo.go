package repository

import (
	"context"
	"fmt"

	"rentalyard/internal/calendar"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Grouping periods accepted by DATE_TRUNC.
const (
	GroupByDay     = "day"
	GroupByWeek    = "week"
	GroupByMonth   = "month"
	GroupByQuarter = "quarter"
	GroupByYear    = "year"
)

type RevenueDataRow struct {
	Period                string          `gorm:"column:period"`
	Episodes              int64           `gorm:"column:episodes"`
	BusinessDays          int64           `gorm:"column:business_days"`
	TotalCA               decimal.Decimal `gorm:"column:total_ca"`
	DiscountedEpisodes    int64           `gorm:"column:discounted_episodes"`
	MinimumInvoiceApplied int64           `gorm:"column:minimum_invoice_applied"`
}

type EquipmentRevenueRow struct {
	EquipmentID  uuid.UUID       `gorm:"column:equipment_id"`
	SerialNumber string          `gorm:"column:serial_number"`
	Designation  string          `gorm:"column:designation"`
	Episodes     int64           `gorm:"column:episodes"`
	BusinessDays int64           `gorm:"column:business_days"`
	TotalCA      decimal.Decimal `gorm:"column:total_ca"`
}

// RevenueRepository aggregates stored CA by return date. Both bounds are inclusive.
type RevenueRepository interface {
	CAByPeriod(ctx context.Context, groupBy string, start, end calendar.Date) ([]RevenueDataRow, error)
	CAByEquipment(ctx context.Context, start, end calendar.Date) ([]EquipmentRevenueRow, error)
}

type revenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

func (r *revenueRepository) CAByPeriod(ctx context.Context, groupBy string, start, end calendar.Date) ([]RevenueDataRow, error) {
	query := `
		SELECT
			TO_CHAR(DATE_TRUNC(?, e.return_date), 'YYYY-MM-DD') AS period,
			COUNT(*) AS episodes,
			COALESCE(SUM(e.business_days), 0) AS business_days,
			COALESCE(SUM(e.ca), 0) AS total_ca,
			COUNT(*) FILTER (WHERE e.long_duration_discount) AS discounted_episodes,
			COUNT(*) FILTER (WHERE e.minimum_invoice_applied) AS minimum_invoice_applied
		FROM rental_episodes e
		WHERE e.return_date >= ?::date
		  AND e.return_date <= ?::date
		GROUP BY 1
		ORDER BY period
	`

	var rows []RevenueDataRow
	if err := GetDB(ctx, r.db).Raw(query, groupBy, start, end).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue statistics: %w", err)
	}

	return rows, nil
}

func (r *revenueRepository) CAByEquipment(ctx context.Context, start, end calendar.Date) ([]EquipmentRevenueRow, error) {
	query := `
		SELECT
			u.id AS equipment_id,
			u.serial_number,
			u.designation,
			COUNT(e.id) AS episodes,
			COALESCE(SUM(e.business_days), 0) AS business_days,
			COALESCE(SUM(e.ca), 0) AS total_ca
		FROM rental_episodes e
		JOIN equipment_units u ON u.id = e.equipment_id
		WHERE e.return_date >= ?::date
		  AND e.return_date <= ?::date
		GROUP BY u.id, u.serial_number, u.designation
		ORDER BY total_ca DESC, u.serial_number
	`

	var rows []EquipmentRevenueRow
	if err := GetDB(ctx, r.db).Raw(query, start, end).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue by equipment: %w", err)
	}

	return rows, nil
}
