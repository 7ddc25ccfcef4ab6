package service

import (
	"context"
	"fmt"
	"time"

	"rentalyard/internal/calendar"
	"rentalyard/internal/repository"
)

// --- DTOs ---

type RevenueDataPoint struct {
	Period                string `json:"period"`
	Episodes              int64  `json:"episodes"`
	BusinessDays          int64  `json:"business_days"`
	TotalCA               string `json:"total_ca"`
	DiscountedEpisodes    int64  `json:"discounted_episodes"`
	MinimumInvoiceApplied int64  `json:"minimum_invoice_applied"`
}

type EquipmentRevenuePoint struct {
	EquipmentID  string `json:"equipment_id"`
	SerialNumber string `json:"serial_number"`
	Designation  string `json:"designation"`
	Episodes     int64  `json:"episodes"`
	BusinessDays int64  `json:"business_days"`
	TotalCA      string `json:"total_ca"`
}

type RevenueFilter struct {
	GroupBy   string // day, week, month, quarter, year
	StartDate string // any format accepted by the calendar, inclusive
	EndDate   string // inclusive
}

// --- Interface ---

type RevenueService interface {
	GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error)
	RevenueByEquipment(ctx context.Context, filter RevenueFilter) ([]EquipmentRevenuePoint, error)
}

type revenueService struct {
	repo     repository.RevenueRepository
	calendar *calendar.Service
	now      func() time.Time
}

func NewRevenueService(repo repository.RevenueRepository, cal *calendar.Service) RevenueService {
	return &revenueService{repo: repo, calendar: cal, now: time.Now}
}

// --- Implementation ---

func (s *revenueService) GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error) {
	groupBy := filter.GroupBy
	switch groupBy {
	case "":
		groupBy = repository.GroupByMonth
	case repository.GroupByDay, repository.GroupByWeek, repository.GroupByMonth,
		repository.GroupByQuarter, repository.GroupByYear:
	default:
		return nil, fmt.Errorf("group_by %q: want day, week, month, quarter or year: %w", groupBy, ErrInvalidInput)
	}

	start, end, err := s.window(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.CAByPeriod(ctx, groupBy, start, end)
	if err != nil {
		return nil, persistenceErr("revenue by period", err)
	}

	result := make([]RevenueDataPoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, RevenueDataPoint{
			Period:                r.Period,
			Episodes:              r.Episodes,
			BusinessDays:          r.BusinessDays,
			TotalCA:               r.TotalCA.StringFixed(2),
			DiscountedEpisodes:    r.DiscountedEpisodes,
			MinimumInvoiceApplied: r.MinimumInvoiceApplied,
		})
	}
	return result, nil
}

func (s *revenueService) RevenueByEquipment(ctx context.Context, filter RevenueFilter) ([]EquipmentRevenuePoint, error) {
	start, end, err := s.window(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.CAByEquipment(ctx, start, end)
	if err != nil {
		return nil, persistenceErr("revenue by equipment", err)
	}

	result := make([]EquipmentRevenuePoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, EquipmentRevenuePoint{
			EquipmentID:  r.EquipmentID.String(),
			SerialNumber: r.SerialNumber,
			Designation:  r.Designation,
			Episodes:     r.Episodes,
			BusinessDays: r.BusinessDays,
			TotalCA:      r.TotalCA.StringFixed(2),
		})
	}
	return result, nil
}

// window defaults to January 1st of the current year up to today.
func (s *revenueService) window(filter RevenueFilter) (calendar.Date, calendar.Date, error) {
	today := s.calendar.Today(s.now())

	end := today
	if filter.EndDate != "" {
		d, err := s.calendar.ToCanonicalDate(filter.EndDate)
		if err != nil {
			return calendar.Date{}, calendar.Date{}, fmt.Errorf("end_date: %w", err)
		}
		end = d
	}

	start := calendar.NewDate(end.Year, time.January, 1)
	if filter.StartDate != "" {
		d, err := s.calendar.ToCanonicalDate(filter.StartDate)
		if err != nil {
			return calendar.Date{}, calendar.Date{}, fmt.Errorf("start_date: %w", err)
		}
		start = d
	}

	if end.Before(start) {
		return calendar.Date{}, calendar.Date{}, fmt.Errorf("end_date %s precedes start_date %s: %w", end, start, calendar.ErrInvalidRange)
	}
	return start, end, nil
}
