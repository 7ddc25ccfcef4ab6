// Package calendar converts loosely typed dates into timezone-naive calendar
// dates and counts billable business days against an injected holiday table.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var (
	ErrInvalidRange    = errors.New("invalid date range")
	ErrUnparseableDate = errors.New("unparseable date")
)

// DefaultLocalLayout is the day/month/year layout used by spreadsheet imports.
const DefaultLocalLayout = "2/1/2006"

// isoDateTimeLayouts are tried after the plain ISO date, before the local layout.
var isoDateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
}

// Options configures a Service.
type Options struct {
	Holidays    *HolidayCalendar
	LocalLayout string
	Location    *time.Location
}

// Service holds the single holiday table and date conventions of the application.
type Service struct {
	holidays    *HolidayCalendar
	localLayout string
	location    *time.Location
	fallback    *now.Config
}

func NewService(opts Options) *Service {
	if opts.LocalLayout == "" {
		opts.LocalLayout = DefaultLocalLayout
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		holidays:    opts.Holidays,
		localLayout: opts.LocalLayout,
		location:    opts.Location,
		fallback: &now.Config{
			WeekStartDay: time.Monday,
			TimeLocation: opts.Location,
			TimeFormats:  []string{"02-01-2006", "02.01.2006", "2 January 2006", "Jan 2, 2006"},
		},
	}
}

// Holidays returns the injected holiday table.
func (s *Service) Holidays() *HolidayCalendar {
	return s.holidays
}

// HolidayVersion identifies the table used for a computation.
func (s *Service) HolidayVersion() string {
	if s.holidays == nil {
		return ""
	}
	return s.holidays.Version
}

// Location is the business time zone used to turn "now" into a date.
func (s *Service) Location() *time.Location {
	return s.location
}

// Today returns the calendar date of t in the business location.
func (s *Service) Today(t time.Time) Date {
	return DateOf(t.In(s.location))
}

// BusinessDayCount counts Monday-Friday dates in [start, end) that are not
// listed in the holiday table. The return day itself is never billed.
func (s *Service) BusinessDayCount(start, end Date) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("end %s precedes start %s: %w", end, start, ErrInvalidRange)
	}

	total := start.DaysUntil(end)
	weeks := total / 7
	count := weeks * 5

	d := start.AddDays(weeks * 7)
	for i := 0; i < total%7; i++ {
		if isWeekday(d) {
			count++
		}
		d = d.AddDays(1)
	}

	return count - s.holidays.weekdayHolidaysIn(start, end), nil
}

// IsBusinessDay reports whether d would be billed.
func (s *Service) IsBusinessDay(d Date) bool {
	return isWeekday(d) && !s.holidays.IsHoliday(d)
}

func isWeekday(d Date) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// ToCanonicalDate normalizes a string, time.Time or Date into a Date.
// Datetimes keep the date as written; no zone conversion is applied.
func (s *Service) ToCanonicalDate(value interface{}) (Date, error) {
	switch v := value.(type) {
	case Date:
		return v, nil
	case *Date:
		if v == nil {
			return Date{}, fmt.Errorf("nil date: %w", ErrUnparseableDate)
		}
		return *v, nil
	case time.Time:
		if v.IsZero() {
			return Date{}, fmt.Errorf("zero time: %w", ErrUnparseableDate)
		}
		return DateOf(v), nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return Date{}, fmt.Errorf("nil time: %w", ErrUnparseableDate)
		}
		return DateOf(*v), nil
	case string:
		return s.parseString(v)
	default:
		return Date{}, fmt.Errorf("unsupported date value of type %T: %w", value, ErrUnparseableDate)
	}
}

func (s *Service) parseString(raw string) (Date, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Date{}, fmt.Errorf("empty date: %w", ErrUnparseableDate)
	}

	if t, err := time.Parse(isoLayout, value); err == nil {
		return DateOf(t), nil
	}
	for _, layout := range isoDateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return DateOf(t), nil
		}
	}
	if t, err := time.Parse(s.localLayout, value); err == nil {
		return DateOf(t), nil
	}
	if t, err := s.fallback.Parse(value); err == nil {
		return DateOf(t), nil
	}

	return Date{}, fmt.Errorf("%q matches no accepted format: %w", raw, ErrUnparseableDate)
}
