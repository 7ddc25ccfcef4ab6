package handler

import (
	"net/http"
	"testing"

	"rentalyard/internal/calendar"
	"rentalyard/internal/middleware"

	"github.com/stretchr/testify/assert"
)

func newCalendarRouter() http.Handler {
	cal := calendar.NewService(calendar.Options{Holidays: calendar.DefaultHolidayCalendar()})
	return newRouter(NewCalendarHandler(cal, testAuth()))
}

func TestCalendarHandler_BusinessDays(t *testing.T) {
	r := newCalendarRouter()
	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"one week", "start=2025-10-01&end=2025-10-08", 5},
		{"local format", "start=01/10/2025&end=08/10/2025", 5},
		{"year end holidays", "start=2025-12-22&end=2026-01-05", 8},
		{"weekend", "start=2025-10-04&end=2025-10-06", 0},
		{"empty range", "start=2025-10-01&end=2025-10-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := do(t, r, http.MethodGet, "/api/calendar/business-days?"+tt.query, bearer(t, "op", middleware.RoleOperator), nil)
			assert.Equal(t, http.StatusOK, w.Code)
			data := res.Data.(map[string]interface{})
			assert.Equal(t, tt.want, data["business_days"])
			assert.NotEmpty(t, data["holiday_calendar"])
		})
	}
}

func TestCalendarHandler_BusinessDaysErrors(t *testing.T) {
	r := newCalendarRouter()

	w, _ := do(t, r, http.MethodGet, "/api/calendar/business-days?start=2025-10-08&end=2025-10-01", bearer(t, "op", middleware.RoleOperator), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, res := do(t, r, http.MethodGet, "/api/calendar/business-days?start=yesterday&end=2025-10-01", bearer(t, "op", middleware.RoleOperator), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, res.Error, "start")
}

func TestCalendarHandler_Holidays(t *testing.T) {
	r := newCalendarRouter()

	w, res := do(t, r, http.MethodGet, "/api/calendar/holidays", bearer(t, "op", middleware.RoleOperator), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := res.Data.(map[string]interface{})
	assert.Equal(t, calendar.DefaultHolidayCalendar().Version, data["version"])
	assert.NotEmpty(t, data["holidays"])
}
