package handler

import (
	"fmt"
	"net/http"
	"testing"

	"rentalyard/internal/calendar"
	"rentalyard/internal/middleware"
	"rentalyard/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRevenueHandler_DefaultsToMonth(t *testing.T) {
	svc := new(MockRevenueService)
	r := newRouter(NewRevenueHandler(svc, testAuth()))
	svc.On("GetRevenueStatistics", mock.Anything, service.RevenueFilter{GroupBy: "month", StartDate: "2025-01-01"}).
		Return([]service.RevenueDataPoint{{Period: "2025-10", TotalCA: "950.00"}}, nil)

	w, res := do(t, r, http.MethodGet, "/api/revenue?start_date=2025-01-01", bearer(t, "m", middleware.RoleManager), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, res.Data, 1)
	svc.AssertExpectations(t)
}

func TestRevenueHandler_InvalidWindow(t *testing.T) {
	svc := new(MockRevenueService)
	r := newRouter(NewRevenueHandler(svc, testAuth()))
	svc.On("GetRevenueStatistics", mock.Anything, mock.Anything).
		Return([]service.RevenueDataPoint(nil), calendar.ErrInvalidRange)

	w, _ := do(t, r, http.MethodGet, "/api/revenue?start_date=2025-12-01&end_date=2025-01-01", bearer(t, "m", middleware.RoleManager), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRevenueHandler_UnknownGrouping(t *testing.T) {
	svc := new(MockRevenueService)
	r := newRouter(NewRevenueHandler(svc, testAuth()))
	svc.On("GetRevenueStatistics", mock.Anything, service.RevenueFilter{GroupBy: "fortnight"}).
		Return([]service.RevenueDataPoint(nil), fmt.Errorf("group_by %q: %w", "fortnight", service.ErrInvalidInput))

	w, res := do(t, r, http.MethodGet, "/api/revenue?group_by=fortnight", bearer(t, "m", middleware.RoleManager), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, res.Error, "fortnight")
}

func TestRevenueHandler_OperatorForbidden(t *testing.T) {
	svc := new(MockRevenueService)
	r := newRouter(NewRevenueHandler(svc, testAuth()))

	w, _ := do(t, r, http.MethodGet, "/api/revenue/equipment", bearer(t, "op", middleware.RoleOperator), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRevenueHandler_ByEquipment(t *testing.T) {
	svc := new(MockRevenueService)
	r := newRouter(NewRevenueHandler(svc, testAuth()))
	svc.On("RevenueByEquipment", mock.Anything, service.RevenueFilter{GroupBy: "month"}).
		Return([]service.EquipmentRevenuePoint{{EquipmentID: unitID, TotalCA: "750.00"}}, nil)

	w, res := do(t, r, http.MethodGet, "/api/revenue/equipment", bearer(t, "a", middleware.RoleAdmin), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, res.Data, 1)
}
