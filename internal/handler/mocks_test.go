package handler

import (
	"context"

	"rentalyard/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockEquipmentService
type MockEquipmentService struct {
	mock.Mock
}

func (m *MockEquipmentService) CreateEquipment(ctx context.Context, actor string, req service.CreateEquipmentRequest) (service.EquipmentResponse, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(service.EquipmentResponse), args.Error(1)
}
func (m *MockEquipmentService) GetEquipment(ctx context.Context, id string) (service.EquipmentResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.EquipmentResponse), args.Error(1)
}
func (m *MockEquipmentService) ListEquipment(ctx context.Context, filter service.EquipmentListFilter, page, limit int) ([]service.EquipmentResponse, int64, error) {
	args := m.Called(ctx, filter, page, limit)
	return args.Get(0).([]service.EquipmentResponse), args.Get(1).(int64), args.Error(2)
}
func (m *MockEquipmentService) RentalHistory(ctx context.Context, id string) ([]service.RentalEpisodeResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]service.RentalEpisodeResponse), args.Error(1)
}
func (m *MockEquipmentService) MaintenanceHistory(ctx context.Context, id string) ([]service.MaintenanceEpisodeResponse, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]service.MaintenanceEpisodeResponse), args.Error(1)
}

// MockLifecycleService
type MockLifecycleService struct {
	mock.Mock
}

func (m *MockLifecycleService) Reserve(ctx context.Context, actor, id string, req service.ReserveRequest) (service.EquipmentResponse, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Get(0).(service.EquipmentResponse), args.Error(1)
}
func (m *MockLifecycleService) CancelReservation(ctx context.Context, actor, id string) (service.EquipmentResponse, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(service.EquipmentResponse), args.Error(1)
}
func (m *MockLifecycleService) BeginRental(ctx context.Context, actor, id string) (service.EquipmentResponse, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(service.EquipmentResponse), args.Error(1)
}
func (m *MockLifecycleService) BeginRentalDirect(ctx context.Context, actor, id string, req service.RentRequest) (service.EquipmentResponse, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Get(0).(service.EquipmentResponse), args.Error(1)
}
func (m *MockLifecycleService) ReturnUnit(ctx context.Context, actor, id string, req service.ReturnRequest) (service.ReturnResponse, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Get(0).(service.ReturnResponse), args.Error(1)
}
func (m *MockLifecycleService) CompleteMaintenance(ctx context.Context, actor, id string) (service.EquipmentResponse, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(service.EquipmentResponse), args.Error(1)
}

// MockRevenueService
type MockRevenueService struct {
	mock.Mock
}

func (m *MockRevenueService) GetRevenueStatistics(ctx context.Context, filter service.RevenueFilter) ([]service.RevenueDataPoint, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]service.RevenueDataPoint), args.Error(1)
}
func (m *MockRevenueService) RevenueByEquipment(ctx context.Context, filter service.RevenueFilter) ([]service.EquipmentRevenuePoint, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]service.EquipmentRevenuePoint), args.Error(1)
}

// MockAuditService
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) GetAuditLogs(ctx context.Context, filter service.AuditLogFilter, page, limit int) ([]service.AuditLogResponse, int64, error) {
	args := m.Called(ctx, filter, page, limit)
	return args.Get(0).([]service.AuditLogResponse), args.Get(1).(int64), args.Error(2)
}

// MockCAAuditService
type MockCAAuditService struct {
	mock.Mock
}

func (m *MockCAAuditService) Audit(ctx context.Context) (service.CAAuditReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.CAAuditReport), args.Error(1)
}
func (m *MockCAAuditService) Backfill(ctx context.Context, actor string, dryRun bool) (service.CAAuditReport, error) {
	args := m.Called(ctx, actor, dryRun)
	return args.Get(0).(service.CAAuditReport), args.Error(1)
}
