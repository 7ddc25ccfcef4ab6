package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"rentalyard/internal/events"
	"rentalyard/internal/lifecycle"
	"rentalyard/internal/model"
	"rentalyard/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EquipmentListFilter struct {
	Status   string
	Category string
	Search   string
}

type EquipmentService interface {
	CreateEquipment(ctx context.Context, actor string, req CreateEquipmentRequest) (EquipmentResponse, error)
	GetEquipment(ctx context.Context, id string) (EquipmentResponse, error)
	ListEquipment(ctx context.Context, filter EquipmentListFilter, page, limit int) ([]EquipmentResponse, int64, error)
	RentalHistory(ctx context.Context, id string) ([]RentalEpisodeResponse, error)
	MaintenanceHistory(ctx context.Context, id string) ([]MaintenanceEpisodeResponse, error)
}

type equipmentService struct {
	equipmentRepo   repository.EquipmentRepository
	rentalRepo      repository.RentalEpisodeRepository
	maintenanceRepo repository.MaintenanceEpisodeRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	publisher       events.Publisher
	logger          *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repository.EquipmentRepository,
	rentalRepo repository.RentalEpisodeRepository,
	maintenanceRepo repository.MaintenanceEpisodeRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	logger *zap.Logger,
) EquipmentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &equipmentService{
		equipmentRepo:   equipmentRepo,
		rentalRepo:      rentalRepo,
		maintenanceRepo: maintenanceRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		publisher:       publisher,
		logger:          logger,
	}
}

func (s *equipmentService) CreateEquipment(ctx context.Context, actor string, req CreateEquipmentRequest) (EquipmentResponse, error) {
	unit, err := newEquipmentUnit(req)
	if err != nil {
		return EquipmentResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.equipmentRepo.Create(txCtx, unit); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%s: %w", unit.SerialNumber, ErrDuplicateSerial)
			}
			return persistenceErr("create equipment", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			Actor:      actor,
			Action:     model.ActionCreateEquipment,
			EntityID:   unit.ID.String(),
			EntityName: unit.Designation,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return persistenceErr("write audit log", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSerial) || errors.Is(err, ErrPersistenceFailure) {
			return EquipmentResponse{}, err
		}
		return EquipmentResponse{}, persistenceErr("commit", err)
	}

	s.logger.Info("equipment created",
		zap.String("equipment_id", unit.ID.String()),
		zap.String("serial_number", unit.SerialNumber),
		zap.String("actor", actor),
	)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events.Event{
		Type:        events.TypeEquipmentCreated,
		EquipmentID: unit.ID.String(),
		Status:      string(unit.Status),
		OccurredAt:  unit.CreatedAt,
	}); err != nil {
		s.logger.Warn("event not delivered", zap.String("type", events.TypeEquipmentCreated), zap.Error(err))
	}

	return toEquipmentResponse(unit), nil
}

func newEquipmentUnit(req CreateEquipmentRequest) (*model.EquipmentUnit, error) {
	serial := strings.TrimSpace(req.SerialNumber)
	designation := strings.TrimSpace(req.Designation)
	if serial == "" || designation == "" {
		return nil, fmt.Errorf("serial number and designation are required: %w", ErrInvalidInput)
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(req.DailyRate))
	if err != nil {
		return nil, fmt.Errorf("daily rate %q: %w", req.DailyRate, ErrInvalidInput)
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("daily rate must not be negative: %w", ErrInvalidInput)
	}

	var minimum decimal.NullDecimal
	if raw := strings.TrimSpace(req.MinimumInvoice); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("minimum invoice %q: %w", req.MinimumInvoice, ErrInvalidInput)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("minimum invoice must not be negative: %w", ErrInvalidInput)
		}
		minimum = decimal.NewNullDecimal(d)
	}
	if req.MinimumInvoiceEnabled && !minimum.Valid {
		return nil, fmt.Errorf("minimum invoice enabled without an amount: %w", ErrInvalidInput)
	}

	return &model.EquipmentUnit{
		SerialNumber:          serial,
		Designation:           designation,
		Category:              strings.TrimSpace(req.Category),
		DailyRate:             rate,
		MinimumInvoice:        minimum,
		MinimumInvoiceEnabled: req.MinimumInvoiceEnabled,
		Status:                lifecycle.Initial,
	}, nil
}

func (s *equipmentService) GetEquipment(ctx context.Context, id string) (EquipmentResponse, error) {
	unit, err := s.find(ctx, id)
	if err != nil {
		return EquipmentResponse{}, err
	}
	return toEquipmentResponse(unit), nil
}

func (s *equipmentService) ListEquipment(ctx context.Context, filter EquipmentListFilter, page, limit int) ([]EquipmentResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	status := lifecycle.Status(strings.ToUpper(filter.Status))
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("unknown status %q: %w", filter.Status, ErrInvalidInput)
	}

	units, total, err := s.equipmentRepo.List(ctx, repository.EquipmentFilter{
		Status:   status,
		Category: filter.Category,
		Search:   filter.Search,
	}, page, limit)
	if err != nil {
		return nil, 0, persistenceErr("list equipment", err)
	}

	res := make([]EquipmentResponse, 0, len(units))
	for i := range units {
		res = append(res, toEquipmentResponse(&units[i]))
	}
	return res, total, nil
}

func (s *equipmentService) RentalHistory(ctx context.Context, id string) ([]RentalEpisodeResponse, error) {
	unit, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	eps, err := s.rentalRepo.ListByEquipment(ctx, unit.ID)
	if err != nil {
		return nil, persistenceErr("list rental episodes", err)
	}

	res := make([]RentalEpisodeResponse, 0, len(eps))
	for _, ep := range eps {
		res = append(res, toRentalEpisodeResponse(ep))
	}
	return res, nil
}

func (s *equipmentService) MaintenanceHistory(ctx context.Context, id string) ([]MaintenanceEpisodeResponse, error) {
	unit, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	eps, err := s.maintenanceRepo.ListByEquipment(ctx, unit.ID)
	if err != nil {
		return nil, persistenceErr("list maintenance episodes", err)
	}

	res := make([]MaintenanceEpisodeResponse, 0, len(eps))
	for _, ep := range eps {
		res = append(res, toMaintenanceEpisodeResponse(ep))
	}
	return res, nil
}

func (s *equipmentService) find(ctx context.Context, id string) (*model.EquipmentUnit, error) {
	unitID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid equipment id %q: %w", id, ErrInvalidInput)
	}
	unit, err := s.equipmentRepo.FindByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, persistenceErr("load equipment", err)
	}
	return unit, nil
}
