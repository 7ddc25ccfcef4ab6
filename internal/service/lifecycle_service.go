package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentalyard/internal/billing"
	"rentalyard/internal/calendar"
	"rentalyard/internal/events"
	"rentalyard/internal/lifecycle"
	"rentalyard/internal/metrics"
	"rentalyard/internal/model"
	"rentalyard/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type LifecycleService interface {
	Reserve(ctx context.Context, actor, id string, req ReserveRequest) (EquipmentResponse, error)
	CancelReservation(ctx context.Context, actor, id string) (EquipmentResponse, error)
	BeginRental(ctx context.Context, actor, id string) (EquipmentResponse, error)
	BeginRentalDirect(ctx context.Context, actor, id string, req RentRequest) (EquipmentResponse, error)
	ReturnUnit(ctx context.Context, actor, id string, req ReturnRequest) (ReturnResponse, error)
	CompleteMaintenance(ctx context.Context, actor, id string) (EquipmentResponse, error)
}

type LifecycleDeps struct {
	EquipmentRepo   repository.EquipmentRepository
	RentalRepo      repository.RentalEpisodeRepository
	MaintenanceRepo repository.MaintenanceEpisodeRepository
	AuditRepo       repository.AuditRepository
	TxManager       repository.TransactionManager
	Calendar        *calendar.Service
	Publisher       events.Publisher
	Logger          *zap.Logger

	// MaintenanceMotif is recorded on every unit entering maintenance after a return.
	MaintenanceMotif string
	// Now defaults to time.Now.
	Now func() time.Time
}

type lifecycleService struct {
	equipmentRepo   repository.EquipmentRepository
	rentalRepo      repository.RentalEpisodeRepository
	maintenanceRepo repository.MaintenanceEpisodeRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	calendar        *calendar.Service
	publisher       events.Publisher
	logger          *zap.Logger
	motif           string
	now             func() time.Time
	locks           *unitLocker
}

func NewLifecycleService(deps LifecycleDeps) LifecycleService {
	s := &lifecycleService{
		equipmentRepo:   deps.EquipmentRepo,
		rentalRepo:      deps.RentalRepo,
		maintenanceRepo: deps.MaintenanceRepo,
		auditRepo:       deps.AuditRepo,
		txManager:       deps.TxManager,
		calendar:        deps.Calendar,
		publisher:       deps.Publisher,
		logger:          deps.Logger,
		motif:           deps.MaintenanceMotif,
		now:             deps.Now,
		locks:           newUnitLocker(),
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.calendar == nil {
		s.calendar = calendar.NewService(calendar.Options{Holidays: calendar.DefaultHolidayCalendar()})
	}
	return s
}

// change describes one transition: the mutation applied to the locked unit
// and what to record about it.
type change struct {
	event     lifecycle.Event
	action    string
	eventType string
	// apply mutates the unit (status excluded) and appends archives. It
	// returns the audit details.
	apply func(txCtx context.Context, unit *model.EquipmentUnit, now time.Time) (map[string]interface{}, error)
}

func (s *lifecycleService) Reserve(ctx context.Context, actor, id string, req ReserveRequest) (EquipmentResponse, error) {
	return s.startRental(ctx, actor, id, req, lifecycle.EventReserve, model.ActionReserve, events.TypeReserved)
}

func (s *lifecycleService) BeginRentalDirect(ctx context.Context, actor, id string, req RentRequest) (EquipmentResponse, error) {
	return s.startRental(ctx, actor, id, req, lifecycle.EventBeginRentalDirect, model.ActionBeginRentalDirect, events.TypeRentalStarted)
}

func (s *lifecycleService) startRental(ctx context.Context, actor, id string, req ReserveRequest, ev lifecycle.Event, action, eventType string) (EquipmentResponse, error) {
	start, end, err := s.rentalTerms(req)
	if err != nil {
		return EquipmentResponse{}, s.fail(ev, id, err)
	}

	unit, err := s.run(ctx, actor, id, change{
		event:     ev,
		action:    action,
		eventType: eventType,
		apply: func(_ context.Context, unit *model.EquipmentUnit, _ time.Time) (map[string]interface{}, error) {
			unit.SetRental(req.ClientName, start, end, req.Note)
			return map[string]interface{}{
				"client_name":          req.ClientName,
				"start_date":           start,
				"theoretical_end_date": end,
				"note":                 req.Note,
			}, nil
		},
	})
	if err != nil {
		return EquipmentResponse{}, err
	}
	return toEquipmentResponse(unit), nil
}

// rentalTerms parses and checks the dates of a reservation or rental.
func (s *lifecycleService) rentalTerms(req ReserveRequest) (calendar.Date, *calendar.Date, error) {
	if req.ClientName == "" {
		return calendar.Date{}, nil, fmt.Errorf("client name is required: %w", ErrInvalidInput)
	}
	start, err := s.calendar.ToCanonicalDate(req.StartDate)
	if err != nil {
		return calendar.Date{}, nil, fmt.Errorf("start date: %w", err)
	}
	if req.TheoreticalEndDate == "" {
		return start, nil, nil
	}
	end, err := s.calendar.ToCanonicalDate(req.TheoreticalEndDate)
	if err != nil {
		return calendar.Date{}, nil, fmt.Errorf("theoretical end date: %w", err)
	}
	if end.Before(start) {
		return calendar.Date{}, nil, fmt.Errorf("theoretical end %s precedes start %s: %w", end, start, calendar.ErrInvalidRange)
	}
	return start, &end, nil
}

func (s *lifecycleService) CancelReservation(ctx context.Context, actor, id string) (EquipmentResponse, error) {
	unit, err := s.run(ctx, actor, id, change{
		event:     lifecycle.EventCancelReservation,
		action:    model.ActionCancelReservation,
		eventType: events.TypeReservationCanceled,
		apply: func(_ context.Context, unit *model.EquipmentUnit, _ time.Time) (map[string]interface{}, error) {
			details := map[string]interface{}{"client_name": derefString(unit.ClientName)}
			unit.ClearRental()
			return details, nil
		},
	})
	if err != nil {
		return EquipmentResponse{}, err
	}
	return toEquipmentResponse(unit), nil
}

func (s *lifecycleService) BeginRental(ctx context.Context, actor, id string) (EquipmentResponse, error) {
	unit, err := s.run(ctx, actor, id, change{
		event:     lifecycle.EventBeginRental,
		action:    model.ActionBeginRental,
		eventType: events.TypeRentalStarted,
		apply: func(_ context.Context, unit *model.EquipmentUnit, _ time.Time) (map[string]interface{}, error) {
			return map[string]interface{}{"client_name": derefString(unit.ClientName)}, nil
		},
	})
	if err != nil {
		return EquipmentResponse{}, err
	}
	return toEquipmentResponse(unit), nil
}

func (s *lifecycleService) ReturnUnit(ctx context.Context, actor, id string, req ReturnRequest) (ReturnResponse, error) {
	ev := lifecycle.EventReturn
	returnDate, err := s.calendar.ToCanonicalDate(req.ReturnDate)
	if err != nil {
		return ReturnResponse{}, s.fail(ev, id, fmt.Errorf("return date: %w", err))
	}

	var episode model.RentalEpisode
	unit, err := s.run(ctx, actor, id, change{
		event:     ev,
		action:    model.ActionReturnEquipment,
		eventType: events.TypeReturned,
		apply: func(txCtx context.Context, unit *model.EquipmentUnit, now time.Time) (map[string]interface{}, error) {
			if unit.RentalStart == nil {
				return nil, fmt.Errorf("rented unit has no rental start: %w", model.ErrInvariantViolated)
			}
			start := *unit.RentalStart
			if returnDate.Before(start) {
				return nil, fmt.Errorf("return date %s precedes rental start %s: %w", returnDate, start, calendar.ErrInvalidRange)
			}

			days, err := s.calendar.BusinessDayCount(start, returnDate)
			if err != nil {
				return nil, err
			}
			res, err := billing.ComputeCA(days, decimal.NewNullDecimal(unit.DailyRate), unit.MinimumInvoice, unit.MinimumInvoiceEnabled)
			if err != nil {
				return nil, err
			}

			episode = model.NewRentalEpisode(unit, returnDate, days, s.calendar.HolidayVersion(), res)
			if err := s.rentalRepo.Append(txCtx, &episode); err != nil {
				return nil, persistenceErr("append rental episode", err)
			}

			unit.ClearRental()
			enteredAt := now
			motif := s.motif
			unit.MaintenanceStart = &enteredAt
			unit.MaintenanceMotif = &motif
			unit.ReturnNote = optionalString(req.ReturnNote)

			return map[string]interface{}{
				"episode_id":    episode.ID.String(),
				"client_name":   episode.ClientName,
				"rental_start":  start,
				"return_date":   returnDate,
				"business_days": days,
				"ca":            res.CA.StringFixed(2),
			}, nil
		},
	})
	if err != nil {
		return ReturnResponse{}, err
	}

	metrics.RentalEpisodesTotal.Inc()
	metrics.CABilledTotal.Add(episode.CA.InexactFloat64())

	return ReturnResponse{
		Equipment: toEquipmentResponse(unit),
		Episode:   toRentalEpisodeResponse(episode),
	}, nil
}

func (s *lifecycleService) CompleteMaintenance(ctx context.Context, actor, id string) (EquipmentResponse, error) {
	archived := false
	unit, err := s.run(ctx, actor, id, change{
		event:     lifecycle.EventCompleteMaintenance,
		action:    model.ActionCompleteMaintenance,
		eventType: events.TypeMaintenanceDone,
		apply: func(txCtx context.Context, unit *model.EquipmentUnit, now time.Time) (map[string]interface{}, error) {
			details := map[string]interface{}{"motif": derefString(unit.MaintenanceMotif)}
			if unit.MaintenanceStart != nil {
				ep := model.MaintenanceEpisode{
					EquipmentID:  unit.ID,
					Motif:        derefString(unit.MaintenanceMotif),
					ReturnNote:   derefString(unit.ReturnNote),
					EnteredAt:    *unit.MaintenanceStart,
					ExitedAt:     now,
					DurationDays: model.WholeDaysBetween(*unit.MaintenanceStart, now),
				}
				if err := s.maintenanceRepo.Append(txCtx, &ep); err != nil {
					return nil, persistenceErr("append maintenance episode", err)
				}
				archived = true
				details["episode_id"] = ep.ID.String()
				details["duration_days"] = ep.DurationDays
			}
			unit.ClearMaintenance()
			return details, nil
		},
	})
	if err != nil {
		return EquipmentResponse{}, err
	}

	if archived {
		metrics.MaintenanceEpisodesTotal.Inc()
	} else {
		metrics.MaintenanceWithoutStartTotal.Inc()
		s.logger.Warn("maintenance completed without start timestamp, nothing archived",
			zap.String("equipment_id", unit.ID.String()))
	}
	return toEquipmentResponse(unit), nil
}

// run applies c to the unit under the per-unit lock and a row lock, writes
// the audit entry in the same transaction and publishes the event once
// committed.
func (s *lifecycleService) run(ctx context.Context, actor, id string, c change) (*model.EquipmentUnit, error) {
	unitID, err := uuid.Parse(id)
	if err != nil {
		return nil, s.fail(c.event, id, fmt.Errorf("invalid equipment id %q: %w", id, ErrInvalidInput))
	}

	unit, err := s.commit(ctx, actor, unitID, c)
	if err != nil {
		return nil, s.fail(c.event, id, err)
	}

	metrics.TransitionsTotal.WithLabelValues(string(c.event)).Inc()
	s.logger.Info("equipment transition",
		zap.String("equipment_id", id),
		zap.String("event", string(c.event)),
		zap.String("status", string(unit.Status)),
		zap.String("actor", actor),
	)

	s.publish(ctx, events.Event{
		Type:        c.eventType,
		EquipmentID: id,
		Status:      string(unit.Status),
		OccurredAt:  s.now(),
	})
	return unit, nil
}

func (s *lifecycleService) commit(ctx context.Context, actor string, unitID uuid.UUID, c change) (*model.EquipmentUnit, error) {
	release := s.locks.Lock(unitID)
	defer release()

	now := s.now()
	var result *model.EquipmentUnit

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		unit, err := s.equipmentRepo.FindByIDForUpdate(txCtx, unitID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEquipmentNotFound
			}
			return persistenceErr("load equipment", err)
		}

		next, err := lifecycle.Next(unit.Status, c.event)
		if err != nil {
			return err
		}

		details, err := c.apply(txCtx, unit, now)
		if err != nil {
			return err
		}
		unit.Status = next
		if err := unit.CheckInvariants(); err != nil {
			return err
		}

		if err := s.equipmentRepo.Update(txCtx, unit); err != nil {
			return persistenceErr("update equipment", err)
		}

		payload, _ := json.Marshal(details)
		audit := &model.AuditLog{
			Actor:      actor,
			Action:     c.action,
			EntityID:   unit.ID.String(),
			EntityName: unit.Designation,
			Details:    string(payload),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return persistenceErr("write audit log", err)
		}

		result = unit
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *lifecycleService) fail(ev lifecycle.Event, id string, err error) error {
	metrics.TransitionErrorsTotal.WithLabelValues(string(ev), reason(err)).Inc()
	s.logger.Info("equipment transition rejected",
		zap.String("equipment_id", id),
		zap.String("event", string(ev)),
		zap.Error(err),
	)
	return &TransitionError{Event: ev, EquipmentID: id, Err: err}
}

// publish is best-effort: the change is already committed.
func (s *lifecycleService) publish(ctx context.Context, ev events.Event) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, ev); err != nil {
		s.logger.Warn("event not delivered", zap.String("type", ev.Type), zap.Error(err))
	}
}
