package service

import (
	"context"
	"encoding/json"
	"time"

	"rentalyard/internal/billing"
	"rentalyard/internal/calendar"
	"rentalyard/internal/events"
	"rentalyard/internal/metrics"
	"rentalyard/internal/model"
	"rentalyard/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const auditPageSize = 500

// CADiscrepancy is a stored rental episode whose CA does not match the
// billing formula applied to its own stored inputs.
type CADiscrepancy struct {
	EpisodeID   string         `json:"episode_id"`
	EquipmentID string         `json:"equipment_id"`
	ReturnDate  calendar.Date  `json:"return_date"`
	Stored      billing.Result `json:"stored"`
	Recomputed  billing.Result `json:"recomputed"`
	// Error is set when the stored inputs cannot be billed; such rows are
	// reported but never corrected.
	Error string `json:"error,omitempty"`
}

type CAAuditReport struct {
	Checked       int             `json:"checked"`
	Discrepancies []CADiscrepancy `json:"discrepancies"`
	Corrected     int             `json:"corrected"`
	DryRun        bool            `json:"dry_run"`
}

// CAAuditService verifies stored CA amounts and, on explicit request,
// corrects legacy rows. It never runs on the transition path.
type CAAuditService interface {
	Audit(ctx context.Context) (CAAuditReport, error)
	Backfill(ctx context.Context, actor string, dryRun bool) (CAAuditReport, error)
}

type caAuditService struct {
	rentalRepo repository.RentalEpisodeRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	publisher  events.Publisher
	logger     *zap.Logger
}

func NewCAAuditService(
	rentalRepo repository.RentalEpisodeRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	logger *zap.Logger,
) CAAuditService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &caAuditService{
		rentalRepo: rentalRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		publisher:  publisher,
		logger:     logger.Named("ca_audit"),
	}
}

func (s *caAuditService) Audit(ctx context.Context) (CAAuditReport, error) {
	report := CAAuditReport{Discrepancies: []CADiscrepancy{}}

	for page := 1; ; page++ {
		eps, total, err := s.rentalRepo.List(ctx, page, auditPageSize)
		if err != nil {
			return report, persistenceErr("list rental episodes", err)
		}

		for _, ep := range eps {
			report.Checked++
			if d, ok := check(ep); !ok {
				report.Discrepancies = append(report.Discrepancies, d)
			}
		}

		if len(eps) == 0 || int64(page*auditPageSize) >= total {
			break
		}
	}

	metrics.CAAuditDiscrepancies.Set(float64(len(report.Discrepancies)))
	s.logger.Info("CA audit finished",
		zap.Int("checked", report.Checked),
		zap.Int("discrepancies", len(report.Discrepancies)),
	)
	return report, nil
}

func check(ep model.RentalEpisode) (CADiscrepancy, bool) {
	stored := ep.StoredResult()
	d := CADiscrepancy{
		EpisodeID:   ep.ID.String(),
		EquipmentID: ep.EquipmentID.String(),
		ReturnDate:  ep.ReturnDate,
		Stored:      stored,
	}

	recomputed, err := ep.Recompute()
	if err != nil {
		d.Error = err.Error()
		return d, false
	}
	d.Recomputed = recomputed
	return d, stored.Equal(recomputed)
}

func (s *caAuditService) Backfill(ctx context.Context, actor string, dryRun bool) (CAAuditReport, error) {
	report, err := s.Audit(ctx)
	if err != nil {
		return report, err
	}
	report.DryRun = dryRun
	if dryRun {
		return report, nil
	}

	var corrected []CADiscrepancy
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		corrected = corrected[:0]
		for _, d := range report.Discrepancies {
			if d.Error != "" {
				continue
			}
			id, err := uuid.Parse(d.EpisodeID)
			if err != nil {
				return err
			}
			if err := s.rentalRepo.CorrectCA(txCtx, id, d.Recomputed); err != nil {
				return persistenceErr("correct rental episode "+d.EpisodeID, err)
			}

			details, _ := json.Marshal(map[string]interface{}{
				"episode_id": d.EpisodeID,
				"before":     d.Stored,
				"after":      d.Recomputed,
			})
			if err := s.auditRepo.Log(txCtx, &model.AuditLog{
				Actor:    actor,
				Action:   model.ActionBackfillCA,
				EntityID: d.EquipmentID,
				Details:  string(details),
			}); err != nil {
				return persistenceErr("write audit log", err)
			}
			corrected = append(corrected, d)
		}
		return nil
	})
	if err != nil {
		return report, classify(err)
	}

	report.Corrected = len(corrected)
	s.logger.Info("CA backfill committed", zap.Int("corrected", report.Corrected), zap.String("actor", actor))

	for _, d := range corrected {
		ev := events.Event{
			Type:        events.TypeCACorrected,
			EquipmentID: d.EquipmentID,
			Payload: map[string]interface{}{
				"episode_id": d.EpisodeID,
				"ca_before":  d.Stored.CA.StringFixed(2),
				"ca_after":   d.Recomputed.CA.StringFixed(2),
			},
			OccurredAt: time.Now(),
		}
		if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
			s.logger.Warn("event not delivered", zap.String("type", ev.Type), zap.Error(err))
		}
	}
	return report, nil
}
