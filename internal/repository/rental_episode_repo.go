package repository

import (
	"context"

	"rentalyard/internal/billing"
	"rentalyard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RentalEpisodeRepository is append-only on the transition path. CorrectCA
// exists for the backfill command alone.
type RentalEpisodeRepository interface {
	Append(ctx context.Context, ep *model.RentalEpisode) error
	ListByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]model.RentalEpisode, error)
	List(ctx context.Context, page, limit int) ([]model.RentalEpisode, int64, error)
	CorrectCA(ctx context.Context, id uuid.UUID, res billing.Result) error
}

type rentalEpisodeRepository struct {
	db *gorm.DB
}

func NewRentalEpisodeRepository(db *gorm.DB) RentalEpisodeRepository {
	return &rentalEpisodeRepository{db: db}
}

func (r *rentalEpisodeRepository) Append(ctx context.Context, ep *model.RentalEpisode) error {
	return translateError(GetDB(ctx, r.db).Create(ep).Error)
}

func (r *rentalEpisodeRepository) ListByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]model.RentalEpisode, error) {
	var eps []model.RentalEpisode
	if err := GetDB(ctx, r.db).Where("equipment_id = ?", equipmentID).
		Order("return_date asc, created_at asc").Find(&eps).Error; err != nil {
		return nil, err
	}
	return eps, nil
}

func (r *rentalEpisodeRepository) List(ctx context.Context, page, limit int) ([]model.RentalEpisode, int64, error) {
	var eps []model.RentalEpisode
	var total int64

	db := GetDB(ctx, r.db).Model(&model.RentalEpisode{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at asc, id asc").Offset(offset).Limit(limit).Find(&eps).Error; err != nil {
		return nil, 0, err
	}

	return eps, total, nil
}

func (r *rentalEpisodeRepository) CorrectCA(ctx context.Context, id uuid.UUID, res billing.Result) error {
	result := GetDB(ctx, r.db).Model(&model.RentalEpisode{}).Where("id = ?", id).Updates(map[string]interface{}{
		"ca":                      res.CA,
		"long_duration_discount":  res.LongDurationDiscountApplied,
		"minimum_invoice_applied": res.MinimumInvoiceApplied,
		"minimum_invoice_amount":  res.MinimumInvoiceAmountUsed,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
