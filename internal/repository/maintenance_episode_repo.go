package repository

import (
	"context"

	"rentalyard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MaintenanceEpisodeRepository interface {
	Append(ctx context.Context, ep *model.MaintenanceEpisode) error
	ListByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]model.MaintenanceEpisode, error)
}

type maintenanceEpisodeRepository struct {
	db *gorm.DB
}

func NewMaintenanceEpisodeRepository(db *gorm.DB) MaintenanceEpisodeRepository {
	return &maintenanceEpisodeRepository{db: db}
}

func (r *maintenanceEpisodeRepository) Append(ctx context.Context, ep *model.MaintenanceEpisode) error {
	return translateError(GetDB(ctx, r.db).Create(ep).Error)
}

func (r *maintenanceEpisodeRepository) ListByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]model.MaintenanceEpisode, error) {
	var eps []model.MaintenanceEpisode
	if err := GetDB(ctx, r.db).Where("equipment_id = ?", equipmentID).
		Order("entered_at asc").Find(&eps).Error; err != nil {
		return nil, err
	}
	return eps, nil
}
