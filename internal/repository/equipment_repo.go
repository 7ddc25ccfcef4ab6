package repository

import (
	"context"

	"rentalyard/internal/lifecycle"
	"rentalyard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EquipmentFilter struct {
	Status   lifecycle.Status
	Category string
	Search   string
}

type EquipmentRepository interface {
	Create(ctx context.Context, unit *model.EquipmentUnit) error
	Update(ctx context.Context, unit *model.EquipmentUnit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.EquipmentUnit, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.EquipmentUnit, error)
	List(ctx context.Context, filter EquipmentFilter, page, limit int) ([]model.EquipmentUnit, int64, error)
}

type equipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) Create(ctx context.Context, unit *model.EquipmentUnit) error {
	return translateError(GetDB(ctx, r.db).Create(unit).Error)
}

func (r *equipmentRepository) Update(ctx context.Context, unit *model.EquipmentUnit) error {
	return translateError(GetDB(ctx, r.db).Save(unit).Error)
}

func (r *equipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.EquipmentUnit, error) {
	var unit model.EquipmentUnit
	if err := GetDB(ctx, r.db).First(&unit, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &unit, nil
}

// FindByIDForUpdate row-locks the unit until the surrounding transaction ends.
func (r *equipmentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.EquipmentUnit, error) {
	var unit model.EquipmentUnit
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&unit).Error; err != nil {
		return nil, translateError(err)
	}
	return &unit, nil
}

func (r *equipmentRepository) List(ctx context.Context, filter EquipmentFilter, page, limit int) ([]model.EquipmentUnit, int64, error) {
	var units []model.EquipmentUnit
	var total int64

	db := GetDB(ctx, r.db).Model(&model.EquipmentUnit{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		db = db.Where("designation ILIKE ? OR serial_number ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&units).Error; err != nil {
		return nil, 0, err
	}

	return units, total, nil
}
