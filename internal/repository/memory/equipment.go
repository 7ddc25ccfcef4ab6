package memory

import (
	"context"
	"strings"

	"rentalyard/internal/model"
	"rentalyard/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

// unitRecord is the memdb row; stored records are never mutated.
type unitRecord struct {
	ID     string
	Serial string
	Seq    uint64
	Unit   model.EquipmentUnit
}

// EquipmentRepository provides in-memory equipment storage
type EquipmentRepository struct {
	store *Store
}

var _ repository.EquipmentRepository = (*EquipmentRepository)(nil)

func findUnit(txn *memdb.Txn, id uuid.UUID) (*unitRecord, error) {
	obj, err := txn.First(tableEquipment, "id", id.String())
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, repository.ErrNotFound
	}
	return obj.(*unitRecord), nil
}

func (r *EquipmentRepository) Create(ctx context.Context, unit *model.EquipmentUnit) error {
	if unit == nil {
		return errNilRecord
	}
	return r.store.write(ctx, OpEquipmentCreate, func(txn *memdb.Txn) error {
		existing, err := txn.First(tableEquipment, "serial", unit.SerialNumber)
		if err != nil {
			return err
		}
		if existing != nil {
			return repository.ErrDuplicate
		}
		if unit.ID == uuid.Nil {
			unit.ID = uuid.New()
		}
		if _, err := findUnit(txn, unit.ID); err == nil {
			return repository.ErrDuplicate
		}
		now := r.store.now()
		unit.CreatedAt = now
		unit.UpdatedAt = now
		return txn.Insert(tableEquipment, &unitRecord{
			ID:     unit.ID.String(),
			Serial: unit.SerialNumber,
			Seq:    r.store.nextSeq(),
			Unit:   *unit,
		})
	})
}

func (r *EquipmentRepository) Update(ctx context.Context, unit *model.EquipmentUnit) error {
	if unit == nil {
		return errNilRecord
	}
	return r.store.write(ctx, OpEquipmentUpdate, func(txn *memdb.Txn) error {
		current, err := findUnit(txn, unit.ID)
		if err != nil {
			return err
		}
		// memdb overwrites unique index entries instead of rejecting them.
		if unit.SerialNumber != current.Serial {
			clash, err := txn.First(tableEquipment, "serial", unit.SerialNumber)
			if err != nil {
				return err
			}
			if clash != nil {
				return repository.ErrDuplicate
			}
		}
		unit.UpdatedAt = r.store.now()
		return txn.Insert(tableEquipment, &unitRecord{
			ID:     current.ID,
			Serial: unit.SerialNumber,
			Seq:    current.Seq,
			Unit:   *unit,
		})
	})
}

func (r *EquipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.EquipmentUnit, error) {
	var out model.EquipmentUnit
	err := r.store.read(ctx, func(txn *memdb.Txn) error {
		rec, err := findUnit(txn, id)
		if err != nil {
			return err
		}
		out = rec.Unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByIDForUpdate needs no row lock here: write transactions are already serialized.
func (r *EquipmentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.EquipmentUnit, error) {
	return r.FindByID(ctx, id)
}

func (r *EquipmentRepository) List(ctx context.Context, filter repository.EquipmentFilter, page, limit int) ([]model.EquipmentUnit, int64, error) {
	var matched []model.EquipmentUnit
	search := strings.ToLower(filter.Search)
	err := r.store.read(ctx, func(txn *memdb.Txn) error {
		// Newest first, like the SQL ordering.
		return each(txn, tableEquipment, "seq", true, func(obj interface{}) {
			u := obj.(*unitRecord).Unit
			if filter.Status != "" && u.Status != filter.Status {
				return
			}
			if filter.Category != "" && u.Category != filter.Category {
				return
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(u.Designation), search) &&
				!strings.Contains(strings.ToLower(u.SerialNumber), search) {
				return
			}
			matched = append(matched, u)
		})
	})
	if err != nil {
		return nil, 0, err
	}

	from, to := paginate(len(matched), page, limit)
	return matched[from:to], int64(len(matched)), nil
}
