package memory

import (
	"context"
	"sort"

	"rentalyard/internal/billing"
	"rentalyard/internal/model"
	"rentalyard/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

type rentalRecord struct {
	ID          string
	EquipmentID string
	Seq         uint64
	Episode     model.RentalEpisode
}

type maintenanceRecord struct {
	ID          string
	EquipmentID string
	Seq         uint64
	Episode     model.MaintenanceEpisode
}

// RentalEpisodeRepository provides in-memory rental history
type RentalEpisodeRepository struct {
	store *Store
}

var _ repository.RentalEpisodeRepository = (*RentalEpisodeRepository)(nil)

func (r *RentalEpisodeRepository) Append(ctx context.Context, ep *model.RentalEpisode) error {
	if ep == nil {
		return errNilRecord
	}
	return r.store.write(ctx, OpRentalAppend, func(txn *memdb.Txn) error {
		if ep.ID == uuid.Nil {
			ep.ID = uuid.New()
		}
		ep.CreatedAt = r.store.now()
		return txn.Insert(tableRentals, &rentalRecord{
			ID:          ep.ID.String(),
			EquipmentID: ep.EquipmentID.String(),
			Seq:         r.store.nextSeq(),
			Episode:     *ep,
		})
	})
}

func (r *RentalEpisodeRepository) ListByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]model.RentalEpisode, error) {
	var recs []*rentalRecord
	err := r.store.read(ctx, func(txn *memdb.Txn) error {
		it, err := txn.Get(tableRentals, "equipment", equipmentID.String())
		if err != nil {
			return err
		}
		for obj := it.Next(); obj != nil; obj = it.Next() {
			recs = append(recs, obj.(*rentalRecord))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i].Episode.ReturnDate, recs[j].Episode.ReturnDate
		if !a.Equal(b) {
			return a.Before(b)
		}
		return recs[i].Seq < recs[j].Seq
	})
	out := make([]model.RentalEpisode, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Episode)
	}
	return out, nil
}

// List pages through every episode in insertion order.
func (r *RentalEpisodeRepository) List(ctx context.Context, page, limit int) ([]model.RentalEpisode, int64, error) {
	var all []model.RentalEpisode
	err := r.store.read(ctx, func(txn *memdb.Txn) error {
		return each(txn, tableRentals, "seq", false, func(obj interface{}) {
			all = append(all, obj.(*rentalRecord).Episode)
		})
	})
	if err != nil {
		return nil, 0, err
	}
	from, to := paginate(len(all), page, limit)
	return all[from:to], int64(len(all)), nil
}

func (r *RentalEpisodeRepository) CorrectCA(ctx context.Context, id uuid.UUID, res billing.Result) error {
	return r.store.write(ctx, OpRentalCorrect, func(txn *memdb.Txn) error {
		obj, err := txn.First(tableRentals, "id", id.String())
		if err != nil {
			return err
		}
		if obj == nil {
			return repository.ErrNotFound
		}
		corrected := *obj.(*rentalRecord)
		corrected.Episode.ApplyResult(res)
		return txn.Insert(tableRentals, &corrected)
	})
}

// MaintenanceEpisodeRepository provides in-memory maintenance history
type MaintenanceEpisodeRepository struct {
	store *Store
}

var _ repository.MaintenanceEpisodeRepository = (*MaintenanceEpisodeRepository)(nil)

func (r *MaintenanceEpisodeRepository) Append(ctx context.Context, ep *model.MaintenanceEpisode) error {
	if ep == nil {
		return errNilRecord
	}
	return r.store.write(ctx, OpMaintenanceAppend, func(txn *memdb.Txn) error {
		if ep.ID == uuid.Nil {
			ep.ID = uuid.New()
		}
		ep.CreatedAt = r.store.now()
		return txn.Insert(tableMaintenance, &maintenanceRecord{
			ID:          ep.ID.String(),
			EquipmentID: ep.EquipmentID.String(),
			Seq:         r.store.nextSeq(),
			Episode:     *ep,
		})
	})
}

func (r *MaintenanceEpisodeRepository) ListByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]model.MaintenanceEpisode, error) {
	var recs []*maintenanceRecord
	err := r.store.read(ctx, func(txn *memdb.Txn) error {
		it, err := txn.Get(tableMaintenance, "equipment", equipmentID.String())
		if err != nil {
			return err
		}
		for obj := it.Next(); obj != nil; obj = it.Next() {
			recs = append(recs, obj.(*maintenanceRecord))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i].Episode.EnteredAt, recs[j].Episode.EnteredAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return recs[i].Seq < recs[j].Seq
	})
	out := make([]model.MaintenanceEpisode, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Episode)
	}
	return out, nil
}
