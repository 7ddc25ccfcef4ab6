package memory

import (
	"context"

	"rentalyard/internal/model"
	"rentalyard/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

type auditRecord struct {
	ID  string
	Seq uint64
	Log model.AuditLog
}

// AuditRepository provides in-memory audit log storage
type AuditRepository struct {
	store *Store
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	if entry == nil {
		return errNilRecord
	}
	return r.store.write(ctx, OpAuditLog, func(txn *memdb.Txn) error {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		entry.CreatedAt = r.store.now()
		return txn.Insert(tableAudit, &auditRecord{
			ID:  entry.ID.String(),
			Seq: r.store.nextSeq(),
			Log: *entry,
		})
	})
}

func (r *AuditRepository) List(ctx context.Context, filter repository.AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	var matched []model.AuditLog
	err := r.store.read(ctx, func(txn *memdb.Txn) error {
		return each(txn, tableAudit, "seq", true, func(obj interface{}) {
			l := obj.(*auditRecord).Log
			if filter.Action != "" && l.Action != filter.Action {
				return
			}
			if filter.EntityID != "" && l.EntityID != filter.EntityID {
				return
			}
			matched = append(matched, l)
		})
	})
	if err != nil {
		return nil, 0, err
	}

	from, to := paginate(len(matched), page, limit)
	return matched[from:to], int64(len(matched)), nil
}
