// Package memory provides in-process implementations of the repository
// interfaces on top of go-memdb. Write transactions are serialized by
// memdb; readers see the last committed snapshot.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"rentalyard/internal/repository"

	"github.com/hashicorp/go-memdb"
)

// Operation names accepted by FailNext.
const (
	OpEquipmentCreate   = "equipment.create"
	OpEquipmentUpdate   = "equipment.update"
	OpRentalAppend      = "rental.append"
	OpRentalCorrect     = "rental.correct"
	OpMaintenanceAppend = "maintenance.append"
	OpAuditLog          = "audit.log"
	OpCommit            = "commit"
)

const (
	tableEquipment   = "equipment"
	tableRentals     = "rental_episodes"
	tableMaintenance = "maintenance_episodes"
	tableAudit       = "audit_logs"
)

type txKey struct{}

func idIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}}
}

// seqIndex keeps insertion order, which memdb ids (random uuids) do not.
func seqIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{Name: "seq", Unique: true, Indexer: &memdb.UintFieldIndex{Field: "Seq"}}
}

func equipmentIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{Name: "equipment", Indexer: &memdb.StringFieldIndex{Field: "EquipmentID"}}
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableEquipment: {
				Name: tableEquipment,
				Indexes: map[string]*memdb.IndexSchema{
					"id":  idIndex(),
					"seq": seqIndex(),
					"serial": {
						Name:         "serial",
						Unique:       true,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "Serial"},
					},
				},
			},
			tableRentals: {
				Name:    tableRentals,
				Indexes: map[string]*memdb.IndexSchema{"id": idIndex(), "seq": seqIndex(), "equipment": equipmentIndex()},
			},
			tableMaintenance: {
				Name:    tableMaintenance,
				Indexes: map[string]*memdb.IndexSchema{"id": idIndex(), "seq": seqIndex(), "equipment": equipmentIndex()},
			},
			tableAudit: {
				Name:    tableAudit,
				Indexes: map[string]*memdb.IndexSchema{"id": idIndex(), "seq": seqIndex()},
			},
		},
	}
}

// Store holds every table. The zero value is not usable; call NewStore.
type Store struct {
	db  *memdb.MemDB
	seq atomic.Uint64

	faultMu sync.Mutex
	faults  map[string]error

	now func() time.Time
}

func NewStore() *Store {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		panic("memory: invalid schema: " + err.Error())
	}
	return &Store{
		db:     db,
		faults: make(map[string]error),
		now:    time.Now,
	}
}

// WithClock replaces the timestamp source used for created/updated columns.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// FailNext makes the next call of op return err. Used to simulate storage failures.
func (s *Store) FailNext(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return err
}

func (s *Store) nextSeq() uint64 { return s.seq.Add(1) }

func (s *Store) Equipment() *EquipmentRepository { return &EquipmentRepository{store: s} }

func (s *Store) RentalEpisodes() *RentalEpisodeRepository { return &RentalEpisodeRepository{store: s} }

func (s *Store) MaintenanceEpisodes() *MaintenanceEpisodeRepository {
	return &MaintenanceEpisodeRepository{store: s}
}

func (s *Store) Audit() *AuditRepository { return &AuditRepository{store: s} }

func (s *Store) Revenue() *RevenueRepository { return &RevenueRepository{store: s} }

var _ repository.TransactionManager = (*Store)(nil)

// RunInTx implements repository.TransactionManager. A nested call joins the
// outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*memdb.Txn); ok {
		return fn(ctx)
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := fn(context.WithValue(ctx, txKey{}, txn)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fault(OpCommit); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// read runs fn in the transaction carried by ctx, otherwise on a read snapshot.
func (s *Store) read(ctx context.Context, fn func(txn *memdb.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if txn, ok := ctx.Value(txKey{}).(*memdb.Txn); ok {
		return fn(txn)
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(txn)
}

// write is read for mutations. Outside a transaction it behaves as a
// single-statement transaction.
func (s *Store) write(ctx context.Context, op string, fn func(txn *memdb.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fault(op); err != nil {
		return err
	}
	if txn, ok := ctx.Value(txKey{}).(*memdb.Txn); ok {
		return fn(txn)
	}

	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// each calls fn for every object of table in index order, newest first when reverse.
func each(txn *memdb.Txn, table, index string, reverse bool, fn func(obj interface{})) error {
	var (
		it  memdb.ResultIterator
		err error
	)
	if reverse {
		it, err = txn.GetReverse(table, index)
	} else {
		it, err = txn.Get(table, index)
	}
	if err != nil {
		return err
	}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		fn(obj)
	}
	return nil
}

var errNilRecord = errors.New("nil record")

func paginate(total, page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return 0, 0
	}
	from := (page - 1) * limit
	if from > total {
		from = total
	}
	to := from + limit
	if to > total {
		to = total
	}
	return from, to
}
