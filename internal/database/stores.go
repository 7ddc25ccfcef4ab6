package database

import (
	"fmt"

	"rentalyard/internal/config"
	"rentalyard/internal/repository"
	"rentalyard/internal/repository/memory"

	"go.uber.org/zap"
)

// Stores groups the repositories of one storage backend.
type Stores struct {
	Equipment   repository.EquipmentRepository
	Rentals     repository.RentalEpisodeRepository
	Maintenance repository.MaintenanceEpisodeRepository
	Audit       repository.AuditRepository
	Revenue     repository.RevenueRepository
	Tx          repository.TransactionManager

	close func() error
}

// Open builds the repositories for cfg.DB.Driver.
func Open(cfg *config.Config, log *zap.Logger) (*Stores, error) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return NewMemoryStores(memory.NewStore()), nil
	case config.DriverPostgres:
		db, err := NewConnection(cfg.DSN(), log)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		log.Info("connected to PostgreSQL", zap.String("host", cfg.DB.Host), zap.String("database", cfg.DB.Name))
		return &Stores{
			Equipment:   repository.NewEquipmentRepository(db),
			Rentals:     repository.NewRentalEpisodeRepository(db),
			Maintenance: repository.NewMaintenanceEpisodeRepository(db),
			Audit:       repository.NewAuditRepository(db),
			Revenue:     repository.NewRevenueRepository(db),
			Tx:          repository.NewTransactionManager(db),
			close:       sqlDB.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
}

// NewMemoryStores wraps an in-memory store.
func NewMemoryStores(s *memory.Store) *Stores {
	return &Stores{
		Equipment:   s.Equipment(),
		Rentals:     s.RentalEpisodes(),
		Maintenance: s.MaintenanceEpisodes(),
		Audit:       s.Audit(),
		Revenue:     s.Revenue(),
		Tx:          s,
	}
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
