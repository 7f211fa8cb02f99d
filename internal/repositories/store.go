package repositories

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store bundles the repositories over one database handle. Inside Transaction
// every repository of the Store passed to fn shares the same transaction.
type Store struct {
	db         *gorm.DB
	logger     *zap.Logger
	Products   ProductRepository
	Categories CategoryRepository
	Users      UserRepository
	Carts      CartRepository
	Orders     OrderRepository
	Ledger     InventoryLedger
}

// NewStore creates a Store backed by GORM repositories.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:         db,
		logger:     logger,
		Products:   NewGORMProductRepository(db),
		Categories: NewGORMCategoryRepository(db),
		Users:      NewGORMUserRepository(db),
		Carts:      NewGORMCartRepository(db),
		Orders:     NewGORMOrderRepository(db),
		Ledger:     NewGORMInventoryLedger(db, logger),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn in a single database transaction. fn must only use the
// Store it is given; returning an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx, s.logger))
	})
}
