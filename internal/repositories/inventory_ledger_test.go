package repositories_test

import (
	"context"
	"testing"

	"edhaus/internal/repositories"
	"edhaus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInventoryLedger_Reserve(t *testing.T) {
	db := testutil.NewDB(t)
	ledger := repositories.NewGORMInventoryLedger(db, zap.NewNop())
	ctx := context.Background()
	p := testutil.SeedProduct(t, db, "Widget", "10.00", 5)

	require.NoError(t, ledger.Reserve(ctx, p.ID, 3))
	assert.Equal(t, 2, testutil.Stock(t, db, p.ID))

	err := ledger.Reserve(ctx, p.ID, 3)
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)
	assert.Equal(t, 2, testutil.Stock(t, db, p.ID))

	require.NoError(t, ledger.Reserve(ctx, p.ID, 2))
	assert.Equal(t, 0, testutil.Stock(t, db, p.ID))

	assert.ErrorIs(t, ledger.Reserve(ctx, "missing", 1), repositories.ErrNotFound)
	assert.ErrorIs(t, ledger.Reserve(ctx, p.ID, 0), repositories.ErrInvalidQuantity)
}

func TestInventoryLedger_Release(t *testing.T) {
	db := testutil.NewDB(t)
	ledger := repositories.NewGORMInventoryLedger(db, zap.NewNop())
	ctx := context.Background()
	p := testutil.SeedProduct(t, db, "Widget", "10.00", 1)

	require.NoError(t, ledger.Release(ctx, p.ID, 4))
	assert.Equal(t, 5, testutil.Stock(t, db, p.ID))

	// Stock of a deleted product cannot be restored; the call still succeeds.
	assert.NoError(t, ledger.Release(ctx, "gone", 2))
	assert.ErrorIs(t, ledger.Release(ctx, p.ID, -1), repositories.ErrInvalidQuantity)
}

func TestInventoryLedger_SetStock(t *testing.T) {
	db := testutil.NewDB(t)
	ledger := repositories.NewGORMInventoryLedger(db, zap.NewNop())
	ctx := context.Background()
	p := testutil.SeedProduct(t, db, "Widget", "10.00", 1)

	require.NoError(t, ledger.SetStock(ctx, p.ID, 40))
	assert.Equal(t, 40, testutil.Stock(t, db, p.ID))
	assert.ErrorIs(t, ledger.SetStock(ctx, p.ID, -1), repositories.ErrInvalidQuantity)
	assert.ErrorIs(t, ledger.SetStock(ctx, "missing", 1), repositories.ErrNotFound)
}

func TestStore_TransactionRollsBackLedger(t *testing.T) {
	db := testutil.NewDB(t)
	store := repositories.NewStore(db, zap.NewNop())
	ctx := context.Background()
	a := testutil.SeedProduct(t, db, "Alpha", "1.00", 5)
	b := testutil.SeedProduct(t, db, "Beta", "1.00", 1)

	err := store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Ledger.Reserve(ctx, a.ID, 5); err != nil {
			return err
		}
		return tx.Ledger.Reserve(ctx, b.ID, 2)
	})
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)
	assert.Equal(t, 5, testutil.Stock(t, db, a.ID))
	assert.Equal(t, 1, testutil.Stock(t, db, b.ID))
}
