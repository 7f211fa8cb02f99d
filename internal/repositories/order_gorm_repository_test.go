package repositories_test

import (
	"context"
	"testing"

	"edhaus/internal/models"
	"edhaus/internal/repositories"
	"edhaus/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(userID, productID string, key *string) *models.Order {
	return &models.Order{
		UserID:          userID,
		TotalAmount:     decimal.RequireFromString("20.00"),
		ShippingAddress: "1 Main St",
		Phone:           "555-0100",
		IdempotencyKey:  key,
		Items: []models.OrderItem{
			{ProductID: productID, Quantity: 2, Price: decimal.RequireFromString("10.00")},
		},
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMOrderRepository(db)
	ctx := context.Background()
	user := testutil.SeedUser(t, db, "buyer", models.RoleCustomer)
	p := testutil.SeedProduct(t, db, "Widget", "10.00", 5)

	order := newOrder(user.ID, p.ID, nil)
	require.NoError(t, repo.Create(ctx, order))
	assert.Equal(t, models.StatusPending, order.Status)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.TotalAmount.Equal(got.ItemsTotal()))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	orders, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderRepository_IdempotencyKeyIsUniquePerUser(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMOrderRepository(db)
	ctx := context.Background()
	alice := testutil.SeedUser(t, db, "alice", models.RoleCustomer)
	bob := testutil.SeedUser(t, db, "bob", models.RoleCustomer)
	p := testutil.SeedProduct(t, db, "Widget", "10.00", 5)
	key := "checkout-1"

	first := newOrder(alice.ID, p.ID, &key)
	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, newOrder(alice.ID, p.ID, &key)), repositories.ErrDuplicate)
	require.NoError(t, repo.Create(ctx, newOrder(bob.ID, p.ID, &key)))

	// Orders without a key never collide.
	require.NoError(t, repo.Create(ctx, newOrder(alice.ID, p.ID, nil)))
	require.NoError(t, repo.Create(ctx, newOrder(alice.ID, p.ID, nil)))

	found, err := repo.FindByIdempotencyKey(ctx, alice.ID, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = repo.FindByIdempotencyKey(ctx, alice.ID, "other")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOrderRepository_CompareAndSetStatus(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewGORMOrderRepository(db)
	ctx := context.Background()
	user := testutil.SeedUser(t, db, "buyer", models.RoleCustomer)
	p := testutil.SeedProduct(t, db, "Widget", "10.00", 5)
	order := newOrder(user.ID, p.ID, nil)
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.CompareAndSetStatus(ctx, order.ID, models.StatusPending, models.StatusProcessing, ""))
	err := repo.CompareAndSetStatus(ctx, order.ID, models.StatusPending, models.StatusCancelled, "")
	assert.ErrorIs(t, err, repositories.ErrStatusConflict)

	require.NoError(t, repo.CompareAndSetStatus(ctx, order.ID, models.StatusProcessing, models.StatusShipped, "TRK-1"))
	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, got.Status)
	assert.Equal(t, "TRK-1", got.TrackingNumber)

	shipped, err := repo.ListAll(ctx, models.StatusShipped)
	require.NoError(t, err)
	assert.Len(t, shipped, 1)
	pending, err := repo.ListAll(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
