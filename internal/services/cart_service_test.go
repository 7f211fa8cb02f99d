package services_test

import (
	"context"
	"testing"

	"edhaus/internal/models"
	"edhaus/internal/services"
	"edhaus/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddAccumulatesAndChecksStock(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	user := testutil.SeedUser(t, s.db, "shopper", models.RoleCustomer)
	p := testutil.SeedProduct(t, s.db, "Widget", "2.50", 5)

	_, err := s.carts.Add(ctx, user.ID, p.ID, 2)
	require.NoError(t, err)
	cart, err := s.carts.Add(ctx, user.ID, p.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("12.5")))

	_, err = s.carts.Add(ctx, user.ID, p.ID, 1)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)
	_, err = s.carts.Add(ctx, user.ID, p.ID, 0)
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)
	_, err = s.carts.Add(ctx, user.ID, "missing", 1)
	assert.ErrorIs(t, err, services.ErrNotFound)

	// Adding to the cart never reserves stock.
	assert.Equal(t, 5, testutil.Stock(t, s.db, p.ID))
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	user := testutil.SeedUser(t, s.db, "shopper", models.RoleCustomer)
	a := testutil.SeedProduct(t, s.db, "Alpha", "1.00", 5)
	b := testutil.SeedProduct(t, s.db, "Beta", "2.00", 5)

	cart, err := s.carts.Update(ctx, user.ID, a.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	_, err = s.carts.Update(ctx, user.ID, a.ID, 6)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)
	_, err = s.carts.Update(ctx, user.ID, a.ID, -1)
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)

	_, err = s.carts.Add(ctx, user.ID, b.ID, 1)
	require.NoError(t, err)
	cart, err = s.carts.Update(ctx, user.ID, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, b.ID, cart.Items[0].ProductID)

	cart, err = s.carts.Remove(ctx, user.ID, b.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())

	_, err = s.carts.Remove(ctx, user.ID, b.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
