package services_test

import (
	"context"
	"testing"

	"edhaus/internal/models"
	"edhaus/internal/notifier"
	"edhaus/internal/services"
	"edhaus/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// placeOrder checks out a cart of the given (product, quantity) lines for user.
func placeOrder(t *testing.T, s *shop, userID string, lines map[string]int) *models.Order {
	t.Helper()
	ctx := context.Background()
	for productID, qty := range lines {
		_, err := s.carts.Add(ctx, userID, productID, qty)
		require.NoError(t, err)
	}
	order, err := s.checkout.Checkout(ctx, userID, delivery)
	require.NoError(t, err)
	return order
}

func TestOrderService_CancelRestoresExactStock(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	user := testutil.SeedUser(t, s.db, "buyer", models.RoleCustomer)
	p1 := testutil.SeedProduct(t, s.db, "P1", "3.00", 10)
	p2 := testutil.SeedProduct(t, s.db, "P2", "4.00", 4)
	order := placeOrder(t, s, user.ID, map[string]int{p1.ID: 3, p2.ID: 1})
	require.Equal(t, 7, testutil.Stock(t, s.db, p1.ID))
	require.Equal(t, 3, testutil.Stock(t, s.db, p2.ID))

	_, err := s.orders.Cancel(ctx, order.ID, services.Actor{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, 10, testutil.Stock(t, s.db, p1.ID))
	assert.Equal(t, 4, testutil.Stock(t, s.db, p2.ID))

	// A second cancel is illegal and must not release again.
	_, err = s.orders.Cancel(ctx, order.ID, services.Actor{UserID: user.ID})
	assert.ErrorIs(t, err, services.ErrIllegalTransition)
	assert.Equal(t, 10, testutil.Stock(t, s.db, p1.ID))
	assert.Equal(t, 4, testutil.Stock(t, s.db, p2.ID))
}

func TestOrderService_CancelShippedIsIllegal(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	user := testutil.SeedUser(t, s.db, "buyer", models.RoleCustomer)
	p := testutil.SeedProduct(t, s.db, "P", "1.00", 5)
	order := placeOrder(t, s, user.ID, map[string]int{p.ID: 2})

	_, err := s.orders.SetStatus(ctx, order.ID, "processing", "")
	require.NoError(t, err)
	shipped, err := s.orders.SetStatus(ctx, order.ID, "shipped", "TRK-42")
	require.NoError(t, err)
	assert.Equal(t, "TRK-42", shipped.TrackingNumber)

	for _, actor := range []services.Actor{{UserID: user.ID}, {UserID: "admin", Admin: true}} {
		_, err = s.orders.Cancel(ctx, order.ID, actor)
		assert.ErrorIs(t, err, services.ErrIllegalTransition)
	}
	stored, err := s.store.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, stored.Status)
	assert.Equal(t, 3, testutil.Stock(t, s.db, p.ID))
}

func TestOrderService_CancelPermissions(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	owner := testutil.SeedUser(t, s.db, "owner", models.RoleCustomer)
	stranger := testutil.SeedUser(t, s.db, "stranger", models.RoleCustomer)
	p := testutil.SeedProduct(t, s.db, "P", "1.00", 10)

	order := placeOrder(t, s, owner.ID, map[string]int{p.ID: 1})
	_, err := s.orders.Cancel(ctx, order.ID, services.Actor{UserID: stranger.ID})
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = s.orders.Cancel(ctx, "missing", services.Actor{UserID: owner.ID})
	assert.ErrorIs(t, err, services.ErrNotFound)

	// Processing orders: owner may not cancel, an admin may.
	_, err = s.orders.SetStatus(ctx, order.ID, "processing", "")
	require.NoError(t, err)
	_, err = s.orders.Cancel(ctx, order.ID, services.Actor{UserID: owner.ID})
	assert.ErrorIs(t, err, services.ErrIllegalTransition)
	assert.Equal(t, 9, testutil.Stock(t, s.db, p.ID))

	cancelled, err := s.orders.Cancel(ctx, order.ID, services.Actor{UserID: "admin", Admin: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, testutil.Stock(t, s.db, p.ID))
}

func TestOrderService_SetStatus(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	user := testutil.SeedUser(t, s.db, "buyer", models.RoleCustomer)
	p := testutil.SeedProduct(t, s.db, "P", "1.00", 10)
	order := placeOrder(t, s, user.ID, map[string]int{p.ID: 4})

	_, err := s.orders.SetStatus(ctx, order.ID, "teleported", "")
	assert.ErrorIs(t, err, services.ErrInvalidStatus)
	_, err = s.orders.SetStatus(ctx, order.ID, "delivered", "")
	assert.ErrorIs(t, err, services.ErrIllegalTransition)
	_, err = s.orders.SetStatus(ctx, order.ID, "pending", "")
	assert.ErrorIs(t, err, services.ErrIllegalTransition)
	_, err = s.orders.SetStatus(ctx, "missing", "processing", "")
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = s.orders.SetStatus(ctx, order.ID, "processing", "")
	require.NoError(t, err)
	cancelled, err := s.orders.SetStatus(ctx, order.ID, "cancelled", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, testutil.Stock(t, s.db, p.ID))

	s.notifier.AssertCalled(t, "Notify", mock.Anything, mock.MatchedBy(func(ev notifier.Event) bool {
		return ev.Type == notifier.EventOrderStatusChanged && ev.OrderID == order.ID
	}))
}

func TestOrderService_Reads(t *testing.T) {
	ctx := context.Background()
	s := newShop(t)
	alice := testutil.SeedUser(t, s.db, "alice", models.RoleCustomer)
	bob := testutil.SeedUser(t, s.db, "bob", models.RoleCustomer)
	p := testutil.SeedProduct(t, s.db, "P", "1.00", 10)
	aliceOrder := placeOrder(t, s, alice.ID, map[string]int{p.ID: 1})
	placeOrder(t, s, bob.ID, map[string]int{p.ID: 1})

	mine, err := s.orders.ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, aliceOrder.ID, mine[0].ID)

	_, err = s.orders.GetForUser(ctx, aliceOrder.ID, services.Actor{UserID: bob.ID})
	assert.ErrorIs(t, err, services.ErrNotFound)
	got, err := s.orders.GetForUser(ctx, aliceOrder.ID, services.Actor{UserID: "root", Admin: true})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)

	all, err := s.orders.ListAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	pending, err := s.orders.ListAll(ctx, "pending")
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	_, err = s.orders.ListAll(ctx, "lost")
	assert.ErrorIs(t, err, services.ErrInvalidStatus)
}
