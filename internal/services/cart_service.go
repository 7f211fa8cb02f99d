package services

import (
	"context"
	"errors"
	"fmt"

	"edhaus/internal/models"
	"edhaus/internal/repositories"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CartService manages the persistent per-user cart. Mutations of one user's
// cart are serialised with that user's checkout through the Locker.
type CartService struct {
	store  *repositories.Store
	locker Locker
	logger *zap.Logger
}

func NewCartService(store *repositories.Store, locker Locker, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{store: store, locker: locker, logger: logger}
}

// View prices the cart at current product prices.
func (s *CartService) View(ctx context.Context, userID string) (*models.Cart, error) {
	items, err := s.store.Carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart := &models.Cart{UserID: userID, Items: make([]models.CartLine, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		line := models.CartLine{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			ImageURL:  item.Product.ImageURL,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			Total:     item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		cart.Items = append(cart.Items, line)
		cart.Total = cart.Total.Add(line.Total)
	}
	return cart, nil
}

// Add puts quantity more of the product in the cart. The resulting quantity
// must not exceed current stock.
func (s *CartService) Add(ctx context.Context, userID, productID string, quantity int) (cart *models.Cart, err error) {
	ctx, span := tracer.Start(ctx, "CartService.Add", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer func() { endSpan(span, err) }()

	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", ErrInvalidQuantity)
	}
	err = s.mutate(ctx, userID, func(tx *repositories.Store) error {
		product, err := tx.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		current := 0
		item, err := tx.Carts.Get(ctx, userID, productID)
		switch {
		case err == nil:
			current = item.Quantity
		case !errors.Is(err, repositories.ErrNotFound):
			return err
		}
		if current+quantity > product.Stock {
			return &InsufficientStockError{ProductID: productID}
		}
		return tx.Carts.AddQuantity(ctx, userID, productID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

// Update sets the quantity of a product in the cart; zero removes it.
func (s *CartService) Update(ctx context.Context, userID, productID string, quantity int) (cart *models.Cart, err error) {
	ctx, span := tracer.Start(ctx, "CartService.Update", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer func() { endSpan(span, err) }()

	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative: %w", ErrInvalidQuantity)
	}
	err = s.mutate(ctx, userID, func(tx *repositories.Store) error {
		if quantity == 0 {
			return tx.Carts.Delete(ctx, userID, productID)
		}
		product, err := tx.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if quantity > product.Stock {
			return &InsufficientStockError{ProductID: productID}
		}
		return tx.Carts.SetQuantity(ctx, userID, productID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

// Remove deletes a product from the cart.
func (s *CartService) Remove(ctx context.Context, userID, productID string) (*models.Cart, error) {
	err := s.mutate(ctx, userID, func(tx *repositories.Store) error {
		return tx.Carts.Delete(ctx, userID, productID)
	})
	if err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *CartService) mutate(ctx context.Context, userID string, fn func(tx *repositories.Store) error) error {
	unlock, err := s.locker.Lock(ctx, cartLockKey(userID))
	if err != nil {
		return fmt.Errorf("failed to lock cart: %w", err)
	}
	defer unlock()
	return s.store.Transaction(ctx, fn)
}
