package repositories

import (
	"context"

	"edhaus/internal/models"
)

// CartRepository defines the interface for per-user cart rows.
type CartRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.CartItem, error)
	Get(ctx context.Context, userID, productID string) (*models.CartItem, error)
	AddQuantity(ctx context.Context, userID, productID string, quantity int) error
	SetQuantity(ctx context.Context, userID, productID string, quantity int) error
	Delete(ctx context.Context, userID, productID string) error
	ClearForUser(ctx context.Context, userID string) (int64, error)
}
