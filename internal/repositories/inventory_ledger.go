package repositories

import (
	"context"
	"fmt"

	"edhaus/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryLedger owns product stock counts. Its operations run on whatever
// handle it was built with; obtain it from a Store inside Store.Transaction so
// reservations and releases commit together with the rest of the unit of work.
type InventoryLedger interface {
	Reserve(ctx context.Context, productID string, quantity int) error
	Release(ctx context.Context, productID string, quantity int) error
	SetStock(ctx context.Context, productID string, stock int) error
}

// GORMInventoryLedger implements InventoryLedger with conditional updates on the products table.
type GORMInventoryLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGORMInventoryLedger(db *gorm.DB, logger *zap.Logger) *GORMInventoryLedger {
	return &GORMInventoryLedger{db: db, logger: logger}
}

// Reserve decrements stock by quantity if and only if enough stock remains,
// as one compare-and-decrement statement.
func (l *GORMInventoryLedger) Reserve(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("reserve %d of product %s: %w", quantity, productID, ErrInvalidQuantity)
	}
	db := l.db.WithContext(ctx)
	res := db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to reserve stock for product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product %s: %w", productID, err)
	}
	if count == 0 {
		return fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
	}
	return fmt.Errorf("reserve %d of product %s: %w", quantity, productID, ErrInsufficientStock)
}

// Release gives quantity back to the product's stock. Callers release each
// reserved item exactly once. A product that no longer exists is skipped.
func (l *GORMInventoryLedger) Release(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("release %d of product %s: %w", quantity, productID, ErrInvalidQuantity)
	}
	res := l.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to release stock for product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		l.logger.Warn("release skipped, product no longer exists",
			zap.String("product_id", productID), zap.Int("quantity", quantity))
	}
	return nil
}

// SetStock is the administrative direct edit of a product's stock.
func (l *GORMInventoryLedger) SetStock(ctx context.Context, productID string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("set stock %d of product %s: %w", stock, productID, ErrInvalidQuantity)
	}
	res := l.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", stock)
	if res.Error != nil {
		return fmt.Errorf("failed to set stock for product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", productID, ErrNotFound)
	}
	return nil
}
