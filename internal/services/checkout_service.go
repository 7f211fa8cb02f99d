package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"edhaus/internal/metrics"
	"edhaus/internal/models"
	"edhaus/internal/notifier"
	"edhaus/internal/repositories"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Notifier receives events after the change they describe has committed.
// Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, event notifier.Event)
}

// CheckoutRequest carries the delivery details of a checkout.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required,max=500"`
	Phone           string `json:"phone" validate:"required,max=32"`
	// IdempotencyKey, when set, makes a repeated checkout return the first order.
	IdempotencyKey string `json:"-"`
}

// CheckoutService turns a user's cart into a pending order.
type CheckoutService struct {
	store    *repositories.Store
	locker   Locker
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewCheckoutService(store *repositories.Store, locker Locker, n Notifier, m *metrics.Metrics, logger *zap.Logger) *CheckoutService {
	if n == nil {
		n = notifier.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{store: store, locker: locker, notifier: n, metrics: m, logger: logger}
}

// Checkout reserves stock for every cart entry, records the order with
// snapshot prices and empties the cart, all in one transaction. Either all
// of it happens or none of it does.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, req CheckoutRequest) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.Checkout", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(req.ShippingAddress) == "" || strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("shipping address and phone are required: %w", ErrValidation)
	}

	unlock, err := s.locker.Lock(ctx, cartLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	defer unlock()

	if req.IdempotencyKey != "" {
		existing, err := s.replay(ctx, userID, req.IdempotencyKey)
		if existing != nil || err != nil {
			return existing, err
		}
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		order, err = s.placeOrder(ctx, tx, userID, req)
		return err
	})
	if err != nil {
		if req.IdempotencyKey != "" && errors.Is(err, repositories.ErrDuplicate) {
			// Another instance committed the same key first.
			if existing, replayErr := s.replay(ctx, userID, req.IdempotencyKey); existing != nil || replayErr != nil {
				return existing, replayErr
			}
		}
		s.recordFailure(err)
		return nil, err
	}

	s.metrics.Checkout(metrics.CheckoutPlaced)
	span.SetAttributes(attribute.String("order.id", order.ID))
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	s.notifier.Notify(ctx, notifier.OrderPlaced(ctx, order))
	return order, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, tx *repositories.Store, userID string, req CheckoutRequest) (*models.Order, error) {
	entries, err := tx.Carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCart
	}

	// Validate everything before touching stock so the first short product is the one reported.
	for _, entry := range entries {
		if entry.Product == nil {
			return nil, fmt.Errorf("product with ID %s: %w", entry.ProductID, ErrNotFound)
		}
		if entry.Quantity > entry.Product.Stock {
			return nil, &InsufficientStockError{ProductID: entry.ProductID}
		}
	}

	order := &models.Order{
		UserID:          userID,
		Status:          models.StatusPending,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		Phone:           strings.TrimSpace(req.Phone),
		Items:           make([]models.OrderItem, 0, len(entries)),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		order.IdempotencyKey = &key
	}

	total := decimal.Zero
	for _, entry := range entries {
		if err := tx.Ledger.Reserve(ctx, entry.ProductID, entry.Quantity); err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return nil, &InsufficientStockError{ProductID: entry.ProductID}
			}
			return nil, err
		}
		item := models.OrderItem{
			ProductID: entry.ProductID,
			Quantity:  entry.Quantity,
			Price:     entry.Product.Price,
		}
		order.Items = append(order.Items, item)
		total = total.Add(item.Subtotal())
	}
	order.TotalAmount = total

	if err := tx.Orders.Create(ctx, order); err != nil {
		return nil, err
	}
	if _, err := tx.Carts.ClearForUser(ctx, userID); err != nil {
		return nil, err
	}
	return order, nil
}

// replay returns the order already placed under key, or nil if there is none.
func (s *CheckoutService) replay(ctx context.Context, userID, key string) (*models.Order, error) {
	existing, err := s.store.Orders.FindByIdempotencyKey(ctx, userID, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.metrics.Checkout(metrics.CheckoutReplayed)
	s.logger.Info("checkout replayed", zap.String("order_id", existing.ID), zap.String("user_id", userID))
	return existing, nil
}

func (s *CheckoutService) recordFailure(err error) {
	var stockErr *InsufficientStockError
	switch {
	case errors.Is(err, ErrEmptyCart):
		s.metrics.Checkout(metrics.CheckoutEmptyCart)
	case errors.As(err, &stockErr):
		s.metrics.Checkout(metrics.CheckoutInsufficientStock)
		s.logger.Info("checkout rejected", zap.String("product_id", stockErr.ProductID))
	default:
		s.metrics.Checkout(metrics.CheckoutFailed)
		s.logger.Error("checkout failed", zap.Error(err))
	}
}
