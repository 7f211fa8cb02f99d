package services

import (
	"context"
	"errors"
	"fmt"

	"edhaus/internal/metrics"
	"edhaus/internal/models"
	"edhaus/internal/notifier"
	"edhaus/internal/repositories"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Actor is the caller of an order operation.
type Actor struct {
	UserID string
	Admin  bool
}

// OrderService reads orders and moves them through the status graph.
type OrderService struct {
	store    *repositories.Store
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(store *repositories.Store, n Notifier, m *metrics.Metrics, logger *zap.Logger) *OrderService {
	if n == nil {
		n = notifier.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{store: store, notifier: n, metrics: m, logger: logger}
}

// ListForUser returns the user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.Orders.ListByUser(ctx, userID)
}

// GetForUser returns an order the actor may see. Orders of other users look absent.
func (s *OrderService) GetForUser(ctx context.Context, orderID string, actor Actor) (*models.Order, error) {
	order, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(order, actor) {
		return nil, fmt.Errorf("order with ID %s: %w", orderID, ErrNotFound)
	}
	return order, nil
}

// ListAll returns every order, optionally only those in status.
func (s *OrderService) ListAll(ctx context.Context, status string) ([]models.Order, error) {
	var filter models.OrderStatus
	if status != "" {
		parsed, err := models.ParseOrderStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidStatus)
		}
		filter = parsed
	}
	return s.store.Orders.ListAll(ctx, filter)
}

// Cancel cancels an order and returns its items to stock. Owners may cancel
// pending orders; admins may also cancel orders in processing.
func (s *OrderService) Cancel(ctx context.Context, orderID string, actor Actor) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Cancel", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("user.id", actor.UserID),
		attribute.Bool("actor.admin", actor.Admin),
	))
	defer func() { endSpan(span, err) }()

	var previous models.OrderStatus
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		current, err := tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		order = current
		if !visibleTo(current, actor) {
			return fmt.Errorf("order with ID %s: %w", orderID, ErrNotFound)
		}
		if !actor.Admin && current.Status != models.StatusPending {
			return fmt.Errorf("only pending orders can be cancelled, order is %s: %w", current.Status, ErrIllegalTransition)
		}
		previous = current.Status
		return s.transition(ctx, tx, current, models.StatusCancelled, "")
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, order, previous)
	return order, nil
}

// SetStatus is the administrative status change. Moving into cancelled
// returns the items to stock exactly like Cancel.
func (s *OrderService) SetStatus(ctx context.Context, orderID, status, trackingNumber string) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.SetStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", status),
	))
	defer func() { endSpan(span, err) }()

	to, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidStatus)
	}

	var previous models.OrderStatus
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		current, err := tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		order = current
		previous = current.Status
		return s.transition(ctx, tx, current, to, trackingNumber)
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, order, previous)
	return order, nil
}

// transition applies one edge of the status graph inside tx. The status
// update is conditional on the status read earlier, so of two concurrent
// transitions out of the same state only one commits, and stock is released
// at most once.
func (s *OrderService) transition(ctx context.Context, tx *repositories.Store, order *models.Order, to models.OrderStatus, trackingNumber string) error {
	if !models.CanTransition(order.Status, to) {
		return fmt.Errorf("cannot move order from %s to %s: %w", order.Status, to, ErrIllegalTransition)
	}
	if to.Releases() {
		for _, item := range order.Items {
			if err := tx.Ledger.Release(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
	}
	err := tx.Orders.CompareAndSetStatus(ctx, order.ID, order.Status, to, trackingNumber)
	if errors.Is(err, repositories.ErrStatusConflict) {
		return fmt.Errorf("%v: %w", err, ErrIllegalTransition)
	}
	if err != nil {
		return err
	}
	order.Status = to
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	return nil
}

// committed records and emits a transition that has been committed.
func (s *OrderService) committed(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	s.metrics.Transition(string(previous), string(order.Status))
	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(order.Status)))
	s.notifier.Notify(ctx, notifier.OrderStatusChanged(ctx, order, previous))
}

func visibleTo(order *models.Order, actor Actor) bool {
	return actor.Admin || order.UserID == actor.UserID
}
