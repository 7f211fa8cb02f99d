package notifier

import (
	"context"
	"encoding/json"
	"time"

	"edhaus/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Event is the envelope every backend publishes. OrderID doubles as the
// partition or routing key so events of one order stay ordered.
type Event struct {
	ID           string            `json:"event_id"`
	Type         string            `json:"event_type"`
	Version      int               `json:"event_version"`
	OccurredAt   time.Time         `json:"occurred_at"`
	OrderID      string            `json:"order_id"`
	TraceContext map[string]string `json:"trace_context,omitempty"`
	Payload      json.RawMessage   `json:"payload"`
}

type ItemPayload struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []ItemPayload   `json:"items"`
}

type StatusChangedPayload struct {
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

// OrderPlaced builds the event emitted after a checkout commits.
func OrderPlaced(ctx context.Context, order *models.Order) Event {
	items := make([]ItemPayload, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, ItemPayload{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return newEvent(ctx, EventOrderPlaced, order.ID, OrderPlacedPayload{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		Items:       items,
	})
}

// OrderStatusChanged builds the event emitted after a committed transition.
func OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) Event {
	return newEvent(ctx, EventOrderStatusChanged, order.ID, StatusChangedPayload{
		OrderID:        order.ID,
		UserID:         order.UserID,
		PreviousStatus: string(previous),
		Status:         string(order.Status),
		TrackingNumber: order.TrackingNumber,
	})
}

func newEvent(ctx context.Context, eventType, orderID string, payload any) Event {
	// Payload types only hold strings, ints and decimals.
	raw, _ := json.Marshal(payload)
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	ev := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Version:    1,
		OccurredAt: time.Now().UTC(),
		OrderID:    orderID,
		Payload:    raw,
	}
	if len(carrier) > 0 {
		ev.TraceContext = carrier
	}
	return ev
}
