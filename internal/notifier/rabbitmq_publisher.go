package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"edhaus/pkg/rabbitmq"
)

// RabbitMQPublisher publishes events to a topic exchange with routing keys
// such as "order.orderplaced".
type RabbitMQPublisher struct {
	client *rabbitmq.Client
}

func NewRabbitMQPublisher(client *rabbitmq.Client) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func RoutingKey(eventType string) string {
	return "order." + strings.ToLower(eventType)
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}
	headers := map[string]string{"x-event-type": event.Type}
	for k, v := range event.TraceContext {
		headers[k] = v
	}
	return p.client.Publish(ctx, RoutingKey(event.Type), event.ID, body, headers)
}

func (p *RabbitMQPublisher) Close() error {
	return p.client.Close()
}
