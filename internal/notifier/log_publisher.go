package notifier

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes events to the log. It is the default backend when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.logger.Info("order event",
		zap.String("event_type", event.Type),
		zap.String("event_id", event.ID),
		zap.String("order_id", event.OrderID),
		zap.ByteString("payload", event.Payload))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
