package notifier

import (
	"context"
	"strconv"

	kafkax "edhaus/pkg/kafka"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events to one topic keyed by order id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(client *kafkax.Client, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: client.NewWriter(topic)}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	headers := []kafka.Header{
		{Key: "x-event-type", Value: []byte(event.Type)},
		{Key: "x-event-version", Value: []byte(strconv.Itoa(event.Version))},
	}
	for k, v := range event.TraceContext {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafkax.PublishJSON(ctx, p.writer, event.OrderID, event, headers...)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
