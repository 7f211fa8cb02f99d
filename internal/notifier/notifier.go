// Package notifier delivers order events to a message broker off the request path.
package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"edhaus/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Publisher delivers one event to a backend.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

type DispatcherOptions struct {
	Buffer          int
	MaxRetries      uint64
	InitialInterval time.Duration
	PublishTimeout  time.Duration
}

// Dispatcher queues events in a bounded buffer and publishes them from a
// single worker, retrying with exponential backoff. Notify never blocks.
type Dispatcher struct {
	publisher Publisher
	opts      DispatcherOptions
	logger    *zap.Logger
	metrics   *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

func NewDispatcher(publisher Publisher, opts DispatcherOptions, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if opts.Buffer < 1 {
		opts.Buffer = 1
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		publisher: publisher,
		opts:      opts,
		logger:    logger.Named("notifier"),
		metrics:   m,
		queue:     make(chan Event, opts.Buffer),
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify enqueues the event. A full buffer or a closed dispatcher drops it with a warning.
func (d *Dispatcher) Notify(_ context.Context, event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}
	select {
	case d.queue <- event:
	default:
		d.drop(event, "buffer full")
	}
}

func (d *Dispatcher) drop(event Event, reason string) {
	d.metrics.Event(event.Type, metrics.EventDropped)
	d.logger.Warn("dropping order event",
		zap.String("reason", reason),
		zap.String("event_type", event.Type),
		zap.String("event_id", event.ID),
		zap.String("order_id", event.OrderID))
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.publish(event)
	}
}

func (d *Dispatcher) publish(event Event) {
	policy := backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(backoff.WithInitialInterval(d.opts.InitialInterval)),
		d.opts.MaxRetries,
	)
	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.PublishTimeout)
		defer cancel()
		return d.publisher.Publish(ctx, event)
	}
	notify := func(err error, wait time.Duration) {
		d.logger.Warn("publish failed, retrying",
			zap.String("event_id", event.ID),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		d.metrics.Event(event.Type, metrics.EventFailed)
		d.logger.Error("giving up on order event",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return
	}
	d.metrics.Event(event.Type, metrics.EventPublished)
}

// Close stops accepting events, waits for the queue to drain, then closes the publisher.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		return errors.Join(ctx.Err(), d.publisher.Close())
	}
	return d.publisher.Close()
}
