package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/leefowlercu/chunkalyze/internal/metrics"
)

// Bus publishes events to subscribers.
type Bus interface {
	// Publish delivers event to every interested subscriber without blocking.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler for one event type and returns its
	// unsubscribe function.
	Subscribe(eventType EventType, handler EventHandler) (unsubscribe func())

	// SubscribeAll registers a handler for every event type.
	SubscribeAll(handler EventHandler) (unsubscribe func())

	// Close stops accepting events and waits for queued events to be handled.
	Close() error
}

type subscription struct {
	id        uint64
	eventType EventType // empty matches every type
	handler   EventHandler
	events    chan Event
	once      sync.Once
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.events) })
}

// EventBus delivers each subscriber's events on its own goroutine. A
// subscriber whose buffer is full misses the event.
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[uint64]*subscription
	nextID        atomic.Uint64
	closed        atomic.Bool
	workers       sync.WaitGroup
	logger        *slog.Logger
	bufferSize    int
	validate      bool
}

// BusOption configures the event bus.
type BusOption func(*EventBus)

// WithBufferSize sets the per-subscriber buffer size.
func WithBufferSize(size int) BusOption {
	return func(b *EventBus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BusOption {
	return func(b *EventBus) {
		b.logger = logger
	}
}

// WithPayloadValidation rejects events whose payload type does not match
// their event type.
func WithPayloadValidation(enabled bool) BusOption {
	return func(b *EventBus) {
		b.validate = enabled
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) *EventBus {
	b := &EventBus{
		subscriptions: make(map[uint64]*subscription),
		bufferSize:    100,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Publish delivers event to every subscriber registered for its type.
func (b *EventBus) Publish(ctx context.Context, event Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if b.validate {
		if err := ValidatePayload(event); err != nil {
			return err
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscriptions {
		if sub.eventType != "" && sub.eventType != event.Type {
			continue
		}

		select {
		case sub.events <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			b.logger.Warn("event bus subscriber buffer full; dropping event",
				"event_type", event.Type,
				"subscriber_id", sub.id,
			)
			metrics.EventBusDroppedEvents.WithLabelValues(string(event.Type)).Inc()
		}
	}

	return nil
}

// Subscribe registers a handler for a specific event type.
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) func() {
	return b.subscribe(eventType, handler)
}

// SubscribeAll registers a handler for all event types.
func (b *EventBus) SubscribeAll(handler EventHandler) func() {
	return b.subscribe("", handler)
}

func (b *EventBus) subscribe(eventType EventType, handler EventHandler) func() {
	if b.closed.Load() {
		return func() {}
	}

	sub := &subscription{
		id:        b.nextID.Add(1),
		eventType: eventType,
		handler:   handler,
		events:    make(chan Event, b.bufferSize),
	}

	b.mu.Lock()
	b.subscriptions[sub.id] = sub
	b.mu.Unlock()

	b.workers.Add(1)
	go b.deliver(sub)

	return func() {
		b.unsubscribe(sub.id)
	}
}

// deliver runs the handler for each queued event until the channel closes.
func (b *EventBus) deliver(sub *subscription) {
	defer b.workers.Done()
	for event := range sub.events {
		b.safeCall(sub, event)
	}
}

func (b *EventBus) safeCall(sub *subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"subscriber_id", sub.id,
				"event_type", event.Type,
				"panic", r,
			)
		}
	}()

	sub.handler(event)
}

func (b *EventBus) unsubscribe(id uint64) {
	b.mu.Lock()
	sub, ok := b.subscriptions[id]
	delete(b.subscriptions, id)
	b.mu.Unlock()

	if ok {
		sub.stop()
	}
}

// Close stops the bus and waits until every subscriber has handled the
// events already queued for it.
func (b *EventBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.mu.Lock()
	subs := b.subscriptions
	b.subscriptions = make(map[uint64]*subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	b.workers.Wait()

	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}

// Closed reports whether Close has been called.
func (b *EventBus) Closed() bool {
	return b.closed.Load()
}
