package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/internal/observability"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Subscription is the disposer for one registered handler. Collecting
// these and calling Unsubscribe on teardown is mandatory: an orphaned
// handler keeps mutating a store nobody observes.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Dispatcher allows event publication and subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType EventType, handler EventHandler) *Subscription
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType]map[int]EventHandler
	nextID    int
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger, metrics *observability.Metrics) Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType]map[int]EventHandler),
		logger:    logger,
		metrics:   metrics,
	}
}

// Publish synchronously invokes handlers for the given event. Handlers
// are isolated from each other: an error or panic in one is logged and
// the rest still run.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := make([]EventHandler, 0, len(d.listeners[event.Kind]))
	for _, handler := range d.listeners[event.Kind] {
		handlers = append(handlers, handler)
	}
	d.mu.RUnlock()

	for _, handler := range handlers {
		d.invoke(ctx, event, handler)
	}
}

func (d *inMemoryDispatcher) invoke(ctx context.Context, event Event, handler EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.RecordHandlerPanic()
			d.logger.Error("push handler panicked",
				zap.String("event", string(event.Kind)),
				zap.String("entity_kind", string(event.EntityKind)),
				zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		d.logger.Warn("push handler failed",
			zap.String("event", string(event.Kind)),
			zap.String("entity_kind", string(event.EntityKind)),
			zap.Error(err))
	}
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) *Subscription {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	if d.listeners[eventType] == nil {
		d.listeners[eventType] = make(map[int]EventHandler)
	}
	d.listeners[eventType][id] = handler
	d.mu.Unlock()

	return &Subscription{cancel: func() {
		d.mu.Lock()
		delete(d.listeners[eventType], id)
		d.mu.Unlock()
	}}
}
