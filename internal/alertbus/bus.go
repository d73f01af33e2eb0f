// Package alertbus is an in-process, fan-out publish/subscribe backend for
// types.AlertEvent, implementing types.Notifier. Multiple sinks (the admin
// server's websocket hub, a log sink, a future external transport) can
// subscribe independently without the Scheduler knowing about any of them.
package alertbus

import (
	"sync"
	"sync/atomic"

	"github.com/marketpulse/engine/pkg/types"
	"go.uber.org/zap"
)

// Handler receives published alert events. Handlers must not block for long;
// a slow handler only delays its own subscription, not the publisher or
// other subscribers.
type Handler func(types.AlertEvent)

// Subscription is a handle returned by Subscribe, used to Unsubscribe later.
type Subscription struct {
	id      int64
	handler Handler
}

// Bus is a minimal, goroutine-safe event bus specialized to AlertEvent.
type Bus struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs map[int64]*Subscription
	next int64

	published atomic.Int64
	delivered atomic.Int64
}

// New creates an empty Bus.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger: logger,
		subs:   make(map[int64]*Subscription),
	}
}

// Subscribe registers handler to receive every event published from now on.
func (b *Bus) Subscribe(handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	sub := &Subscription{id: b.next, handler: handler}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a previously registered subscription.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub.id)
}

// Notify implements types.Notifier. It fans the event out to every current
// subscriber on its own goroutine, so one slow or panicking handler cannot
// block the Scheduler or take down another subscriber.
func (b *Bus) Notify(event types.AlertEvent) {
	b.published.Add(1)

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		go b.deliver(h, event)
	}
}

func (b *Bus) deliver(handler Handler, event types.AlertEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("alert subscriber panicked", zap.Any("panic", r),
				zap.String("condition", string(event.Condition)))
		}
	}()
	handler(event)
	b.delivered.Add(1)
}

// Stats is a snapshot of bus throughput.
type Stats struct {
	Published         int64 `json:"events_published"`
	Delivered         int64 `json:"events_delivered"`
	ActiveSubscribers int   `json:"active_subscribers"`
}

// Stats returns current bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{
		Published:         b.published.Load(),
		Delivered:         b.delivered.Load(),
		ActiveSubscribers: len(b.subs),
	}
}
