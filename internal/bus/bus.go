// Package bus implements the intra-grid publish/subscribe channel used by
// plugins and data providers.
package bus

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tablekit/gridcore/internal/logging"
)

// Handler receives the detail payload published with an event.
type Handler func(detail any)

// Well-known event names published by the grid core.
const (
	EventData   = "data"   // model rows/columns changed
	EventStatus = "status" // lifecycle status changed
	EventRender = "render" // a render pass completed
)

type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous publish/subscribe bus. Handlers run in subscription
// order; a panicking handler is recovered and logged so it cannot prevent
// the remaining handlers from running.
type Bus struct {
	mu       sync.RWMutex
	ctx      context.Context
	handlers map[string][]subscription
}

// New creates an empty bus. The context is only used to source the logger
// for handler panic reports.
func New(ctx context.Context) *Bus {
	return &Bus{
		ctx:      ctx,
		handlers: make(map[string][]subscription),
	}
}

// Subscribe registers handler for the named event and returns an
// unsubscribe function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(event string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	id := uuid.NewString()

	b.mu.Lock()
	b.handlers[event] = append(b.handlers[event], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[event]
		for i, s := range subs {
			if s.id == id {
				b.handlers[event] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish invokes every handler subscribed to the named event with detail.
// Handlers registered during delivery are not invoked until the next
// publish.
func (b *Bus) Publish(event string, detail any) {
	b.mu.RLock()
	subs := b.handlers[event]
	handlers := make([]Handler, len(subs))
	for i, s := range subs {
		handlers[i] = s.handler
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.invoke(event, h, detail)
	}
}

func (b *Bus) invoke(event string, h Handler, detail any) {
	defer func() {
		if r := recover(); r != nil {
			logger := logging.FromContext(b.ctx)
			logger.Warn().
				Str("event", event).
				Any("panic", r).
				Msg("event handler panicked")
		}
	}()
	h(detail)
}

// Reset drops every subscription. Called on grid reinitialization.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]subscription)
}

// SubscriberCount reports how many handlers are registered for event.
func (b *Bus) SubscriberCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}
