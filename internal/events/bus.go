// Package events provides the in-process event bus that feeds the SSE
// and WebSocket streams and decouples run execution from its observers.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine and must not block; stream endpoints hand off
// to buffered channels immediately.
type Handler func(event *Event)

// Bus is a simple publish/subscribe fan-out keyed by event type.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
	log         zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Handler),
		log:         log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish delivers an event to every handler subscribed to its type.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := b.subscribers[event.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Emit builds an event from its parts and publishes it.
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	b.Publish(&Event{
		Type:      eventType,
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	})
}
