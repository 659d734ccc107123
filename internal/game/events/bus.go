package events

import (
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

type funcHandler struct {
	id        string
	eventType string
	fn        EventHandler
}

// EventBus delivers decision and match events synchronously, in publish
// order, on the publisher's goroutine. Subscribers are called in the order
// they subscribed. Handlers run outside the bus lock, so they may publish
// or change subscriptions themselves.
type EventBus struct {
	mu       sync.RWMutex
	subs     []Subscriber
	handlers []funcHandler
	nextID   int
	logger   zerolog.Logger
}

// NewEventBus creates an empty bus.
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{logger: logger.With().Str("component", "event_bus").Logger()}
}

// Subscribe adds subscriber, replacing one already registered under the
// same ID in place.
func (eb *EventBus) Subscribe(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	id := subscriber.ID()
	for i, s := range eb.subs {
		if s.ID() == id {
			eb.subs[i] = subscriber
			eb.logger.Debug().Str("subscriber_id", id).Msg("Subscriber replaced")
			return
		}
	}
	eb.subs = append(eb.subs, subscriber)
	eb.logger.Debug().Str("subscriber_id", id).Msg("Subscriber added to event bus")
}

// Unsubscribe removes a subscriber from the event bus
func (eb *EventBus) Unsubscribe(subscriberID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for i, s := range eb.subs {
		if s.ID() == subscriberID {
			eb.subs = append(eb.subs[:i:i], eb.subs[i+1:]...)
			eb.logger.Debug().Str("subscriber_id", subscriberID).Msg("Subscriber removed from event bus")
			return
		}
	}
}

// SubscribeFunc registers handler for one event type and returns the ID
// UnsubscribeFunc takes.
func (eb *EventBus) SubscribeFunc(eventType string, handler EventHandler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eventType + "#" + strconv.Itoa(eb.nextID)
	eb.handlers = append(eb.handlers, funcHandler{id: id, eventType: eventType, fn: handler})
	eb.logger.Debug().
		Str("event_type", eventType).
		Str("handler_id", id).
		Msg("Function handler added to event bus")
	return id
}

// UnsubscribeFunc removes a handler added by SubscribeFunc. It reports
// whether the ID was known.
func (eb *EventBus) UnsubscribeFunc(id string) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for i, h := range eb.handlers {
		if h.id == id {
			eb.handlers = append(eb.handlers[:i:i], eb.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Publish hands event to every interested subscriber, then to the function
// handlers of its type. A panicking receiver is logged and skipped.
func (eb *EventBus) Publish(event Event) {
	eventType := event.Type()

	eb.mu.RLock()
	subs := append([]Subscriber(nil), eb.subs...)
	var fns []funcHandler
	for _, h := range eb.handlers {
		if h.eventType == eventType {
			fns = append(fns, h)
		}
	}
	eb.mu.RUnlock()

	eb.logger.Debug().
		Str("event_type", eventType).
		Str("match_id", event.GameID()).
		Msg("Publishing event")

	for _, s := range subs {
		if s.InterestedIn(eventType) {
			eb.deliver(s.ID(), event, s.HandleEvent)
		}
	}
	for _, h := range fns {
		eb.deliver(h.id, event, h.fn)
	}
}

func (eb *EventBus) deliver(receiver string, event Event, fn EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error().
				Str("receiver", receiver).
				Str("event_type", event.Type()).
				Interface("panic", r).
				Msg("Event receiver panicked")
		}
	}()
	fn(event)
}

// SubscriberCount returns the number of subscribers.
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subs)
}

// FuncHandlerCount returns the number of function handlers for eventType.
func (eb *EventBus) FuncHandlerCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	n := 0
	for _, h := range eb.handlers {
		if h.eventType == eventType {
			n++
		}
	}
	return n
}
