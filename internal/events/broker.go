package events

import (
	"sync"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 16

// Broker manages event distribution
type Broker struct {
	subscribers map[EventType][]chan Event
	mu          sync.RWMutex
	bufferSize  int
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return NewBrokerWithBuffer(DefaultBufferSize)
}

// NewBrokerWithBuffer creates a broker with a custom subscriber buffer.
func NewBrokerWithBuffer(size int) *Broker {
	if size < 1 {
		size = 1
	}
	return &Broker{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  size,
	}
}

// Subscribe creates a subscription to specific event types
func (b *Broker) Subscribe(eventTypes ...EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)

	// If no specific types provided, subscribe to all
	if len(eventTypes) == 0 {
		eventTypes = []EventType{Wildcard}
	}

	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	}

	return ch
}

// Unsubscribe removes a subscription from the given types, or from all
// types when none are given. The channel is closed once it has no
// remaining registrations.
func (b *Broker) Unsubscribe(ch <-chan Event, eventTypes ...EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(eventTypes) == 0 {
		for eventType := range b.subscribers {
			eventTypes = append(eventTypes, eventType)
		}
	}

	var removed chan Event
	for _, eventType := range eventTypes {
		if c := b.removeChannel(eventType, ch); c != nil {
			removed = c
		}
	}

	if removed != nil && !b.registered(removed) {
		close(removed)
	}
}

// Publish sends an event to all subscribers. A full subscriber loses its
// oldest buffered event so the newest state always gets through.
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sent := make(map[chan Event]struct{})
	for _, ch := range b.subscribers[event.Type] {
		b.deliver(ch, event, sent)
	}
	for _, ch := range b.subscribers[Wildcard] {
		b.deliver(ch, event, sent)
	}
}

// Clear removes all subscriptions
func (b *Broker) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	closed := make(map[chan Event]struct{})
	for _, subscribers := range b.subscribers {
		for _, ch := range subscribers {
			if _, done := closed[ch]; done {
				continue
			}
			closed[ch] = struct{}{}
			close(ch)
		}
	}

	b.subscribers = make(map[EventType][]chan Event)
}

func (b *Broker) deliver(ch chan Event, event Event, sent map[chan Event]struct{}) {
	if _, done := sent[ch]; done {
		return
	}
	sent[ch] = struct{}{}

	select {
	case ch <- event:
		return
	default:
	}

	// Full: make room by discarding the oldest event.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- event:
	default:
	}
}

// removeChannel removes a channel from a specific event type's subscribers
// and returns it, or nil if it was not subscribed to that type.
func (b *Broker) removeChannel(eventType EventType, target <-chan Event) chan Event {
	var removed chan Event
	subscribers := b.subscribers[eventType]
	for i, ch := range subscribers {
		if ch == target {
			removed = ch
			b.subscribers[eventType] = append(subscribers[:i], subscribers[i+1:]...)
			break
		}
	}

	// Clean up empty subscriber lists
	if len(b.subscribers[eventType]) == 0 {
		delete(b.subscribers, eventType)
	}
	return removed
}

func (b *Broker) registered(target chan Event) bool {
	for _, subscribers := range b.subscribers {
		for _, ch := range subscribers {
			if ch == target {
				return true
			}
		}
	}
	return false
}
