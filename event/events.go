// Package event provides the publish/subscribe bus carrying the signals
// emitted by the coordination engine. An external settlement layer
// subscribes to Ready and GroupCompleted to learn when a buffered intent
// is eligible for cross-rollup settlement.
package event

import (
	"sync"
	"sync/atomic"
	"time"
)

// Type identifies the kind of event published on the bus.
type Type string

// Signals emitted by the coordination engine.
const (
	TypeBuffered       Type = "tx.buffered"
	TypeRevealed       Type = "tx.revealed"
	TypeReady          Type = "tx.ready"
	TypeExecuted       Type = "tx.executed"
	TypeFailed         Type = "tx.failed"
	TypeExpired        Type = "tx.expired"
	TypeRefunded       Type = "tx.refunded"
	TypeGroupCreated   Type = "group.created"
	TypeGroupCompleted Type = "group.completed"
	TypeRoleGranted    Type = "role.granted"
	TypeRoleRevoked    Type = "role.revoked"
	TypePaused         Type = "engine.paused"
	TypeUnpaused       Type = "engine.unpaused"
	TypeBreakerTripped Type = "engine.breakerTripped"
	TypeBreakerReset   Type = "engine.breakerReset"
)

// Event is a message published on the bus.
type Event struct {
	Type      Type
	Data      interface{}
	Timestamp time.Time
}

// Subscription represents a subscription to one or more event types
// on the Bus.
type Subscription struct {
	id     uint64
	types  map[Type]struct{}
	ch     chan Event
	bus    *Bus
	closed atomic.Bool
}

// Chan returns a read-only channel that receives events matching the
// subscription's event types.
func (s *Subscription) Chan() <-chan Event {
	return s.ch
}

// Unsubscribe removes this subscription from the bus and closes the
// underlying channel. It is safe to call multiple times.
func (s *Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.Unsubscribe(s)
	}
}

// Bus provides a publish/subscribe mechanism between the engine and its
// observers. All methods are safe for concurrent use.
type Bus struct {
	mu         sync.RWMutex
	subs       map[uint64]*Subscription
	nextID     uint64
	bufferSize int
	closed     bool
}

// NewBus creates a new Bus. bufferSize controls the channel buffer for
// each subscription; use 0 for unbuffered channels.
func NewBus(bufferSize int) *Bus {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Bus{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
	}
}

// Subscribe creates a subscription that receives events of the given type.
// Returns a Subscription whose Chan() delivers matching events.
func (b *Bus) Subscribe(eventType Type) *Subscription {
	return b.SubscribeMultiple(eventType)
}

// SubscribeMultiple creates a subscription that receives events matching
// any of the given types.
func (b *Bus) SubscribeMultiple(types ...Type) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		// Return a closed subscription.
		sub := &Subscription{
			ch:    make(chan Event),
			types: make(map[Type]struct{}),
		}
		sub.closed.Store(true)
		close(sub.ch)
		return sub
	}

	b.nextID++
	id := b.nextID

	typeSet := make(map[Type]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	sub := &Subscription{
		id:    id,
		types: typeSet,
		ch:    make(chan Event, b.bufferSize),
		bus:   b,
	}
	b.subs[id] = sub
	return sub
}

// Unsubscribe removes the given subscription from the bus and closes
// its channel. Safe to call multiple times or with nil.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	// Use atomic bool to ensure we only close the channel once,
	// even under concurrent calls.
	if !sub.closed.CompareAndSwap(false, true) {
		return
	}

	b.mu.Lock()
	delete(b.subs, sub.id)
	b.mu.Unlock()

	close(sub.ch)
}

// Publish sends an event to all matching subscribers without blocking.
// If a subscriber's channel is full, the event is dropped for that
// subscriber. The engine publishes from inside its serialization lock,
// so a slow observer must never stall a state transition.
func (b *Bus) Publish(eventType Type, data interface{}) {
	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if sub.closed.Load() {
			continue
		}
		if _, ok := sub.types[eventType]; ok {
			select {
			case sub.ch <- event:
			default:
				// Drop event for this subscriber (channel full).
			}
		}
	}
}

// SubscriberCount returns the number of active subscriptions for the
// given event type.
func (b *Bus) SubscriberCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, sub := range b.subs {
		if sub.closed.Load() {
			continue
		}
		if _, ok := sub.types[eventType]; ok {
			count++
		}
	}
	return count
}

// Close shuts down the bus. All subscription channels are closed and no
// further events can be published.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true

	// Collect subscriptions to close outside the lock.
	toClose := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		toClose = append(toClose, sub)
	}
	b.subs = make(map[uint64]*Subscription)
	b.mu.Unlock()

	for _, sub := range toClose {
		if sub.closed.CompareAndSwap(false, true) {
			close(sub.ch)
		}
	}
}
