// Package notify provides the publish/subscribe channel that connects the
// validation engine and the match mapper to whatever renders field state.
//
// A Bus is constructed explicitly and injected; there is no process-wide
// instance. Delivery is synchronous: Publish returns after every current
// subscriber of the topic ran, in subscription order, so successive
// publishes for the same field id are observed in publish order.
package notify

import (
	"sync"

	"github.com/goliatone/go-formcheck/pkg/model"
)

// Topic names a typed channel on a Bus.
type Topic[T any] struct {
	name string
}

// NewTopic declares a topic carrying payloads of type T. A name must only be
// used with one payload type.
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

// Name returns the topic name.
func (t Topic[T]) Name() string {
	return t.name
}

// Topics used by the engine, the mapper, and their collaborators.
var (
	FieldNotifications = NewTopic[model.FieldNotification]("field-notification")
	BatchNotifications = NewTopic[model.BatchNotification]("batch-notification")
	MatchResponses     = NewTopic[model.MatchResponse]("fuzzy-match")
	ModalRequests      = NewTopic[model.ModalRequest]("modal-confirmation")
)

type subscriber struct {
	id      uint64
	handler func(any)
}

// Bus fans published payloads out to topic subscribers.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]subscriber
	nextID uint64
	closed bool
}

// New constructs an empty bus.
func New() *Bus {
	return &Bus{topics: make(map[string][]subscriber)}
}

// Subscription is returned by Subscribe.
type Subscription struct {
	once    sync.Once
	unsubFn func()
}

// Unsubscribe removes the subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.unsubFn == nil {
		return
	}
	s.once.Do(s.unsubFn)
}

// Subscribe registers handler for topic. Subscribing to a closed or nil bus
// returns an inert subscription.
func Subscribe[T any](b *Bus, topic Topic[T], handler func(T)) *Subscription {
	if b == nil || handler == nil {
		return &Subscription{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return &Subscription{}
	}

	b.nextID++
	id := b.nextID
	b.topics[topic.name] = append(b.topics[topic.name], subscriber{
		id: id,
		handler: func(payload any) {
			handler(payload.(T))
		},
	})

	return &Subscription{
		unsubFn: func() { b.remove(topic.name, id) },
	}
}

// Publish delivers payload to every subscriber of topic. Handlers run on the
// caller's goroutine and may publish further payloads.
func Publish[T any](b *Bus, topic Topic[T], payload T) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := append([]subscriber(nil), b.topics[topic.name]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(payload)
	}
}

// SubscriberCount returns the number of subscribers for a topic name.
func (b *Bus) SubscriberCount(name string) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[name])
}

// Close drops every subscriber and rejects new subscriptions.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.topics = make(map[string][]subscriber)
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.topics[name]
	for i, sub := range subs {
		if sub.id != id {
			continue
		}
		next := make([]subscriber, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.topics, name)
		} else {
			b.topics[name] = next
		}
		return
	}
}
