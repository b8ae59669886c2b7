package notify

import (
	"sort"
	"sync"

	"github.com/goliatone/go-formcheck/pkg/model"
)

// FieldState mirrors what a set of rendering components would show: the
// latest message per field id and the latest batch per source. Later
// notifications for a field supersede earlier ones.
//
// Notifications for fields that vanished from the form are not pruned
// automatically; callers that remove rows call Retain with the ids that
// still exist.
type FieldState struct {
	mu       sync.RWMutex
	messages map[string]string
	order    []string
	batches  map[string]model.BatchNotification
	subs     []*Subscription
}

// NewFieldState constructs an empty state.
func NewFieldState() *FieldState {
	return &FieldState{
		messages: make(map[string]string),
		batches:  make(map[string]model.BatchNotification),
	}
}

// Attach subscribes the state to the field and batch topics of bus.
func (s *FieldState) Attach(bus *Bus) *FieldState {
	fields := Subscribe(bus, FieldNotifications, s.applyField)
	batches := Subscribe(bus, BatchNotifications, s.applyBatch)
	s.mu.Lock()
	s.subs = append(s.subs, fields, batches)
	s.mu.Unlock()
	return s
}

// Detach removes every subscription created by Attach.
func (s *FieldState) Detach() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (s *FieldState) applyField(n model.FieldNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.messages[n.FieldID]; !seen {
		s.order = append(s.order, n.FieldID)
	}
	s.messages[n.FieldID] = n.ErrorMsg
}

func (s *FieldState) applyBatch(n model.BatchNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := batchKey(n.Source, n.Warning)
	if n.Reset {
		delete(s.batches, batchKey(n.Source, false))
		delete(s.batches, batchKey(n.Source, true))
		return
	}
	s.batches[key] = n
}

// Message returns the latest message for id and whether any notification
// was seen for it.
func (s *FieldState) Message(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	return msg, ok
}

// Errors returns every field currently carrying a message, in first-seen
// order.
func (s *FieldState) Errors() []model.FieldNotification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.FieldNotification
	for _, id := range s.order {
		if msg := s.messages[id]; msg != "" {
			out = append(out, model.FieldNotification{FieldID: id, ErrorMsg: msg})
		}
	}
	return out
}

// Batch returns the latest batch for source and severity.
func (s *FieldState) Batch(source string, warning bool) (model.BatchNotification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, ok := s.batches[batchKey(source, warning)]
	return batch, ok
}

// Retain drops state for every field id not in ids and returns the removed
// ids sorted.
func (s *FieldState) Retain(ids []string) []string {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	order := s.order[:0]
	for _, id := range s.order {
		if _, ok := keep[id]; ok {
			order = append(order, id)
			continue
		}
		delete(s.messages, id)
		removed = append(removed, id)
	}
	s.order = order
	sort.Strings(removed)
	return removed
}

func batchKey(source string, warning bool) string {
	if warning {
		return source + ":warning"
	}
	return source + ":error"
}
