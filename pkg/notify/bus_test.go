package notify

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcheck/pkg/model"
)

func TestPublishFansOutInSubscriptionOrder(t *testing.T) {
	t.Parallel()

	bus := New()
	var seen []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		Subscribe(bus, FieldNotifications, func(n model.FieldNotification) {
			seen = append(seen, name+":"+n.FieldID)
		})
	}

	Publish(bus, FieldNotifications, model.FieldNotification{FieldID: "a"})
	Publish(bus, FieldNotifications, model.FieldNotification{FieldID: "b"})

	want := []string{"first:a", "second:a", "third:a", "first:b", "second:b", "third:b"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("delivery order mismatch (-want +got):\n%s", diff)
	}
}

func TestTopicsAreIndependent(t *testing.T) {
	t.Parallel()

	bus := New()
	var fields, batches int
	Subscribe(bus, FieldNotifications, func(model.FieldNotification) { fields++ })
	Subscribe(bus, BatchNotifications, func(model.BatchNotification) { batches++ })

	Publish(bus, BatchNotifications, model.BatchNotification{Source: model.SourceSubmission})
	if fields != 0 || batches != 1 {
		t.Fatalf("expected only the batch subscriber to run, got fields=%d batches=%d", fields, batches)
	}
}

func TestUnsubscribeAndClose(t *testing.T) {
	t.Parallel()

	bus := New()
	count := 0
	sub := Subscribe(bus, ModalRequests, func(model.ModalRequest) { count++ })
	Publish(bus, ModalRequests, model.ModalRequest{ID: "m1"})
	sub.Unsubscribe()
	sub.Unsubscribe()
	Publish(bus, ModalRequests, model.ModalRequest{ID: "m2"})
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
	if got := bus.SubscriberCount(ModalRequests.Name()); got != 0 {
		t.Fatalf("expected no subscribers, got %d", got)
	}

	Subscribe(bus, ModalRequests, func(model.ModalRequest) { count++ })
	bus.Close()
	Publish(bus, ModalRequests, model.ModalRequest{ID: "m3"})
	Subscribe(bus, ModalRequests, func(model.ModalRequest) { count++ }).Unsubscribe()
	if count != 1 {
		t.Fatalf("expected closed bus to drop deliveries, got %d", count)
	}
}

func TestHandlersMayPublish(t *testing.T) {
	t.Parallel()

	bus := New()
	var order []string
	Subscribe(bus, MatchResponses, func(resp model.MatchResponse) {
		order = append(order, "match:"+resp.ID)
		Publish(bus, FieldNotifications, model.FieldNotification{FieldID: resp.ID})
	})
	Subscribe(bus, FieldNotifications, func(n model.FieldNotification) {
		order = append(order, "field:"+n.FieldID)
	})

	Publish(bus, MatchResponses, model.MatchResponse{ID: "x"})
	if diff := cmp.Diff([]string{"match:x", "field:x"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestNilBusIsInert(t *testing.T) {
	t.Parallel()

	var bus *Bus
	Subscribe(bus, FieldNotifications, func(model.FieldNotification) {
		t.Fatalf("nil bus must not deliver")
	}).Unsubscribe()
	Publish(bus, FieldNotifications, model.FieldNotification{})
}

func TestFieldStateTracksLatestMessages(t *testing.T) {
	t.Parallel()

	bus := New()
	state := NewFieldState().Attach(bus)

	Publish(bus, FieldNotifications, model.FieldNotification{FieldID: "a", ErrorMsg: "bad"})
	Publish(bus, FieldNotifications, model.FieldNotification{FieldID: "b", ErrorMsg: "worse"})
	Publish(bus, FieldNotifications, model.FieldNotification{FieldID: "a", ErrorMsg: ""})

	if msg, ok := state.Message("a"); !ok || msg != "" {
		t.Fatalf("expected a to be cleared, got %q, %v", msg, ok)
	}
	want := []model.FieldNotification{{FieldID: "b", ErrorMsg: "worse"}}
	if diff := cmp.Diff(want, state.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	Publish(bus, BatchNotifications, model.BatchNotification{Source: model.SourceMatch, Warning: true, Title: "t"})
	if _, ok := state.Batch(model.SourceMatch, true); !ok {
		t.Fatalf("expected warning batch to be recorded")
	}
	Publish(bus, BatchNotifications, model.BatchNotification{Source: model.SourceMatch, Reset: true})
	if _, ok := state.Batch(model.SourceMatch, true); ok {
		t.Fatalf("expected reset to clear match batches")
	}

	removed := state.Retain([]string{"a"})
	if diff := cmp.Diff([]string{"b"}, removed); diff != "" {
		t.Fatalf("removed mismatch (-want +got):\n%s", diff)
	}
	if _, ok := state.Message("b"); ok {
		t.Fatalf("expected b to be pruned")
	}

	state.Detach()
	Publish(bus, FieldNotifications, model.FieldNotification{FieldID: "c", ErrorMsg: "x"})
	if _, ok := state.Message("c"); ok {
		t.Fatalf("detached state must not receive notifications")
	}
}
