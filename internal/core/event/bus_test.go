package event

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(EventStateChanged, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	err := bus.Publish(context.Background(), Event{
		Type:    EventStateChanged,
		Payload: StateChange{JobID: "wf_1"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("delivered %d events, want 1", len(got))
	}
	change, ok := got[0].Payload.(StateChange)
	if !ok || change.JobID != "wf_1" {
		t.Fatalf("payload = %+v", got[0].Payload)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("timestamp not stamped on publish")
	}
}

func TestPublishIgnoresOtherEventTypes(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe(EventStateChanged, func(_ context.Context, _ Event) error {
		calls++
		return nil
	})

	_ = bus.Publish(context.Background(), Event{Type: EventType("other.event")})
	if calls != 0 {
		t.Errorf("subscriber called %d times for unrelated event", calls)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsubscribe := bus.Subscribe(EventStateChanged, func(_ context.Context, _ Event) error {
		calls++
		return nil
	})

	_ = bus.Publish(context.Background(), Event{Type: EventStateChanged})
	unsubscribe()
	_ = bus.Publish(context.Background(), Event{Type: EventStateChanged})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestHandlerErrorDoesNotAbortOthers(t *testing.T) {
	bus := NewBus()

	bus.Subscribe(EventStateChanged, func(_ context.Context, _ Event) error {
		return errors.New("handler broken")
	})
	second := 0
	bus.Subscribe(EventStateChanged, func(_ context.Context, _ Event) error {
		second++
		return nil
	})

	if err := bus.Publish(context.Background(), Event{Type: EventStateChanged}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if second != 1 {
		t.Errorf("second handler calls = %d, want 1", second)
	}
}

func TestSubscribeChan(t *testing.T) {
	bus := NewBus()
	ch, cancel := SubscribeChan(bus, EventStateChanged, 4)

	_ = bus.Publish(context.Background(), Event{
		Type:    EventStateChanged,
		Payload: StateChange{JobID: "wf_2"},
	})

	select {
	case e := <-ch:
		change := e.Payload.(StateChange)
		if change.JobID != "wf_2" {
			t.Fatalf("payload = %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("no event on channel")
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel not closed after cancel")
	}

	// Publishing after cancel must not panic.
	_ = bus.Publish(context.Background(), Event{Type: EventStateChanged})
}

func TestSubscribeChanDropsWhenFull(t *testing.T) {
	bus := NewBus()
	ch, cancel := SubscribeChan(bus, EventStateChanged, 1)
	defer cancel()

	_ = bus.Publish(context.Background(), Event{Type: EventStateChanged, Payload: StateChange{JobID: "first"}})
	_ = bus.Publish(context.Background(), Event{Type: EventStateChanged, Payload: StateChange{JobID: "dropped"}})

	e := <-ch
	if e.Payload.(StateChange).JobID != "first" {
		t.Fatalf("got %+v, want first event", e.Payload)
	}
	select {
	case e := <-ch:
		t.Fatalf("unexpected buffered event %+v", e.Payload)
	default:
	}
}
