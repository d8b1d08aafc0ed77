package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindSessionStatus, Timestamp: time.Now(), Payload: "test"})

	select {
	case evt := <-ch:
		if evt.Kind != KindSessionStatus {
			t.Errorf("got kind %q, want %q", evt.Kind, KindSessionStatus)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("remote.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindSessionStatus})
	b.Publish(Event{Kind: KindRemoteGifts})

	select {
	case evt := <-ch:
		if evt.Kind != KindRemoteGifts {
			t.Errorf("got kind %q, want %q", evt.Kind, KindRemoteGifts)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure the session event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected: no more events.
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("cart.", 10)
	unsub()

	b.Publish(Event{Kind: KindCartUpdated})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("toast.", 1)
	defer unsub()

	// Fill buffer.
	b.Publish(Event{Kind: "toast.one"})
	// This one is dropped (non-blocking delivery).
	b.Publish(Event{Kind: "toast.two"})

	evt := <-ch
	if evt.Kind != "toast.one" {
		t.Errorf("got %q, want toast.one", evt.Kind)
	}
}
