package remote

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/docstore"
	"github.com/matheus3301/mesa/internal/docstore/memory"
	"github.com/matheus3301/mesa/internal/gift"
)

func waitEvent(t *testing.T, ch <-chan bus.Event) bus.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for bus event")
		return bus.Event{}
	}
}

func TestGiftSnapshotsFilteredToUser(t *testing.T) {
	store := memory.New()
	defer store.Close()
	b := bus.New()
	ctx := context.Background()

	w := NewWatcher(store, b, zap.NewNop(), "table-1", "+55 (11) 99999-0000")
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ch, unsub := b.Subscribe(bus.KindRemoteGifts, 16)
	defer unsub()

	// Initial empty snapshot.
	evt := waitEvent(t, ch)
	if recs := evt.Payload.([]gift.Record); len(recs) != 0 {
		t.Fatalf("initial gifts = %d", len(recs))
	}

	// One gift to this user, one between strangers.
	_, err := store.CreateOne(ctx, docstore.CollectionGifts, map[string]any{
		"itemId": "p1", "status": "active",
		"senderPhoneNumber": "5511888880000", "recipientPhoneNumber": "5511999990000",
	})
	if err != nil {
		t.Fatal(err)
	}
	evt = waitEvent(t, ch)
	if recs := evt.Payload.([]gift.Record); len(recs) != 1 || recs[0].ItemID != "p1" {
		t.Fatalf("gifts = %+v", evt.Payload)
	}

	_, err = store.CreateOne(ctx, docstore.CollectionGifts, map[string]any{
		"itemId": "p2", "status": "active",
		"senderPhoneNumber": "5511777770000", "recipientPhoneNumber": "5511666660000",
	})
	if err != nil {
		t.Fatal(err)
	}
	evt = waitEvent(t, ch)
	if recs := evt.Payload.([]gift.Record); len(recs) != 1 {
		t.Fatalf("stranger gift leaked: %+v", evt.Payload)
	}
}

func TestInactiveGiftsExcluded(t *testing.T) {
	store := memory.New()
	defer store.Close()
	b := bus.New()
	ctx := context.Background()

	w := NewWatcher(store, b, zap.NewNop(), "table-1", "5511999990000")
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ch, unsub := b.Subscribe(bus.KindRemoteGifts, 16)
	defer unsub()
	waitEvent(t, ch)

	_, err := store.CreateOne(ctx, docstore.CollectionGifts, map[string]any{
		"itemId": "p1", "status": "removed",
		"senderPhoneNumber": "x", "recipientPhoneNumber": "5511999990000",
	})
	if err != nil {
		t.Fatal(err)
	}
	evt := waitEvent(t, ch)
	if recs := evt.Payload.([]gift.Record); len(recs) != 0 {
		t.Fatalf("inactive gift visible: %+v", recs)
	}
}

func TestMessageSnapshotsRepublished(t *testing.T) {
	store := memory.New()
	defer store.Close()
	b := bus.New()
	ctx := context.Background()

	w := NewWatcher(store, b, zap.NewNop(), "table-1", "5511999990000")
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ch, unsub := b.Subscribe(bus.KindRemoteMessages, 16)
	defer unsub()
	waitEvent(t, ch)

	if _, err := store.CreateOne(ctx, docstore.MessagesCollection("table-1"), map[string]any{"text": "oi"}); err != nil {
		t.Fatal(err)
	}
	evt := waitEvent(t, ch)
	snap := evt.Payload.(docstore.Snapshot)
	if len(snap) != 1 {
		t.Fatalf("messages = %d", len(snap))
	}
}

func TestStopEndsDelivery(t *testing.T) {
	store := memory.New()
	defer store.Close()
	b := bus.New()

	w := NewWatcher(store, b, zap.NewNop(), "table-1", "5511999990000")
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	ch, unsub := b.Subscribe(bus.KindRemoteMessages, 16)
	defer unsub()
	waitEvent(t, ch)

	w.Stop()
	time.Sleep(50 * time.Millisecond)

	if _, err := store.CreateOne(context.Background(), docstore.MessagesCollection("table-1"), map[string]any{"text": "oi"}); err != nil {
		t.Fatal(err)
	}
	select {
	case evt := <-ch:
		t.Fatalf("event after Stop: %+v", evt)
	case <-time.After(150 * time.Millisecond):
	}
}
