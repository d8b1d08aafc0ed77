package chat

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/bus"
	"github.com/matheus3301/mesa/internal/docstore"
	"github.com/matheus3301/mesa/internal/docstore/memory"
	"github.com/matheus3301/mesa/internal/localstate"
	"github.com/matheus3301/mesa/internal/metrics"
)

func testDB(t *testing.T) *localstate.DB {
	t.Helper()
	db, err := localstate.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testStack(t *testing.T) (*Service, *Sender, *memory.Store, *bus.Bus) {
	t.Helper()
	db := testDB(t)
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	b := bus.New()
	log := zap.NewNop()
	m := metrics.New()
	svc := NewService(db, store, b, log, "table-1")
	sender := NewSender(db, store, b, log, m)
	return svc, sender, store, b
}

func TestSendQueuesAndSenderDelivers(t *testing.T) {
	svc, sender, store, b := testStack(t)
	ctx := context.Background()

	sent, unsub := b.Subscribe("chat.sent", 4)
	defer unsub()

	clientID, err := svc.Send("5511999990000", "Ana", "oi pessoal")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if clientID == "" {
		t.Fatal("no client id returned")
	}

	sender.ProcessPending(ctx)

	select {
	case evt := <-sent:
		payload := evt.Payload.(map[string]string)
		if payload["client_msg_id"] != clientID {
			t.Errorf("ack for wrong message: %v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no chat.sent event")
	}

	docs, err := store.QueryMany(ctx, docstore.MessagesCollection("table-1"), docstore.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("remote messages = %d, want 1", len(docs))
	}
	m := FromDocument(docs[0])
	if m.Text != "oi pessoal" || m.Phone != "5511999990000" || m.Kind != KindText {
		t.Errorf("message = %+v", m)
	}
	if m.Timestamp.IsZero() {
		t.Error("timestamp not server-assigned")
	}
}

func TestSendDropsEmptyText(t *testing.T) {
	svc, _, _, _ := testStack(t)
	id, err := svc.Send("x", "Ana", "   ")
	if err != nil || id != "" {
		t.Errorf("empty send: id=%q err=%v", id, err)
	}
}

func TestGiftMessageCarriesCompanionFields(t *testing.T) {
	svc, sender, store, _ := testStack(t)
	ctx := context.Background()

	if _, err := svc.SendGiftMessage("5511999990000", "Ana", "Tiramisu", 9.5, "Bruno", "5511888880000"); err != nil {
		t.Fatal(err)
	}
	sender.ProcessPending(ctx)

	docs, _ := store.QueryMany(ctx, docstore.MessagesCollection("table-1"), docstore.Query{})
	if len(docs) != 1 {
		t.Fatalf("messages = %d", len(docs))
	}
	m := FromDocument(docs[0])
	if m.Kind != KindGift || m.GiftedItem != "Tiramisu" || m.GiftedToPhone != "5511888880000" {
		t.Errorf("gift message = %+v", m)
	}
	if m.Text == "" {
		t.Error("companion text missing")
	}
}

func TestRecommendationMessage(t *testing.T) {
	svc, sender, store, _ := testStack(t)
	ctx := context.Background()

	if _, err := svc.SendRecommendation("5511999990000", "Ana", "Moqueca", 30, "Bruno"); err != nil {
		t.Fatal(err)
	}
	sender.ProcessPending(ctx)

	docs, _ := store.QueryMany(ctx, docstore.MessagesCollection("table-1"), docstore.Query{})
	m := FromDocument(docs[0])
	if m.Kind != KindRecommendation || m.RecommendedItem != "Moqueca" || m.RecommendedTo != "Bruno" {
		t.Errorf("recommendation = %+v", m)
	}
}

func TestSenderMarksFailureAndRetriesNothing(t *testing.T) {
	svc, sender, store, b := testStack(t)
	ctx := context.Background()

	failed, unsub := b.Subscribe("chat.send_failed", 4)
	defer unsub()

	if _, err := svc.Send("x", "Ana", "oi"); err != nil {
		t.Fatal(err)
	}
	// A closed store refuses writes.
	_ = store.Close()

	sender.ProcessPending(ctx)

	select {
	case <-failed:
	case <-time.After(2 * time.Second):
		t.Fatal("no chat.send_failed event")
	}

	pending, err := svc.db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("failed entry still pending: %d", len(pending))
	}
}

func TestHistoryOrderedOldestFirst(t *testing.T) {
	svc, _, store, _ := testStack(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		_, err := store.CreateOne(ctx, docstore.MessagesCollection("table-1"), map[string]any{
			"text":        text,
			"phoneNumber": "x",
			"timestamp":   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := svc.History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 || msgs[0].Text != "first" || msgs[2].Text != "third" {
		t.Errorf("history order wrong: %+v", msgs)
	}
}
