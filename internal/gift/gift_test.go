package gift

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/docstore"
	"github.com/matheus3301/mesa/internal/docstore/memory"
)

func testService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, zap.NewNop()), store
}

func sample() Record {
	return Record{
		ItemID:         "p42",
		ItemName:       "Tiramisu",
		ItemPrice:      9.5,
		SenderPhone:    "5511999990000",
		SenderName:     "Ana",
		RecipientPhone: "5511888880000",
		RecipientName:  "Bruno",
	}
}

func TestSendCreatesActiveRecord(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	id, err := svc.Send(ctx, sample())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	doc, err := store.GetOne(ctx, docstore.CollectionGifts, id)
	if err != nil {
		t.Fatal(err)
	}
	if doc == nil {
		t.Fatal("gift record not created")
	}
	if doc.Data["status"] != "active" {
		t.Errorf("status = %v, want active", doc.Data["status"])
	}
	if doc.Data["removedBySender"] != false || doc.Data["removedByReceiver"] != false {
		t.Error("removal flags should start false")
	}
	if _, ok := doc.Data["timestamp"].(time.Time); !ok {
		t.Errorf("timestamp not server-assigned: %#v", doc.Data["timestamp"])
	}
}

func TestSendRejectsDuplicateTriple(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	if _, err := svc.Send(ctx, sample()); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	_, err := svc.Send(ctx, sample())
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Send err = %v, want ErrDuplicate", err)
	}

	docs, err := store.QueryMany(ctx, docstore.CollectionGifts, docstore.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("duplicate send wrote a record: %d docs", len(docs))
	}
}

func TestSendAllowsDifferentRecipient(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.Send(ctx, sample()); err != nil {
		t.Fatal(err)
	}
	other := sample()
	other.RecipientPhone = "5511777770000"
	if _, err := svc.Send(ctx, other); err != nil {
		t.Errorf("different recipient should be allowed: %v", err)
	}
}

func TestRemoveDeletesRecord(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	id, err := svc.Send(ctx, sample())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(ctx, id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	doc, _ := store.GetOne(ctx, docstore.CollectionGifts, id)
	if doc != nil {
		t.Error("record still present after Remove")
	}
}

func TestFromDocumentDecodesFields(t *testing.T) {
	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := FromDocument(docstore.Document{
		ID: "g1",
		Data: map[string]any{
			"itemId":               "p42",
			"itemName":             "Tiramisu",
			"itemPrice":            9.5,
			"itemReviewCount":      int64(12),
			"senderPhoneNumber":    "5511999990000",
			"recipientPhoneNumber": "5511888880000",
			"status":               "active",
			"timestamp":            when,
		},
	})
	if rec.ID != "g1" || rec.ItemID != "p42" || rec.ItemPrice != 9.5 {
		t.Errorf("decode mismatch: %#v", rec)
	}
	if rec.ItemReviewCount != 12 {
		t.Errorf("int64 review count not decoded: %d", rec.ItemReviewCount)
	}
	if !rec.Timestamp.Equal(when) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp, when)
	}
}

func TestFromDocumentToleratesMissingFields(t *testing.T) {
	rec := FromDocument(docstore.Document{ID: "g2", Data: map[string]any{}})
	if rec.ItemID != "" || rec.ItemPrice != 0 || !rec.Timestamp.IsZero() {
		t.Errorf("zero values expected: %#v", rec)
	}
}
