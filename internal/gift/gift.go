// Package gift manages the shared gift records that diners exchange. The
// remote store owns the authoritative copy; carts hold a derived projection.
package gift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/docstore"
)

// TestItemID marks seeded test records. Reconciliation skips and evicts them.
const TestItemID = "test-item"

// ErrDuplicate is returned when an active gift for the same item, sender and
// recipient already exists.
var ErrDuplicate = errors.New("gift already sent to this person")

// Record is a gift document as stored remotely.
type Record struct {
	ID              string
	ItemID          string
	ItemName        string
	ItemPrice       float64
	ItemImage       string
	ItemDescription string
	ItemRating      float64
	ItemReviewCount int
	SenderPhone     string
	SenderName      string
	RecipientPhone  string
	RecipientName   string
	Status          string
	Timestamp       time.Time
}

// FromDocument decodes a remote gift document. Missing fields decode to zero
// values; snapshots from the hosted backend are not schema-checked.
func FromDocument(doc docstore.Document) Record {
	return Record{
		ID:              doc.ID,
		ItemID:          str(doc.Data["itemId"]),
		ItemName:        str(doc.Data["itemName"]),
		ItemPrice:       num(doc.Data["itemPrice"]),
		ItemImage:       str(doc.Data["itemImage"]),
		ItemDescription: str(doc.Data["itemDescription"]),
		ItemRating:      num(doc.Data["itemRating"]),
		ItemReviewCount: int(num(doc.Data["itemReviewCount"])),
		SenderPhone:     str(doc.Data["senderPhoneNumber"]),
		SenderName:      str(doc.Data["senderName"]),
		RecipientPhone:  str(doc.Data["recipientPhoneNumber"]),
		RecipientName:   str(doc.Data["recipientName"]),
		Status:          str(doc.Data["status"]),
		Timestamp:       ts(doc.Data["timestamp"]),
	}
}

// Service creates and removes gift records.
type Service struct {
	store docstore.Store
	log   *zap.Logger
}

func NewService(store docstore.Store, log *zap.Logger) *Service {
	return &Service{store: store, log: log.Named("gift")}
}

// Send creates a gift record after checking that no active record exists for
// the same (item, sender, recipient) triple. The check and the create are not
// atomic; two concurrent sends for the same triple can both pass the check.
// That matches the behavior of the deployed system and is tolerated.
func (s *Service) Send(ctx context.Context, r Record) (string, error) {
	existing, err := s.store.QueryMany(ctx, docstore.CollectionGifts, docstore.Query{
		Wheres: []docstore.Where{
			{Field: "itemId", Op: "==", Value: r.ItemID},
			{Field: "senderPhoneNumber", Op: "==", Value: r.SenderPhone},
			{Field: "recipientPhoneNumber", Op: "==", Value: r.RecipientPhone},
			{Field: "status", Op: "==", Value: "active"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("check existing gift: %w", err)
	}
	if len(existing) > 0 {
		return "", ErrDuplicate
	}

	id, err := s.store.CreateOne(ctx, docstore.CollectionGifts, map[string]any{
		"itemId":               r.ItemID,
		"itemName":             r.ItemName,
		"itemPrice":            r.ItemPrice,
		"itemImage":            r.ItemImage,
		"itemDescription":      r.ItemDescription,
		"itemRating":           r.ItemRating,
		"itemReviewCount":      r.ItemReviewCount,
		"senderPhoneNumber":    r.SenderPhone,
		"senderName":           r.SenderName,
		"recipientPhoneNumber": r.RecipientPhone,
		"recipientName":        r.RecipientName,
		"timestamp":            docstore.ServerTimestamp,
		"status":               "active",
		"removedBySender":      false,
		"removedByReceiver":    false,
	})
	if err != nil {
		return "", fmt.Errorf("create gift: %w", err)
	}
	s.log.Info("gift sent",
		zap.String("item_id", r.ItemID),
		zap.String("recipient", r.RecipientPhone),
		zap.String("doc_id", id))
	return id, nil
}

// Remove deletes the backing gift record. Callers remove the local cart item
// first; a failed delete here leaves an orphan that the next reconciliation
// surfaces again.
func (s *Service) Remove(ctx context.Context, docID string) error {
	if err := s.store.DeleteOne(ctx, docstore.CollectionGifts, docID); err != nil {
		s.log.Warn("gift delete failed", zap.String("doc_id", docID), zap.Error(err))
		return fmt.Errorf("delete gift %s: %w", docID, err)
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func ts(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
