// Package chat sends and decodes table chat messages. Outgoing messages go
// through a local outbox so a flaky connection never loses a send.
package chat

import (
	"time"

	"github.com/matheus3301/mesa/internal/docstore"
)

// Message kinds.
const (
	KindText           = "text"
	KindGift           = "gift"
	KindRecommendation = "recommendation"
)

// Message is one chat entry in a table's message collection.
type Message struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Kind        string    `json:"type"`
	Phone       string    `json:"phoneNumber"`
	DisplayName string    `json:"displayName,omitempty"`
	Table       string    `json:"tableNumber,omitempty"`
	Timestamp   time.Time `json:"timestamp"`

	// Gift companion fields.
	GiftedItem      string  `json:"giftedItem,omitempty"`
	GiftedItemPrice float64 `json:"giftedItemPrice,omitempty"`
	GiftedTo        string  `json:"giftedTo,omitempty"`
	GiftedToPhone   string  `json:"giftedToPhone,omitempty"`

	// Recommendation companion fields.
	RecommendedItem      string  `json:"recommendedItem,omitempty"`
	RecommendedItemPrice float64 `json:"recommendedItemPrice,omitempty"`
	RecommendedTo        string  `json:"recommendedTo,omitempty"`
}

// FromDocument decodes a remote message document. Untyped or missing type
// fields decode as plain text.
func FromDocument(doc docstore.Document) Message {
	m := Message{ID: doc.ID, Kind: KindText}
	m.Text, _ = doc.Data["text"].(string)
	if kind, _ := doc.Data["type"].(string); kind != "" {
		m.Kind = kind
	}
	m.Phone, _ = doc.Data["phoneNumber"].(string)
	m.DisplayName, _ = doc.Data["displayName"].(string)
	if m.DisplayName == "" {
		m.DisplayName, _ = doc.Data["name"].(string)
	}
	m.Table, _ = doc.Data["tableNumber"].(string)
	m.Timestamp, _ = doc.Data["timestamp"].(time.Time)
	m.GiftedItem, _ = doc.Data["giftedItem"].(string)
	m.GiftedItemPrice = num(doc.Data["giftedItemPrice"])
	m.GiftedTo, _ = doc.Data["giftedTo"].(string)
	m.GiftedToPhone, _ = doc.Data["giftedToPhone"].(string)
	m.RecommendedItem, _ = doc.Data["recommendedItem"].(string)
	m.RecommendedItemPrice = num(doc.Data["recommendedItemPrice"])
	m.RecommendedTo, _ = doc.Data["recommendedTo"].(string)
	return m
}

func (m Message) data() map[string]any {
	data := map[string]any{
		"text":        m.Text,
		"type":        m.Kind,
		"phoneNumber": m.Phone,
		"displayName": m.DisplayName,
		"tableNumber": m.Table,
		"timestamp":   docstore.ServerTimestamp,
	}
	switch m.Kind {
	case KindGift:
		data["giftedItem"] = m.GiftedItem
		data["giftedItemPrice"] = m.GiftedItemPrice
		data["giftedTo"] = m.GiftedTo
		data["giftedToPhone"] = m.GiftedToPhone
	case KindRecommendation:
		data["recommendedItem"] = m.RecommendedItem
		data["recommendedItemPrice"] = m.RecommendedItemPrice
		data["recommendedTo"] = m.RecommendedTo
	}
	return data
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
