// Package cart holds the locally persisted cart and the reconciliation logic
// that keeps it consistent with the shared gift records.
package cart

import "strings"

// Item is a cart line. Regular items are keyed by (ID, IsGift); gift items
// carry a composite GiftID derived from the backing gift record.
type Item struct {
	ID            string  `json:"id"`
	GiftID        string  `json:"giftId,omitempty"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice,omitempty"`
	Image         string  `json:"image,omitempty"`
	Description   string  `json:"description,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	ReviewCount   int     `json:"reviewCount,omitempty"`
	Quantity      int     `json:"quantity"`
	IsGift        bool    `json:"isGift,omitempty"`
	IsGiftSent    bool    `json:"isGiftSent,omitempty"`
	IsGiftRecv    bool    `json:"isGiftReceived,omitempty"`
	GiftedBy      string  `json:"giftedBy,omitempty"`
	GiftedTo      string  `json:"giftedTo,omitempty"`
	GiftedToName  string  `json:"giftedToName,omitempty"`
	GiftDocID     string  `json:"giftDocId,omitempty"`
}

// Identifier is the key used for removal and quantity updates.
func (it Item) Identifier() string {
	if it.GiftID != "" {
		return it.GiftID
	}
	return it.ID
}

// NormalizePhone strips every non-digit character. All phone comparisons go
// through this first.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
