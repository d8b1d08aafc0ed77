package cart

import (
	"fmt"

	"github.com/matheus3301/mesa/internal/gift"
)

// ReceivedGiftID builds the composite key for a gift the user received.
func ReceivedGiftID(itemID, senderPhone string) string {
	return fmt.Sprintf("received-%s-%s", itemID, senderPhone)
}

// SentGiftID builds the composite key for a gift the user sent.
func SentGiftID(itemID, recipientPhone string) string {
	return fmt.Sprintf("sent-%s-%s", itemID, recipientPhone)
}

// SynthesizeReceived builds the cart projection of a gift addressed to the
// user. Received gifts are free for the recipient.
func SynthesizeReceived(r gift.Record) Item {
	return Item{
		ID:            r.ItemID,
		GiftID:        ReceivedGiftID(r.ItemID, r.SenderPhone),
		Name:          r.ItemName,
		Price:         0,
		OriginalPrice: r.ItemPrice,
		Image:         r.ItemImage,
		Description:   r.ItemDescription,
		Rating:        r.ItemRating,
		ReviewCount:   r.ItemReviewCount,
		Quantity:      1,
		IsGift:        true,
		IsGiftRecv:    true,
		GiftedBy:      r.SenderName,
		GiftedTo:      r.RecipientPhone,
		GiftDocID:     r.ID,
	}
}

// SynthesizeSent builds the cart projection of a gift the user sent. The
// sender pays the item price.
func SynthesizeSent(r gift.Record) Item {
	name := r.RecipientName
	if name == "" {
		name = "Unknown User"
	}
	return Item{
		ID:            r.ItemID,
		GiftID:        SentGiftID(r.ItemID, r.RecipientPhone),
		Name:          r.ItemName,
		Price:         r.ItemPrice,
		OriginalPrice: r.ItemPrice,
		Image:         r.ItemImage,
		Description:   r.ItemDescription,
		Rating:        r.ItemRating,
		ReviewCount:   r.ItemReviewCount,
		Quantity:      1,
		IsGift:        true,
		IsGiftSent:    true,
		GiftedBy:      r.SenderName,
		GiftedTo:      r.RecipientPhone,
		GiftedToName:  name,
		GiftDocID:     r.ID,
	}
}

// Reconcile merges the authoritative gift snapshot into the cart. The result
// depends only on the current snapshot and user identity, never on snapshot
// arrival order, and applying it twice changes nothing.
//
// Passes, in order: synthesize missing gift projections, append them in one
// batch, evict gift items whose record disappeared, then deduplicate.
func Reconcile(items []Item, gifts []gift.Record, selfPhone string) []Item {
	self := NormalizePhone(selfPhone)

	present := make(map[string]bool, len(items))
	for _, it := range items {
		if it.GiftID != "" {
			present[it.GiftID] = true
		}
	}

	valid := make(map[string]bool, len(gifts))
	var synthesized []Item
	for _, g := range gifts {
		if g.ItemID == gift.TestItemID {
			continue
		}
		if NormalizePhone(g.RecipientPhone) == self {
			id := ReceivedGiftID(g.ItemID, g.SenderPhone)
			valid[id] = true
			if !present[id] {
				synthesized = append(synthesized, SynthesizeReceived(g))
				present[id] = true
			}
		}
		if NormalizePhone(g.SenderPhone) == self {
			id := SentGiftID(g.ItemID, g.RecipientPhone)
			valid[id] = true
			if !present[id] {
				synthesized = append(synthesized, SynthesizeSent(g))
				present[id] = true
			}
		}
	}

	merged := append(append([]Item{}, items...), synthesized...)

	kept := merged[:0]
	for _, it := range merged {
		if it.ID == gift.TestItemID {
			continue
		}
		if it.IsGift && !valid[it.GiftID] {
			continue
		}
		kept = append(kept, it)
	}

	return Dedup(kept)
}

// Dedup removes later duplicates, keyed by giftId for gift items and by
// (id, isGift) otherwise. The first occurrence wins.
func Dedup(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		var key string
		if it.IsGift {
			key = "gift:" + it.GiftID
		} else {
			key = "item:" + it.ID
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
