package cart

import (
	"errors"
	"strings"
)

// TaxRate applied to the combined subtotal.
const TaxRate = 0.08

// ErrInvalidCode is returned for unrecognized discount codes.
var ErrInvalidCode = errors.New("invalid discount code")

// discountCodes maps lowercase codes to their subtotal fraction.
var discountCodes = map[string]float64{
	"welcome10": 0.10,
	"save20":    0.20,
}

// Totals is the priced breakdown of a cart.
type Totals struct {
	RegularSubtotal  float64 `json:"regularSubtotal"`
	GiftSentSubtotal float64 `json:"giftSentSubtotal"`
	Subtotal         float64 `json:"subtotal"`
	Tax              float64 `json:"tax"`
	Discount         float64 `json:"discount"`
	GiftAmount       float64 `json:"giftAmount"`
	Total            float64 `json:"total"`
}

// Price computes the cart totals. Received gifts cost nothing and stay out of
// the regular subtotal; sent gifts are charged at the original item price.
func Price(items []Item, discount, giftAmount float64) Totals {
	var regular, sent float64
	for _, it := range items {
		if !it.IsGift {
			regular += it.Price * float64(it.Quantity)
			continue
		}
		if it.IsGiftSent {
			// Zero doubles as "unset" here. Synthesized sent gifts always
			// carry OriginalPrice == Price, so a genuinely free item still
			// prices correctly through the fallback.
			price := it.OriginalPrice
			if price == 0 {
				price = it.Price
			}
			sent += price * float64(it.Quantity)
		}
	}
	subtotal := regular + sent
	tax := subtotal * TaxRate
	return Totals{
		RegularSubtotal:  regular,
		GiftSentSubtotal: sent,
		Subtotal:         subtotal,
		Tax:              tax,
		Discount:         discount,
		GiftAmount:       giftAmount,
		Total:            subtotal + tax + giftAmount - discount,
	}
}

// ApplyDiscount resolves a discount code against the subtotal. Codes match
// case-insensitively; an unknown code yields zero and ErrInvalidCode.
func ApplyDiscount(code string, subtotal float64) (float64, error) {
	frac, ok := discountCodes[strings.ToLower(code)]
	if !ok {
		return 0, ErrInvalidCode
	}
	return subtotal * frac, nil
}
