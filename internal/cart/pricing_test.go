package cart

import (
	"errors"
	"math"
	"testing"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPriceRegularItems(t *testing.T) {
	items := []Item{
		{ID: "p1", Price: 10, Quantity: 2},
		{ID: "p2", Price: 5, Quantity: 1},
	}

	tot := Price(items, 0, 0)
	if !almost(tot.RegularSubtotal, 25) {
		t.Errorf("regular subtotal = %v, want 25", tot.RegularSubtotal)
	}
	if !almost(tot.Tax, 2) {
		t.Errorf("tax = %v, want 2", tot.Tax)
	}
	if !almost(tot.Total, 27) {
		t.Errorf("total = %v, want 27", tot.Total)
	}
}

func TestPriceGiftsNotDoubleCounted(t *testing.T) {
	items := []Item{
		{ID: "p1", Price: 10, Quantity: 1},
		{ID: "p2", GiftID: "received-p2-x", IsGift: true, IsGiftRecv: true, Price: 0, OriginalPrice: 30, Quantity: 1},
		{ID: "p3", GiftID: "sent-p3-y", IsGift: true, IsGiftSent: true, Price: 20, OriginalPrice: 20, Quantity: 1},
	}

	tot := Price(items, 0, 0)
	if !almost(tot.RegularSubtotal, 10) {
		t.Errorf("received gift leaked into regular subtotal: %v", tot.RegularSubtotal)
	}
	if !almost(tot.GiftSentSubtotal, 20) {
		t.Errorf("gift sent subtotal = %v, want 20", tot.GiftSentSubtotal)
	}
	if !almost(tot.Subtotal, 30) {
		t.Errorf("subtotal = %v, want 30", tot.Subtotal)
	}
}

func TestPriceSentGiftFallsBackToPrice(t *testing.T) {
	items := []Item{
		{ID: "p1", GiftID: "sent-p1-y", IsGift: true, IsGiftSent: true, Price: 18, Quantity: 1},
	}
	tot := Price(items, 0, 0)
	if !almost(tot.GiftSentSubtotal, 18) {
		t.Errorf("fallback to price failed: %v", tot.GiftSentSubtotal)
	}
}

func TestPriceDiscountAndGiftAmount(t *testing.T) {
	items := []Item{{ID: "p1", Price: 100, Quantity: 1}}
	tot := Price(items, 10, 5)
	if !almost(tot.Total, 100+8+5-10) {
		t.Errorf("total = %v, want 103", tot.Total)
	}
}

func TestApplyDiscountCodes(t *testing.T) {
	cases := []struct {
		code string
		want float64
	}{
		{"welcome10", 10},
		{"WELCOME10", 10},
		{"save20", 20},
		{"SaVe20", 20},
	}
	for _, tc := range cases {
		got, err := ApplyDiscount(tc.code, 100)
		if err != nil {
			t.Errorf("ApplyDiscount(%q): %v", tc.code, err)
		}
		if !almost(got, tc.want) {
			t.Errorf("ApplyDiscount(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestApplyDiscountUnknownCode(t *testing.T) {
	got, err := ApplyDiscount("nope", 100)
	if !errors.Is(err, ErrInvalidCode) {
		t.Errorf("err = %v, want ErrInvalidCode", err)
	}
	if got != 0 {
		t.Errorf("discount = %v, want 0", got)
	}
}
