package checkout

import (
	"testing"
	"time"

	"storefront/internal/domain"
)

func TestSummarize(t *testing.T) {
	cart := domain.NewCart("cart_a", time.Now())
	cart.Items = []domain.CartItem{
		{ProductID: 1, VariantID: 1, Quantity: 2, Variant: domain.ProductVariant{Price: "19.99"}},
		{ProductID: 2, VariantID: 3, Quantity: 1, Variant: domain.ProductVariant{Price: "5.00"}},
	}

	s := Summarize(cart)
	if s.TotalItems != 3 {
		t.Fatalf("expected 3 items, got %d", s.TotalItems)
	}
	checks := map[string]struct{ got, want string }{
		"subtotal": {s.Subtotal.String(), "44.98"},
		"shipping": {s.Shipping.String(), "9.99"},
		"tax":      {s.Tax.String(), "3.6"},
		"total":    {s.Total.String(), "58.57"},
	}
	for name, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s: expected %s, got %s", name, c.want, c.got)
		}
	}
}

func TestSummarizeEmptyCart(t *testing.T) {
	s := Summarize(domain.NewCart("cart_a", time.Now()))
	if !s.Total.IsZero() || !s.Shipping.IsZero() {
		t.Fatalf("expected zero totals for empty cart, got %+v", s)
	}
}
