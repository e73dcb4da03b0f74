package checkout

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var (
	flatShipping = decimal.RequireFromString("9.99")
	taxRate      = decimal.RequireFromString("0.08")
)

// Summary is the order total shown on the review step of checkout.
type Summary struct {
	CartID     string       `json:"cartId"`
	TotalItems int          `json:"totalItems"`
	Subtotal   domain.Money `json:"subtotal"`
	Shipping   domain.Money `json:"shipping"`
	Tax        domain.Money `json:"tax"`
	Total      domain.Money `json:"total"`
}

// Summarize prices a cart: flat shipping when anything is in it, tax on the
// subtotal, each amount rounded to cents.
func Summarize(cart domain.Cart) Summary {
	count, subtotal := domain.Totals(cart.Items)

	shipping := decimal.Zero
	if count > 0 {
		shipping = flatShipping
	}
	sub := subtotal.Round(2)
	tax := sub.Mul(taxRate).Round(2)

	return Summary{
		CartID:     cart.ID,
		TotalItems: count,
		Subtotal:   domain.NewMoney(sub),
		Shipping:   domain.NewMoney(shipping),
		Tax:        domain.NewMoney(tax),
		Total:      domain.NewMoney(sub.Add(shipping).Add(tax)),
	}
}
