package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Cart is one shopper's pending order. TotalItems and TotalPrice are derived
// from Items by Recalculate and are never adjusted incrementally.
type Cart struct {
	ID         string     `json:"id"`
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice Money      `json:"totalPrice"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// CartItem is a product variant line. Product and Variant are snapshots taken
// when the line was first added.
//
// A line decoded from JSON keeps the snapshot documents it was given and
// writes them back unchanged, including fields Product and ProductVariant do
// not model.
type CartItem struct {
	ProductID int64          `json:"productId"`
	VariantID int64          `json:"variantId"`
	Quantity  int            `json:"quantity"`
	Product   Product        `json:"product"`
	Variant   ProductVariant `json:"variant"`
	AddedAt   time.Time      `json:"addedAt"`

	decoded    bool
	rawProduct json.RawMessage
	rawVariant json.RawMessage
}

type itemJSON struct {
	ProductID int64           `json:"productId"`
	VariantID int64           `json:"variantId"`
	Quantity  int             `json:"quantity"`
	Product   json.RawMessage `json:"product,omitempty"`
	Variant   json.RawMessage `json:"variant,omitempty"`
	AddedAt   *time.Time      `json:"addedAt,omitempty"`
}

func (i CartItem) MarshalJSON() ([]byte, error) {
	out := itemJSON{
		ProductID: i.ProductID,
		VariantID: i.VariantID,
		Quantity:  i.Quantity,
		Product:   i.rawProduct,
		Variant:   i.rawVariant,
	}
	if !i.decoded {
		var err error
		if out.Product, err = json.Marshal(i.Product); err != nil {
			return nil, err
		}
		if out.Variant, err = json.Marshal(i.Variant); err != nil {
			return nil, err
		}
	}
	if !i.AddedAt.IsZero() {
		added := i.AddedAt
		out.AddedAt = &added
	}
	return json.Marshal(out)
}

func (i *CartItem) UnmarshalJSON(data []byte) error {
	var in itemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	item := CartItem{
		ProductID:  in.ProductID,
		VariantID:  in.VariantID,
		Quantity:   in.Quantity,
		decoded:    true,
		rawProduct: in.Product,
		rawVariant: in.Variant,
	}
	if in.AddedAt != nil {
		item.AddedAt = *in.AddedAt
	}
	if err := decodeSnapshot(in.Product, &item.Product); err != nil {
		return fmt.Errorf("product snapshot: %w", err)
	}
	if err := decodeSnapshot(in.Variant, &item.Variant); err != nil {
		return fmt.Errorf("variant snapshot: %w", err)
	}
	*i = item
	return nil
}

// decodeSnapshot fills the typed view of a snapshot. Empty-string fields are
// treated as absent so a blank timestamp does not reject the whole line.
func decodeSnapshot(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err == nil {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	cleaned, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(cleaned, dst)
}

// UnitPrice is the parsed variant price.
func (i CartItem) UnitPrice() decimal.Decimal {
	return ParsePrice(i.Variant.Price)
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func NewCart(id string, now time.Time) Cart {
	return Cart{
		ID:        id,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Totals sums quantities and line totals over all items.
func Totals(items []CartItem) (int, Money) {
	count := 0
	sum := decimal.Zero
	for _, item := range items {
		count += item.Quantity
		sum = sum.Add(item.LineTotal())
	}
	return count, NewMoney(sum)
}

// Recalculate recomputes the derived totals and stamps UpdatedAt.
func (c *Cart) Recalculate(now time.Time) {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	c.TotalItems, c.TotalPrice = Totals(c.Items)
	c.UpdatedAt = now
}

// IndexOf returns the position of the (productID, variantID) line or -1.
func (c Cart) IndexOf(productID, variantID int64) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.VariantID == variantID {
			return i
		}
	}
	return -1
}

func (c Cart) Contains(productID, variantID int64) bool {
	return c.IndexOf(productID, variantID) >= 0
}

// Clone copies the items slice so the copy can be mutated independently.
// Product snapshots are shared; they are never modified after insertion.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

// ValidateItems checks the stored-item invariants: every quantity is at least
// one and no two lines share a (productId, variantId) pair.
func ValidateItems(items []CartItem) error {
	type key struct{ product, variant int64 }
	seen := make(map[key]struct{}, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d has quantity %d", ErrInvalidCart, i, item.Quantity)
		}
		k := key{item.ProductID, item.VariantID}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: duplicate item for product %d variant %d", ErrInvalidCart, item.ProductID, item.VariantID)
		}
		seen[k] = struct{}{}
	}
	return nil
}
