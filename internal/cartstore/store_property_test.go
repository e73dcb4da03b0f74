package cartstore

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"storefront/internal/domain"
)

func TestRepeatedAddsMergeIntoOneLine(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("adds of one pair sum into a single line", prop.ForAll(
		func(quantities []int) bool {
			store := New(NewMemoryStorage(), nil)
			p, v := tee(7, 70, "3.10")
			want := 0
			for _, q := range quantities {
				if _, err := store.AddItem(p, v, q); err != nil {
					return false
				}
				want += q
			}
			cart := store.GetCart()
			if len(quantities) == 0 {
				return len(cart.Items) == 0
			}
			return len(cart.Items) == 1 && cart.Items[0].Quantity == want && cart.TotalItems == want
		},
		gen.SliceOf(gen.IntRange(1, 50)),
	))

	properties.Property("totals match items after mixed mutations", prop.ForAll(
		func(ops []int) bool {
			store := New(NewMemoryStorage(), nil)
			for i, op := range ops {
				id := int64(op % 4)
				p, v := tee(id, id*10, "2.25")
				var err error
				switch i % 4 {
				case 0, 1:
					_, err = store.AddItem(p, v, op%5+1)
				case 2:
					_, err = store.UpdateItem(id, id*10, op%3)
				case 3:
					_, err = store.RemoveItem(id, id*10)
				}
				if err != nil {
					return false
				}
				cart := store.GetCart()
				count, total := domain.Totals(cart.Items)
				if cart.TotalItems != count || !cart.TotalPrice.Equal(total.Decimal) {
					return false
				}
				if domain.ValidateItems(cart.Items) != nil {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
