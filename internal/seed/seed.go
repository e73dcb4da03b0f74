package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Products returns the demo catalog used for manual testing.
func Products() []domain.Product {
	return []domain.Product{
		{
			SKU:         "SKU-DEMO-TSHIRT",
			Handle:      "demo-t-shirt",
			Name:        "Demo T-Shirt",
			Description: "Soft cotton tee for demo purposes",
			Category:    "apparel",
			Brand:       "Demo",
			BasePrice:   "19.99",
			Status:      "active",
			Variants: []domain.ProductVariant{
				{SKU: "SKU-DEMO-TSHIRT-M-BLK", Name: "Medium Black", Size: "M", Color: "Black", Price: "19.99", Weight: "0.20"},
				{SKU: "SKU-DEMO-TSHIRT-L-BLK", Name: "Large Black", Size: "L", Color: "Black", Price: "19.99", Weight: "0.22"},
				{SKU: "SKU-DEMO-TSHIRT-L-WHT", Name: "Large White", Size: "L", Color: "White", Price: "21.99", Weight: "0.22"},
			},
		},
		{
			SKU:         "SKU-DEMO-MUG",
			Handle:      "demo-mug",
			Name:        "Demo Mug",
			Description: "Ceramic mug with demo logo",
			Category:    "kitchen",
			Brand:       "Demo",
			BasePrice:   "12.99",
			Status:      "active",
			Variants: []domain.ProductVariant{
				{SKU: "SKU-DEMO-MUG-STD", Name: "Standard", Color: "White", Price: "12.99", Weight: "0.40"},
			},
		},
	}
}

// Apply upserts the demo catalog. It is idempotent since products and
// variants are keyed by sku.
func Apply(ctx context.Context, repo ProductWriter) error {
	for _, p := range Products() {
		if _, err := repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}
	return nil
}
