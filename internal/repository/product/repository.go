package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// List returns one page of products matching filters and the total
	// number of matches.
	List(ctx context.Context, filters domain.ProductFilters) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	// Upsert inserts or updates a product and its variants, matching on SKU.
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
