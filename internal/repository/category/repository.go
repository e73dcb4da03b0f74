package category

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// List returns every category with at least one live product.
	List(ctx context.Context) ([]domain.Category, error)
}
