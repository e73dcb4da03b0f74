package product

import (
	"context"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

const maxPageSize = 200

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of the local catalog in the same envelope the
// backend catalog uses.
func (s *Service) List(ctx context.Context, filters domain.ProductFilters) (*domain.ProductsResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > maxPageSize {
		filters.Limit = maxPageSize
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	products, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return &domain.ProductsResponse{
		Success:    true,
		Products:   products,
		Pagination: Paginate(total, filters.Limit, filters.Offset),
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func Paginate(total, limit, offset int) domain.Pagination {
	p := domain.Pagination{
		Total:       total,
		Limit:       limit,
		Offset:      offset,
		CurrentPage: 1,
	}
	if limit > 0 {
		p.TotalPages = (total + limit - 1) / limit
		p.CurrentPage = offset/limit + 1
	}
	p.HasNextPage = offset+limit < total
	p.HasPrevPage = offset > 0
	return p
}
