package category

import (
	"context"

	"github.com/gosimple/slug"

	"storefront/internal/domain"
	"storefront/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the catalog categories with their url slugs filled in.
func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Slug = slug.Make(list[i].Name)
	}
	if list == nil {
		list = []domain.Category{}
	}
	return list, nil
}
