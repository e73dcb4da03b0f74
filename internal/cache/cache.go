package cache

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

// CartCache is a read-through cache in front of the cart repository.
type CartCache interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Set(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, id string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache never holds anything. Used when REDIS_ADDR is unset.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*domain.Cart, error) {
	return nil, ErrCacheMiss
}

func (NopCache) Set(context.Context, *domain.Cart) error {
	return nil
}

func (NopCache) Delete(context.Context, string) error {
	return nil
}
