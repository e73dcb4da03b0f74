package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cartfacade"
	"storefront/internal/cartstore"
	"storefront/internal/domain"
)

type stubCatalog map[int64]domain.Product

func (s stubCatalog) Product(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type stubRemote struct {
	carts map[string]domain.Cart
}

func (s stubRemote) Pull(_ context.Context, id string) *domain.Cart {
	c, ok := s.carts[id]
	if !ok {
		return nil
	}
	return &c
}

func newApp(remote stubRemote) (*app, *bytes.Buffer) {
	out := &bytes.Buffer{}
	store := cartstore.New(cartstore.NewMemoryStorage(), nil, cartstore.WithIDGenerator(func() string { return "cart_cli" }))
	return &app{
		facade: cartfacade.New(store),
		catalog: stubCatalog{
			7: {ID: 7, Name: "Tee", Variants: []domain.ProductVariant{{ID: 70, ProductID: 7, SKU: "TEE-M", Price: "12.00"}}},
		},
		remote: remote,
		out:    out,
	}, out
}

func decodeCart(t *testing.T, out *bytes.Buffer) domain.Cart {
	t.Helper()
	var cart domain.Cart
	require.NoError(t, json.Unmarshal(out.Bytes(), &cart))
	out.Reset()
	return cart
}

func TestRunCartCommands(t *testing.T) {
	a, out := newApp(stubRemote{})
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "add", []string{"-product", "7", "-variant", "70", "-qty", "2"}))
	cart := decodeCart(t, out)
	assert.Equal(t, "cart_cli", cart.ID)
	assert.Equal(t, 2, cart.TotalItems)

	require.NoError(t, a.run(ctx, "add", []string{"-product", "7", "-variant", "70"}))
	cart = decodeCart(t, out)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "36", cart.TotalPrice.String())

	require.NoError(t, a.run(ctx, "count", nil))
	assert.Equal(t, "3", strings.TrimSpace(out.String()))
	out.Reset()

	require.NoError(t, a.run(ctx, "update", []string{"-product", "7", "-variant", "70", "-qty", "0"}))
	cart = decodeCart(t, out)
	assert.Empty(t, cart.Items)

	require.NoError(t, a.run(ctx, "clear", nil))
	cart = decodeCart(t, out)
	assert.Equal(t, "cart_cli", cart.ID)
}

func TestRunAddErrors(t *testing.T) {
	a, _ := newApp(stubRemote{})
	ctx := context.Background()

	assert.Error(t, a.run(ctx, "add", nil))
	assert.ErrorIs(t, a.run(ctx, "add", []string{"-product", "8", "-variant", "1"}), domain.ErrNotFound)
	assert.ErrorIs(t, a.run(ctx, "add", []string{"-product", "7", "-variant", "99"}), domain.ErrNotFound)
	assert.ErrorIs(t, a.run(ctx, "add", []string{"-product", "7", "-variant", "70", "-qty", "0"}), domain.ErrInvalidQuantity)
	assert.True(t, errors.Is(a.run(ctx, "bogus", nil), flag.ErrHelp))
}

func TestRunPull(t *testing.T) {
	remote := stubRemote{carts: map[string]domain.Cart{}}
	a, out := newApp(remote)
	ctx := context.Background()

	assert.ErrorIs(t, a.run(ctx, "pull", nil), domain.ErrNotFound)

	remote.carts["cart_cli"] = domain.Cart{ID: "cart_cli", TotalItems: 5}
	require.NoError(t, a.run(ctx, "pull", nil))
	assert.Equal(t, 5, decodeCart(t, out).TotalItems)
}
