package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/domain"
)

type stubRepo struct {
	mu        sync.Mutex
	docs      map[string]domain.Cart
	getCalls  int
	saveErr   error
	lastSaved domain.Cart
}

func newStubRepo() *stubRepo {
	return &stubRepo{docs: make(map[string]domain.Cart)}
}

func (s *stubRepo) Get(_ context.Context, id string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	cart, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cart, nil
}

func (s *stubRepo) Save(_ context.Context, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.lastSaved = cart
	s.docs[cart.ID] = cart
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string]domain.Cart
	deletes int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]domain.Cart)}
}

func (c *stubCache) Get(_ context.Context, id string) (*domain.Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cart, ok := c.entries[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &cart, nil
}

func (c *stubCache) Set(_ context.Context, cart *domain.Cart) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cart.ID] = *cart
	return nil
}

func (c *stubCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.entries, id)
	return nil
}

func newTestService(t *testing.T, repo cartRepo, c cache.CartCache) *Service {
	t.Helper()
	svc, err := New(repo, c, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestDecode_Errors(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil)
	cases := []struct {
		name string
		body string
		want error
	}{
		{"missing id", `{"items":[]}`, domain.ErrCartIDRequired},
		{"empty id", `{"id":"","items":[]}`, domain.ErrCartIDRequired},
		{"numeric id", `{"id":5,"items":[]}`, domain.ErrCartIDRequired},
		{"items not array", `{"id":"cart_a","items":"nope"}`, domain.ErrInvalidCart},
		{"items missing", `{"id":"cart_a"}`, domain.ErrInvalidCart},
		{"not json", `{`, domain.ErrInvalidCart},
		{"array body", `[]`, domain.ErrInvalidCart},
		{"zero quantity", `{"id":"cart_a","items":[{"productId":1,"variantId":1,"quantity":0}]}`, domain.ErrInvalidCart},
		{"fractional id", `{"id":"cart_a","items":[{"productId":1.5,"variantId":1,"quantity":1}]}`, domain.ErrInvalidCart},
		{"duplicate pair", `{"id":"cart_a","items":[{"productId":1,"variantId":1,"quantity":1},{"productId":1,"variantId":1,"quantity":2}]}`, domain.ErrInvalidCart},
		{"unsafe id", `{"id":"../../etc/passwd","items":[]}`, domain.ErrInvalidCartID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Decode([]byte(tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDecode_IgnoresClientTotals(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil)
	cart, err := svc.Decode([]byte(`{"id":"cart_a","totalItems":99,"totalPrice":"bogus","items":[{"productId":1,"variantId":2,"quantity":2,"variant":{"id":2,"price":12.5}}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cart.TotalItems != 0 {
		t.Fatalf("expected totals to be dropped, got %d", cart.TotalItems)
	}
	if cart.Items[0].Variant.Price != "12.5" {
		t.Fatalf("expected numeric price to become a string, got %q", cart.Items[0].Variant.Price)
	}
}

func TestSave_RecomputesAndStamps(t *testing.T) {
	repo := newStubRepo()
	c := newStubCache()
	svc := newTestService(t, repo, c)

	in, err := svc.Decode([]byte(`{"id":"cart_a","totalItems":1,"totalPrice":1,"items":[{"productId":1,"variantId":2,"quantity":3,"variant":{"price":"10.00"}}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	saved, err := svc.Save(context.Background(), in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.TotalItems != 3 || saved.TotalPrice.String() != "30" {
		t.Fatalf("expected server totals 3/30, got %d/%s", saved.TotalItems, saved.TotalPrice)
	}
	now := svc.now()
	if !saved.UpdatedAt.Equal(now) || !saved.CreatedAt.Equal(now) {
		t.Fatalf("expected timestamps stamped, got %v %v", saved.CreatedAt, saved.UpdatedAt)
	}
	if repo.lastSaved.TotalPrice.String() != "30" {
		t.Fatalf("expected recomputed document persisted, got %s", repo.lastSaved.TotalPrice)
	}
	if _, ok := c.entries["cart_a"]; !ok {
		t.Fatalf("expected cache to hold saved cart")
	}
}

func TestSave_BlankTimestampsCountAsAbsent(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil)

	in, err := svc.Decode([]byte(`{"id":"cart_a","createdAt":"","updatedAt":"","items":[{"productId":1,"variantId":2,"quantity":1,"addedAt":"","variant":{"price":"4.00"}}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !in.Items[0].AddedAt.IsZero() {
		t.Fatalf("expected blank addedAt to decode as unset, got %v", in.Items[0].AddedAt)
	}
	saved, err := svc.Save(context.Background(), in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !saved.CreatedAt.Equal(svc.now()) {
		t.Fatalf("expected blank createdAt to be stamped, got %v", saved.CreatedAt)
	}
}

func TestDecode_KeepsSnapshotsVerbatim(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil)
	in, err := svc.Decode([]byte(`{"id":"cart_a","items":[{"productId":1,"variantId":2,"quantity":1,"product":{"id":1,"name":"Tee","tags":["summer"]},"variant":{"id":2,"price":"10.00","compareAtPrice":"12.00"}}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if in.Items[0].Product.Name != "Tee" || in.Items[0].UnitPrice().String() != "10" {
		t.Fatalf("expected typed snapshot fields, got %+v", in.Items[0])
	}

	out, err := json.Marshal(in.Items[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(out)
	for _, want := range []string{`"tags":["summer"]`, `"compareAtPrice":"12.00"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %s in %s", want, got)
		}
	}
	for _, unwanted := range []string{`"sku"`, `0001-01-01`, `"variants"`, `"addedAt"`} {
		if strings.Contains(got, unwanted) {
			t.Fatalf("unexpected %s in %s", unwanted, got)
		}
	}
}

func TestSave_KeepsCreatedAt(t *testing.T) {
	svc := newTestService(t, newStubRepo(), nil)
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	in := domain.NewCart("cart_a", created)

	saved, err := svc.Save(context.Background(), in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !saved.CreatedAt.Equal(created) {
		t.Fatalf("expected createdAt preserved, got %v", saved.CreatedAt)
	}
	if saved.UpdatedAt.Equal(created) {
		t.Fatalf("expected updatedAt refreshed")
	}
}

func TestSave_RepoError(t *testing.T) {
	repo := newStubRepo()
	repo.saveErr = errors.New("disk full")
	svc := newTestService(t, repo, nil)

	if _, err := svc.Save(context.Background(), domain.NewCart("cart_a", time.Now())); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGet_NotFoundAndCache(t *testing.T) {
	repo := newStubRepo()
	c := newStubCache()
	svc := newTestService(t, repo, c)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "unknown-id"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Get(ctx, ""); !errors.Is(err, domain.ErrCartIDRequired) {
		t.Fatalf("expected id required, got %v", err)
	}

	repo.docs["cart_a"] = domain.NewCart("cart_a", time.Now())
	if _, err := svc.Get(ctx, "cart_a"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := svc.Get(ctx, "cart_a"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if repo.getCalls != 2 {
		t.Fatalf("expected second read served from cache, got %d repo calls", repo.getCalls)
	}
}

// gatedRepo returns the document it read only after release is closed.
type gatedRepo struct {
	*stubRepo
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepo) Get(ctx context.Context, id string) (*domain.Cart, error) {
	cart, err := g.stubRepo.Get(ctx, id)
	close(g.entered)
	<-g.release
	return cart, err
}

func TestGet_DoesNotCacheReadOverlappingSave(t *testing.T) {
	repo := &gatedRepo{stubRepo: newStubRepo(), entered: make(chan struct{}), release: make(chan struct{})}
	repo.docs["cart_a"] = domain.NewCart("cart_a", time.Now())
	c := newStubCache()
	svc := newTestService(t, repo, c)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Get(ctx, "cart_a")
		done <- err
	}()
	<-repo.entered

	fresh := domain.NewCart("cart_a", time.Now())
	fresh.Items = append(fresh.Items, domain.CartItem{ProductID: 1, VariantID: 1, Quantity: 2, Variant: domain.ProductVariant{Price: "1.00"}})
	if _, err := svc.Save(ctx, fresh); err != nil {
		t.Fatalf("Save: %v", err)
	}
	close(repo.release)
	if err := <-done; err != nil {
		t.Fatalf("Get: %v", err)
	}

	cached, ok := c.entries["cart_a"]
	if !ok {
		t.Fatalf("expected saved cart in cache")
	}
	if cached.TotalItems != 2 {
		t.Fatalf("expected cache to keep the saved document, got %d items", cached.TotalItems)
	}
}

func TestDelete(t *testing.T) {
	repo := newStubRepo()
	c := newStubCache()
	svc := newTestService(t, repo, c)
	ctx := context.Background()

	if err := svc.Delete(ctx, "cart_a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Save(ctx, domain.NewCart("cart_a", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.Delete(ctx, "cart_a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := c.entries["cart_a"]; ok {
		t.Fatalf("expected cache invalidated")
	}
	if _, err := svc.Get(ctx, "cart_a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
