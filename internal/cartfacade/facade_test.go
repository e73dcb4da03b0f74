package cartfacade

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cartstore"
	"storefront/internal/domain"
)

// blockingStore reads the cart immediately but holds the answer until
// release is closed, like a slow hydration.
type blockingStore struct {
	*cartstore.Store
	started chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func newBlockingStore(storage cartstore.Storage) *blockingStore {
	return &blockingStore{
		Store:   cartstore.New(storage, nil),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingStore) GetCart() domain.Cart {
	cart := b.Store.GetCart()
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release
	return cart
}

type failingStore struct {
	*cartstore.Store
}

var errStore = errors.New("storage unavailable")

func (failingStore) AddItem(domain.Product, domain.ProductVariant, int) (domain.Cart, error) {
	return domain.Cart{}, errStore
}

func product(id, variantID int64) (domain.Product, domain.ProductVariant) {
	return domain.Product{ID: id, Name: "Mug"}, domain.ProductVariant{ID: variantID, ProductID: id, Price: "4.00"}
}

func TestMountLoadsOnce(t *testing.T) {
	store := newBlockingStore(cartstore.NewMemoryStorage())
	f := New(store)

	assert.True(t, f.Loading())
	f.Mount()
	f.Mount()
	assert.True(t, f.Loading())
	assert.Equal(t, 0, f.ItemCount())

	close(store.release)
	select {
	case <-f.Ready():
	case <-time.After(time.Second):
		t.Fatal("facade never became ready")
	}
	assert.False(t, f.Loading())

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.calls)
}

func TestItemCountHiddenWhileLoading(t *testing.T) {
	storage := cartstore.NewMemoryStorage()
	seeded := cartstore.New(storage, nil)
	p, v := product(1, 1)
	_, err := seeded.AddItem(p, v, 3)
	require.NoError(t, err)

	store := newBlockingStore(storage)
	f := New(store)
	f.Mount()
	assert.Equal(t, 0, f.ItemCount())
	assert.False(t, f.IsItemInCart(1, 1))

	close(store.release)
	<-f.Ready()
	assert.Equal(t, 3, f.ItemCount())
	assert.True(t, f.IsItemInCart(1, 1))
}

func TestMutationsPublishToSubscribers(t *testing.T) {
	f := New(cartstore.New(cartstore.NewMemoryStorage(), nil))

	var seen []int
	unsubscribe := f.Subscribe(func(c domain.Cart) { seen = append(seen, c.TotalItems) })

	p, v := product(1, 1)
	_, err := f.AddToCart(p, v, 2)
	require.NoError(t, err)
	_, err = f.UpdateCartItem(1, 1, 5)
	require.NoError(t, err)
	_, err = f.RemoveFromCart(1, 1)
	require.NoError(t, err)

	unsubscribe()
	_, err = f.AddToCart(p, v, 1)
	require.NoError(t, err)
	_, err = f.ClearCart()
	require.NoError(t, err)

	assert.Equal(t, []int{2, 5, 0}, seen)
	assert.Equal(t, 0, f.ItemCount())
	assert.False(t, f.Loading())
}

func TestFailedMutationKeepsPublishedCart(t *testing.T) {
	base := cartstore.New(cartstore.NewMemoryStorage(), nil)
	p, v := product(1, 1)
	_, err := base.AddItem(p, v, 2)
	require.NoError(t, err)

	f := New(failingStore{Store: base})
	f.Refresh()
	calls := 0
	f.Subscribe(func(domain.Cart) { calls++ })

	_, err = f.AddToCart(p, v, 1)
	require.ErrorIs(t, err, errStore)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 2, f.ItemCount())
}

func TestHydrationDoesNotOverwriteNewerMutation(t *testing.T) {
	store := newBlockingStore(cartstore.NewMemoryStorage())
	f := New(store)
	f.Mount()
	<-store.started

	p, v := product(1, 1)
	_, err := f.AddToCart(p, v, 4)
	require.NoError(t, err)
	close(store.release)

	// the empty hydration snapshot must not replace the newer cart
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 4, f.ItemCount())
}
