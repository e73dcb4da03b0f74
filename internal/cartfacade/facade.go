package cartfacade

import (
	"sync"

	"storefront/internal/domain"
)

// Store is the subset of cartstore.Store the facade drives.
type Store interface {
	GetCart() domain.Cart
	AddItem(product domain.Product, variant domain.ProductVariant, quantity int) (domain.Cart, error)
	UpdateItem(productID, variantID int64, quantity int) (domain.Cart, error)
	RemoveItem(productID, variantID int64) (domain.Cart, error)
	Clear() (domain.Cart, error)
}

// Facade publishes the cart to subscribers and tracks initial hydration.
// Until the first cart is published, Loading is true and ItemCount is zero.
type Facade struct {
	store Store

	mu      sync.RWMutex
	cart    domain.Cart
	loaded  bool
	version uint64
	subs    map[int]func(domain.Cart)
	nextSub int

	mountOnce sync.Once
	ready     chan struct{}
	readyOnce sync.Once
}

func New(store Store) *Facade {
	return &Facade{
		store: store,
		subs:  make(map[int]func(domain.Cart)),
		ready: make(chan struct{}),
	}
}

// Mount starts the initial hydration. Only the first call has any effect.
func (f *Facade) Mount() {
	f.mountOnce.Do(func() {
		f.mu.RLock()
		start := f.version
		f.mu.RUnlock()

		go func() {
			cart := f.store.GetCart()
			f.publishIfUnchanged(cart, start)
		}()
	})
}

// Ready is closed once a cart has been published.
func (f *Facade) Ready() <-chan struct{} {
	return f.ready
}

func (f *Facade) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !f.loaded
}

// Subscribe registers fn for every published cart and returns a function
// that removes it.
func (f *Facade) Subscribe(fn func(domain.Cart)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

func (f *Facade) AddToCart(product domain.Product, variant domain.ProductVariant, quantity int) (domain.Cart, error) {
	return f.apply(func() (domain.Cart, error) {
		return f.store.AddItem(product, variant, quantity)
	})
}

func (f *Facade) UpdateCartItem(productID, variantID int64, quantity int) (domain.Cart, error) {
	return f.apply(func() (domain.Cart, error) {
		return f.store.UpdateItem(productID, variantID, quantity)
	})
}

func (f *Facade) RemoveFromCart(productID, variantID int64) (domain.Cart, error) {
	return f.apply(func() (domain.Cart, error) {
		return f.store.RemoveItem(productID, variantID)
	})
}

func (f *Facade) ClearCart() (domain.Cart, error) {
	return f.apply(f.store.Clear)
}

// Refresh rereads the store and republishes.
func (f *Facade) Refresh() domain.Cart {
	cart, _ := f.apply(func() (domain.Cart, error) {
		return f.store.GetCart(), nil
	})
	return cart
}

// ItemCount reports the published total quantity, or zero while loading.
func (f *Facade) ItemCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.loaded {
		return 0
	}
	return f.cart.TotalItems
}

func (f *Facade) IsItemInCart(productID, variantID int64) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loaded && f.cart.Contains(productID, variantID)
}

// Cart returns the last published cart and whether one has been published.
func (f *Facade) Cart() (domain.Cart, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cart.Clone(), f.loaded
}

func (f *Facade) apply(op func() (domain.Cart, error)) (domain.Cart, error) {
	cart, err := op()
	if err != nil {
		return domain.Cart{}, err
	}
	f.publish(cart)
	return cart, nil
}

func (f *Facade) publish(cart domain.Cart) {
	f.mu.Lock()
	f.version++
	subs := f.storeLocked(cart)
	f.mu.Unlock()
	f.notify(subs, cart)
}

// publishIfUnchanged drops the hydration result when a mutation has already
// published a newer cart.
func (f *Facade) publishIfUnchanged(cart domain.Cart, version uint64) {
	f.mu.Lock()
	if f.version != version {
		f.mu.Unlock()
		return
	}
	f.version++
	subs := f.storeLocked(cart)
	f.mu.Unlock()
	f.notify(subs, cart)
}

func (f *Facade) storeLocked(cart domain.Cart) []func(domain.Cart) {
	f.cart = cart.Clone()
	f.loaded = true
	f.readyOnce.Do(func() { close(f.ready) })

	subs := make([]func(domain.Cart), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (f *Facade) notify(subs []func(domain.Cart), cart domain.Cart) {
	for _, fn := range subs {
		fn(cart.Clone())
	}
}
