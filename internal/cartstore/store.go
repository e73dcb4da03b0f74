package cartstore

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Syncer receives a snapshot of the cart after every local mutation. Push must
// not block and must not report failures back to the Store.
type Syncer interface {
	Push(cart domain.Cart)
}

type nopSyncer struct{}

func (nopSyncer) Push(domain.Cart) {}

// Store owns the current shopper's cart. The local Storage is authoritative;
// the Syncer only mirrors it.
type Store struct {
	mu      sync.Mutex
	storage Storage
	syncer  Syncer
	logger  *log.Logger
	now     func() time.Time
	newID   func() string

	// minted is the last generated identifier, reused while storage cannot
	// hand one back.
	minted string
}

type Option func(*Store)

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewID returns a fresh cart identifier.
func NewID() string {
	return "cart_" + uuid.NewString()
}

func New(storage Storage, syncer Syncer, opts ...Option) *Store {
	if syncer == nil {
		syncer = nopSyncer{}
	}
	s := &Store{
		storage: storage,
		syncer:  syncer,
		logger:  log.New(io.Discard, "", 0),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCart returns the current cart, creating and persisting an empty one when
// nothing usable is cached. It never fails.
func (s *Store) GetCart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// AddItem merges quantity into the line for (product, variant), or appends a
// new line with snapshots of both.
func (s *Store) AddItem(product domain.Product, variant domain.ProductVariant, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.load()
	now := s.now()
	if idx := cart.IndexOf(product.ID, variant.ID); idx >= 0 {
		cart.Items[idx].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: product.ID,
			VariantID: variant.ID,
			Quantity:  quantity,
			Product:   product,
			Variant:   variant,
			AddedAt:   now,
		})
	}
	return s.commit(cart, now)
}

// UpdateItem replaces the quantity of an existing line. A quantity of zero or
// less removes the line. An absent line leaves the cart untouched.
func (s *Store) UpdateItem(productID, variantID int64, quantity int) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.load()
	idx := cart.IndexOf(productID, variantID)
	if idx < 0 {
		return cart, nil
	}
	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = quantity
	}
	return s.commit(cart, s.now())
}

func (s *Store) RemoveItem(productID, variantID int64) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.load()
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID == productID && item.VariantID == variantID {
			continue
		}
		kept = append(kept, item)
	}
	cart.Items = kept
	return s.commit(cart, s.now())
}

// Clear resets the cart contents. The identifier is kept so the server-side
// document is overwritten rather than orphaned.
func (s *Store) Clear() (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load()
	now := s.now()
	return s.commit(domain.NewCart(current.ID, now), now)
}

func (s *Store) ItemCount() int {
	return s.GetCart().TotalItems
}

func (s *Store) Contains(productID, variantID int64) bool {
	return s.GetCart().Contains(productID, variantID)
}

func (s *Store) commit(cart domain.Cart, now time.Time) (domain.Cart, error) {
	cart.Recalculate(now)
	if err := s.save(cart); err != nil {
		return domain.Cart{}, err
	}
	s.syncer.Push(cart.Clone())
	return cart, nil
}

func (s *Store) load() domain.Cart {
	id, ok, err := s.storage.Get(KeyCartID)
	if err != nil {
		s.logger.Printf("read cart id: %v", err)
	}
	hasID := ok && id != ""

	cart, cached := s.decodeCached()
	if cached {
		switch {
		case hasID:
			cart.ID = id
		case cart.ID != "":
			s.persistID(cart.ID)
		default:
			cart.ID = s.mintID()
			s.persistID(cart.ID)
		}
		return cart
	}

	if !hasID {
		id = s.mintID()
	}
	cart = domain.NewCart(id, s.now())
	if err := s.save(cart); err != nil {
		s.logger.Printf("persist new cart %s: %v", id, err)
	}
	return cart
}

func (s *Store) mintID() string {
	if s.minted == "" {
		s.minted = s.newID()
	}
	return s.minted
}

func (s *Store) persistID(id string) {
	if err := s.storage.Set(KeyCartID, id); err != nil {
		s.logger.Printf("persist cart id %s: %v", id, err)
	}
}

func (s *Store) decodeCached() (domain.Cart, bool) {
	raw, ok, err := s.storage.Get(KeyCartData)
	if err != nil {
		s.logger.Printf("read cart data: %v", err)
		return domain.Cart{}, false
	}
	if !ok || raw == "" {
		return domain.Cart{}, false
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		s.logger.Printf("discard unreadable cart data: %v", err)
		return domain.Cart{}, false
	}
	if err := domain.ValidateItems(cart.Items); err != nil {
		s.logger.Printf("discard cart data: %v", err)
		return domain.Cart{}, false
	}

	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	cart.TotalItems, cart.TotalPrice = domain.Totals(cart.Items)
	return cart, true
}

func (s *Store) save(cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Set(KeyCartID, cart.ID); err != nil {
		return fmt.Errorf("persist cart id: %w", err)
	}
	if err := s.storage.Set(KeyCartData, string(data)); err != nil {
		return fmt.Errorf("persist cart data: %w", err)
	}
	return nil
}
