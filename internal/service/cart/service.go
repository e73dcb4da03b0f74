package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/singleflight"

	"storefront/internal/cache"
	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type cartRepo interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
	Delete(ctx context.Context, id string) error
}

// Service validates and persists cart documents posted by storefront clients.
type Service struct {
	repo   cartRepo
	cache  cache.CartCache
	logger *log.Logger
	schema *jsonschema.Schema
	sfg    singleflight.Group
	now    func() time.Time

	// mu orders cache writes. writes counts Save and Delete calls so a read
	// that started before one never fills the cache with what it read.
	mu     sync.Mutex
	writes uint64
}

func New(repo cartRepo, c cache.CartCache, logger *log.Logger) (*Service, error) {
	schema, err := compileDocumentSchema()
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = cache.NopCache{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:   repo,
		cache:  c,
		logger: logger,
		schema: schema,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Decode parses a posted cart document. A missing identifier yields
// ErrCartIDRequired, a malformed items list ErrInvalidCart, and an identifier
// that cannot name a document ErrInvalidCartID.
func (s *Service) Decode(body []byte) (domain.Cart, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", domain.ErrInvalidCart, err)
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return domain.Cart{}, fmt.Errorf("%w: document must be an object", domain.ErrInvalidCart)
	}

	id, _ := doc["id"].(string)
	if strings.TrimSpace(id) == "" {
		return domain.Cart{}, domain.ErrCartIDRequired
	}
	if _, ok := doc["items"].([]any); !ok {
		return domain.Cart{}, fmt.Errorf("%w: items must be an array", domain.ErrInvalidCart)
	}
	if err := s.schema.Validate(doc); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", domain.ErrInvalidCart, err)
	}
	if !cartrepo.ValidID(id) {
		return domain.Cart{}, domain.ErrInvalidCartID
	}

	normalizeDocument(doc)
	normalized, err := json.Marshal(doc)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", domain.ErrInvalidCart, err)
	}
	var cart domain.Cart
	if err := json.Unmarshal(normalized, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", domain.ErrInvalidCart, err)
	}
	if err := domain.ValidateItems(cart.Items); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// normalizeDocument turns numeric variant prices into the decimal strings the
// catalog uses, drops client-declared totals, which are recomputed, and treats
// blank timestamps as absent.
func normalizeDocument(doc map[string]any) {
	delete(doc, "totalItems")
	delete(doc, "totalPrice")
	dropBlank(doc, "createdAt", "updatedAt")
	items, _ := doc["items"].([]any)
	for _, it := range items {
		item, _ := it.(map[string]any)
		dropBlank(item, "addedAt")
		variant, _ := item["variant"].(map[string]any)
		if n, ok := variant["price"].(json.Number); ok {
			variant["price"] = n.String()
		}
	}
}

func dropBlank(m map[string]any, keys ...string) {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) == "" {
			delete(m, k)
		}
	}
}

// Save recomputes totals from the items, stamps updatedAt, sets createdAt when
// the document has none, and replaces the stored document.
func (s *Service) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if strings.TrimSpace(cart.ID) == "" {
		return domain.Cart{}, domain.ErrCartIDRequired
	}
	if err := domain.ValidateItems(cart.Items); err != nil {
		return domain.Cart{}, err
	}

	now := s.now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.Recalculate(now)

	s.beginWrite()
	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.Set(ctx, &cart); err != nil {
		s.logger.Printf("cache set %s: %v", cart.ID, err)
		s.invalidate(ctx, cart.ID)
	}
	return cart, nil
}

// Get returns the stored document. Concurrent lookups of one identifier share
// a single cache/repository round trip.
func (s *Service) Get(ctx context.Context, id string) (*domain.Cart, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Printf("cache get %s: %v", id, err)
		}

		gen := s.writeGen()
		stored, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, stored, gen)
		return stored, nil
	})
	if err != nil {
		return nil, err
	}

	out := v.(*domain.Cart).Clone()
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.beginWrite()
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) beginWrite() {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
}

func (s *Service) writeGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// fill caches a document read from the repository unless a write started
// after the read began.
func (s *Service) fill(ctx context.Context, cart *domain.Cart, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writes != gen {
		return
	}
	if err := s.cache.Set(ctx, cart); err != nil {
		s.logger.Printf("cache set %s: %v", cart.ID, err)
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Printf("cache delete %s: %v", id, err)
	}
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrCartIDRequired
	}
	if !cartrepo.ValidID(id) {
		return domain.ErrInvalidCartID
	}
	return nil
}
