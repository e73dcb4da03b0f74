package cartsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/internal/domain"
)

// ErrClosed is reported for pushes submitted after Close.
var ErrClosed = errors.New("cart sync gateway closed")

// StatusError is a non-2xx answer from the cart endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cart endpoint returned %d: %s", e.Code, e.Body)
}

// Gateway mirrors cart snapshots to the remote cart endpoint. Pushes are
// handled by one background worker; while a push is in flight only the newest
// pending snapshot is kept, so the remote copy never moves backwards.
type Gateway struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker[struct{}]
	observer Observer

	mu      sync.Mutex
	pending *domain.Cart
	closed  bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.client = client }
}

func WithObserver(observer Observer) Option {
	return func(g *Gateway) { g.observer = observer }
}

// WithTimeout bounds each push and pull request.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithBreakerSettings replaces the circuit breaker configuration.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(g *Gateway) { g.breaker = gobreaker.NewCircuitBreaker[struct{}](st) }
}

// New starts a Gateway for the endpoint rooted at baseURL (for example
// http://localhost:8080/api). Close must be called to stop the worker.
func New(baseURL string, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout:  10 * time.Second,
		observer: LogObserver{Logger: log.Default()},
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	g.breaker = gobreaker.NewCircuitBreaker[struct{}](defaultBreakerSettings())
	for _, opt := range opts {
		opt(g)
	}
	go g.run()
	return g
}

func defaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "cart-sync",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
}

// Push queues a snapshot for replication and returns immediately.
func (g *Gateway) Push(cart domain.Cart) {
	snapshot := cart.Clone()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.observer.PushFailed(cart.ID, ErrClosed)
		return
	}
	g.pending = &snapshot
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Close flushes the pending snapshot, if any, and stops the worker.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		<-g.done
		return
	}
	g.closed = true
	g.mu.Unlock()

	close(g.quit)
	<-g.done
}

func (g *Gateway) run() {
	defer close(g.done)
	for {
		select {
		case <-g.wake:
			g.flush()
		case <-g.quit:
			g.flush()
			return
		}
	}
}

func (g *Gateway) flush() {
	g.mu.Lock()
	cart := g.pending
	g.pending = nil
	g.mu.Unlock()
	if cart == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	_, err := g.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, g.post(ctx, *cart)
	})
	if err != nil {
		g.observer.PushFailed(cart.ID, err)
	}
}

func (g *Gateway) post(ctx context.Context, cart domain.Cart) error {
	body, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/cart", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Pull fetches the remote copy of a cart. Any failure, including not found,
// yields nil.
func (g *Gateway) Pull(ctx context.Context, id string) *domain.Cart {
	cart, err := g.get(ctx, id)
	if err != nil {
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusNotFound {
			g.observer.PullFailed(id, err)
		}
		return nil
	}
	return cart
}

func (g *Gateway) get(ctx context.Context, id string) (*domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/cart?id="+url.QueryEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var cart domain.Cart
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
