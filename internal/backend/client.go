// Package backend is a typed client for the catalog, inventory and job
// statistics service the storefront fronts.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/internal/domain"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each request. It applies to clients passed with
// WithHTTPClient too, without modifying them.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the API rooted at baseURL, for example
// http://localhost:3001/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout:    10 * time.Second,
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "backend",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// client errors say nothing about backend health
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				se, ok := err.(*StatusError)
				return ok && se.Status < 500
			},
		}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Products searches the catalog.
func (c *Client) Products(ctx context.Context, filters domain.ProductFilters) (*domain.ProductsResponse, error) {
	var out domain.ProductsResponse
	path := "/products"
	if q := ProductsQuery(filters).Encode(); q != "" {
		path += "?" + q
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Products == nil {
		out.Products = []domain.Product{}
	}
	return &out, nil
}

// Product finds one catalog product by id.
func (c *Client) Product(ctx context.Context, id int64) (*domain.Product, error) {
	var out struct {
		Success bool           `json:"success"`
		Product domain.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &out); err != nil {
		if se, ok := err.(*StatusError); ok && se.Status == http.StatusNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out.Product, nil
}

func (c *Client) Inventory(ctx context.Context) (*domain.InventoryResponse, error) {
	var out domain.InventoryResponse
	if err := c.do(ctx, http.MethodGet, "/inventory", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JobStats(ctx context.Context) (*domain.JobStatsResponse, error) {
	var out domain.JobStatsResponse
	if err := c.do(ctx, http.MethodGet, "/jobs/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Deploy publishes products to a sales channel integration.
func (c *Client) Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	var out DeployResult
	path := "/integrations/" + url.PathEscape(req.Channel) + "/deploy"
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		return b, nil
	})
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
