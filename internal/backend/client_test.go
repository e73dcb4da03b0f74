package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func TestProductsQuery(t *testing.T) {
	q := ProductsQuery(domain.ProductFilters{
		Limit:          12,
		IncludeDeleted: true,
		Search:         "tee",
		Category:       []string{"shirts", "", "hats"},
		MinPrice:       9.5,
		Size:           []string{"M"},
	})
	assert.Equal(t, "12", q.Get("limit"))
	assert.Empty(t, q.Get("offset"))
	assert.Equal(t, "true", q.Get("includeDeleted"))
	assert.Equal(t, []string{"shirts", "hats"}, q["category"])
	assert.Equal(t, "9.5", q.Get("minPrice"))
	assert.Empty(t, q.Get("maxPrice"))
	assert.Equal(t, []string{"M"}, q["size"])
}

func TestParseProductFiltersRoundTrip(t *testing.T) {
	in := domain.ProductFilters{
		Limit:    20,
		Offset:   40,
		Search:   "hoodie",
		Brand:    []string{"acme", "globex"},
		Status:   []string{"active"},
		MaxPrice: 100,
		Color:    []string{"red"},
		Style:    []string{"crew"},
	}
	out := ParseProductFilters(ProductsQuery(in))
	assert.Equal(t, in, out)

	bad := ParseProductFilters(url.Values{"limit": {"many"}, "minPrice": {"cheap"}})
	assert.Zero(t, bad.Limit)
	assert.Zero(t, bad.MinPrice)
}

func TestProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, []string{"a", "b"}, r.URL.Query()["brand"])
		_ = json.NewEncoder(w).Encode(domain.ProductsResponse{
			Success:    true,
			Products:   []domain.Product{{ID: 1, Name: "Tee", Variants: []domain.ProductVariant{{ID: 10, Price: "12.00"}}}},
			Pagination: domain.Pagination{Total: 1, TotalPages: 1, CurrentPage: 1, Limit: 10},
		})
	}))
	defer srv.Close()

	c := New(srv.URL + "/api/")
	resp, err := c.Products(context.Background(), domain.ProductFilters{Brand: []string{"a", "b"}})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "12.00", resp.Products[0].Variants[0].Price)
	assert.Equal(t, 1, resp.Pagination.Total)
}

func TestProductNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := New(srv.URL).Product(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventoryAndJobStats(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/inventory", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"items":[{"id":1,"sku":"TEE-M","productName":"Tee","channels":{"shopify":{"quantity":5,"available":4,"lastSync":"2024-05-01T12:00:00Z"}}}]}`))
	})
	mux.HandleFunc("/jobs/stats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"redisAvailable":true,"stats":{"inventory":{"completed":3,"recurringJobs":{"count":1,"nextRun":1714564800000,"cron":"*/5 * * * *"}},"product":{},"redisStatus":"connected"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	inv, err := c.Inventory(context.Background())
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, 4, inv.Items[0].Channels["shopify"].Available)

	stats, err := c.JobStats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.RedisAvailable)
	assert.Equal(t, 3, stats.Stats.Inventory.Completed)
	assert.Equal(t, int64(1714564800000), stats.Stats.Inventory.RecurringJobs.NextRun)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Inventory(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
	assert.Equal(t, "boom", se.Body)
}

func TestTimeoutLeavesSharedClientAlone(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	shared := &http.Client{}
	c := New(srv.URL, WithHTTPClient(shared), WithTimeout(50*time.Millisecond))

	_, err := c.Inventory(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, shared.Timeout)
}

func TestDeploy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/integrations/shopify/deploy", r.URL.Path)
		var req DeployRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []int64{1, 2}, req.ProductIDs)
		_ = json.NewEncoder(w).Encode(DeployResult{Success: true, Deployed: 2})
	}))
	defer srv.Close()

	res, err := New(srv.URL).Deploy(context.Background(), DeployRequest{Channel: "shopify", ProductIDs: []int64{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deployed)
}
