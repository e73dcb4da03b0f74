package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type stubBackend struct {
	mu            sync.Mutex
	inventoryErr  error
	productsErr   error
	inventoryHits int
	productLimits []int
	stats         *domain.JobStatsResponse
	statsErr      error
	items         []domain.InventoryItem
}

func (s *stubBackend) Inventory(context.Context) (*domain.InventoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inventoryHits++
	if s.inventoryErr != nil {
		return nil, s.inventoryErr
	}
	return &domain.InventoryResponse{Success: true, Items: s.items}, nil
}

func (s *stubBackend) Products(_ context.Context, f domain.ProductFilters) (*domain.ProductsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productLimits = append(s.productLimits, f.Limit)
	if s.productsErr != nil {
		return nil, s.productsErr
	}
	return &domain.ProductsResponse{Success: true}, nil
}

func (s *stubBackend) JobStats(context.Context) (*domain.JobStatsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, s.statsErr
}

func newRunner(backend jobBackend, at time.Time) *JobRunner {
	r := NewJobRunner(backend, nil)
	r.now = func() time.Time { return at }
	return r
}

func TestRunRequiresStats(t *testing.T) {
	r := newRunner(&stubBackend{}, now)
	assert.ErrorIs(t, r.Run(context.Background(), QueueInventory), ErrNoJobStats)
	assert.ErrorIs(t, r.Run(context.Background(), "emails"), ErrUnknownQueue)
	assert.Empty(t, r.Check(context.Background()))
}

func TestCheckRunsDueQueues(t *testing.T) {
	backend := &stubBackend{}
	r := newRunner(backend, now)
	r.Replace(domain.JobStats{
		Inventory: domain.QueueStats{Completed: 4, RecurringJobs: domain.RecurringJobs{Count: 1, NextRun: now.Add(-time.Second).UnixMilli()}},
		Product:   domain.QueueStats{Completed: 7, RecurringJobs: domain.RecurringJobs{Count: 1, NextRun: now.Add(time.Minute).UnixMilli()}},
	})

	ran := r.Check(context.Background())
	assert.Equal(t, []string{QueueInventory}, ran)

	stats, ok := r.Stats()
	require.True(t, ok)
	assert.Equal(t, 5, stats.Inventory.Completed)
	assert.Equal(t, now.Add(6*time.Minute).UnixMilli(), stats.Inventory.RecurringJobs.NextRun)
	assert.Equal(t, 7, stats.Product.Completed)
	assert.Equal(t, 1, backend.inventoryHits)

	assert.Empty(t, r.Check(context.Background()), "next run moved into the future")
}

func TestRunProductJobFailure(t *testing.T) {
	backend := &stubBackend{productsErr: errors.New("HTTP 502")}
	r := newRunner(backend, now)
	r.Replace(domain.JobStats{Product: domain.QueueStats{Failed: 1}})

	require.NoError(t, r.Run(context.Background(), QueueProduct))

	stats, _ := r.Stats()
	assert.Equal(t, 2, stats.Product.Failed)
	assert.Equal(t, []int{1}, backend.productLimits)

	history := r.History()
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Contains(t, history[0].Message, "product job failed")
}

func TestReplaceOverwritesLocalCounters(t *testing.T) {
	r := newRunner(&stubBackend{}, now)
	r.Replace(domain.JobStats{})
	require.NoError(t, r.Run(context.Background(), QueueInventory))
	r.Replace(domain.JobStats{Inventory: domain.QueueStats{Completed: 10}})

	stats, _ := r.Stats()
	assert.Equal(t, 10, stats.Inventory.Completed)
}

func TestDashboardFeedsJobRunner(t *testing.T) {
	backend := &stubBackend{
		stats: &domain.JobStatsResponse{Success: true, Stats: domain.JobStats{RedisStatus: "connected", Inventory: domain.QueueStats{Waiting: 2}}},
		items: sampleInventory(),
	}
	d := NewDashboard(backend, DashboardConfig{}, nil)

	_, err := d.JobStats.Refresh(context.Background())
	require.NoError(t, err)
	stats, ok := d.Jobs.Stats()
	require.True(t, ok)
	assert.Equal(t, 2, stats.Inventory.Waiting)

	items, err := d.Inventory.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestDashboardUnsuccessfulStats(t *testing.T) {
	backend := &stubBackend{stats: &domain.JobStatsResponse{Success: false}}
	d := NewDashboard(backend, DashboardConfig{}, nil)

	_, err := d.JobStats.Refresh(context.Background())
	require.EqualError(t, err, "Failed to fetch job statistics")
	_, ok := d.Jobs.Stats()
	assert.False(t, ok)
}
