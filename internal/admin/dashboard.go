package admin

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"storefront/internal/domain"
)

type dashboardBackend interface {
	jobBackend
	JobStats(ctx context.Context) (*domain.JobStatsResponse, error)
}

type DashboardConfig struct {
	InventoryEvery time.Duration
	JobStatsEvery  time.Duration
	JobCheckEvery  time.Duration
}

// Dashboard keeps the admin views fresh: inventory and job statistics are
// polled, and due recurring jobs are executed on the check interval.
type Dashboard struct {
	Inventory *Poller[[]domain.InventoryItem]
	JobStats  *Poller[domain.JobStatsResponse]
	Jobs      *JobRunner

	checkEvery time.Duration
}

func NewDashboard(backend dashboardBackend, cfg DashboardConfig, logger *log.Logger) *Dashboard {
	if cfg.InventoryEvery <= 0 {
		cfg.InventoryEvery = 30 * time.Second
	}
	if cfg.JobStatsEvery <= 0 {
		cfg.JobStatsEvery = 30 * time.Second
	}
	if cfg.JobCheckEvery <= 0 {
		cfg.JobCheckEvery = 10 * time.Second
	}

	inventory := NewPoller("inventory", cfg.InventoryEvery, func(ctx context.Context) ([]domain.InventoryItem, error) {
		resp, err := backend.Inventory(ctx)
		if err != nil {
			return nil, err
		}
		return resp.Items, nil
	}, logger)

	jobStats := NewPoller("job stats", cfg.JobStatsEvery, func(ctx context.Context) (domain.JobStatsResponse, error) {
		resp, err := backend.JobStats(ctx)
		if err != nil {
			return domain.JobStatsResponse{}, err
		}
		if !resp.Success {
			msg := resp.Message
			if msg == "" {
				msg = "Failed to fetch job statistics"
			}
			return domain.JobStatsResponse{}, errors.New(msg)
		}
		return *resp, nil
	}, logger)

	jobs := NewJobRunner(backend, logger)
	jobStats.OnUpdate(func(resp domain.JobStatsResponse) {
		jobs.Replace(resp.Stats)
	})

	return &Dashboard{
		Inventory:  inventory,
		JobStats:   jobStats,
		Jobs:       jobs,
		checkEvery: cfg.JobCheckEvery,
	}
}

// Run blocks until ctx is cancelled.
func (d *Dashboard) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		d.Inventory.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		d.JobStats.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(d.checkEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.Jobs.Check(ctx)
			}
		}
	}()
	wg.Wait()
}
