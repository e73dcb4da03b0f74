package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"storefront/internal/domain"
)

const (
	QueueInventory = "inventory"
	QueueProduct   = "product"

	// nextRunDelay is how far a locally executed job pushes its next run.
	nextRunDelay = 6 * time.Minute
	maxHistory   = 20
)

var (
	ErrUnknownQueue = errors.New("unknown job queue")
	ErrJobRunning   = errors.New("job already running")
	ErrNoJobStats   = errors.New("job statistics not loaded")
)

type jobBackend interface {
	Inventory(ctx context.Context) (*domain.InventoryResponse, error)
	Products(ctx context.Context, filters domain.ProductFilters) (*domain.ProductsResponse, error)
}

// Execution records one job run for the dashboard notification list.
type Execution struct {
	Queue   string    `json:"queue"`
	Success bool      `json:"success"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// JobRunner executes the recurring jobs whose next run has passed and keeps
// the local counters until the next statistics refresh replaces them.
type JobRunner struct {
	backend jobBackend
	logger  *log.Logger
	now     func() time.Time

	mu        sync.Mutex
	stats     domain.JobStats
	loaded    bool
	executing map[string]bool
	history   []Execution
}

func NewJobRunner(backend jobBackend, logger *log.Logger) *JobRunner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &JobRunner{
		backend:   backend,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		executing: make(map[string]bool),
	}
}

// Replace installs statistics fetched from the backend.
func (r *JobRunner) Replace(stats domain.JobStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = stats
	r.loaded = true
}

func (r *JobRunner) Stats() (domain.JobStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats, r.loaded
}

// History returns recent executions, newest last.
func (r *JobRunner) History() []Execution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Execution(nil), r.history...)
}

// Check runs every queue whose next run is due and returns the queues run.
func (r *JobRunner) Check(ctx context.Context) []string {
	r.mu.Lock()
	if !r.loaded {
		r.mu.Unlock()
		return nil
	}
	nowMs := r.now().UnixMilli()
	var due []string
	for _, queue := range []string{QueueInventory, QueueProduct} {
		q := r.queueLocked(queue)
		if q.RecurringJobs.NextRun > 0 && q.RecurringJobs.NextRun <= nowMs && !r.executing[queue] {
			due = append(due, queue)
		}
	}
	r.mu.Unlock()

	var ran []string
	for _, queue := range due {
		if err := r.Run(ctx, queue); errors.Is(err, ErrJobRunning) {
			continue
		}
		ran = append(ran, queue)
	}
	return ran
}

// Run executes one queue's job now. The job's own failure is recorded in the
// counters and history; only precondition failures are returned.
func (r *JobRunner) Run(ctx context.Context, queue string) error {
	if queue != QueueInventory && queue != QueueProduct {
		return fmt.Errorf("%w: %q", ErrUnknownQueue, queue)
	}

	r.mu.Lock()
	if !r.loaded {
		r.mu.Unlock()
		return ErrNoJobStats
	}
	if r.executing[queue] {
		r.mu.Unlock()
		return ErrJobRunning
	}
	r.executing[queue] = true
	r.mu.Unlock()

	err := r.execute(ctx, queue)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.executing, queue)

	q := r.queueLocked(queue)
	exec := Execution{Queue: queue, Success: err == nil, At: r.now()}
	if err != nil {
		q.Failed++
		exec.Message = fmt.Sprintf("%s job failed: %v", queue, err)
		r.logger.Print(exec.Message)
	} else {
		q.Completed++
		exec.Message = fmt.Sprintf("%s job completed successfully", queue)
	}
	q.RecurringJobs.NextRun = r.now().Add(nextRunDelay).UnixMilli()

	r.history = append(r.history, exec)
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
	return nil
}

func (r *JobRunner) execute(ctx context.Context, queue string) error {
	switch queue {
	case QueueInventory:
		_, err := r.backend.Inventory(ctx)
		return err
	default:
		_, err := r.backend.Products(ctx, domain.ProductFilters{Limit: 1})
		return err
	}
}

func (r *JobRunner) queueLocked(queue string) *domain.QueueStats {
	if queue == QueueInventory {
		return &r.stats.Inventory
	}
	return &r.stats.Product
}
