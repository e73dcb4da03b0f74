package admin

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"
)

// ErrStopped is returned by Refresh once Run has returned.
var ErrStopped = errors.New("poller stopped")

// Poller refreshes a value on a fixed interval. Starting a poll cancels the
// one in flight, and a result is applied only if no newer poll was started
// after it, so a slow response can never overwrite a fresher one.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    func(ctx context.Context) (T, error)
	logger   *log.Logger
	now      func() time.Time
	onUpdate func(T)

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	value   T
	have    bool
	err     error
	updated time.Time
	stopped bool

	// notifyMu serializes onUpdate; notified is the newest generation
	// delivered, so callbacks never go back in time.
	notifyMu sync.Mutex
	notified uint64

	trigger chan struct{}
	wg      sync.WaitGroup
}

func NewPoller[T any](name string, interval time.Duration, fetch func(ctx context.Context) (T, error), logger *log.Logger) *Poller[T] {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		trigger:  make(chan struct{}, 1),
	}
}

// OnUpdate registers fn to receive every applied value. Call before Run.
func (p *Poller[T]) OnUpdate(fn func(T)) {
	p.onUpdate = fn
}

// Run polls immediately and then on every tick or Trigger until ctx ends.
func (p *Poller[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.start(ctx)
	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.stopped = true
			if p.cancel != nil {
				p.cancel()
			}
			p.mu.Unlock()
			p.wg.Wait()
			return
		case <-ticker.C:
			p.start(ctx)
		case <-p.trigger:
			p.start(ctx)
		}
	}
}

// Trigger asks a running poller for an immediate refresh.
func (p *Poller[T]) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Refresh polls now and waits for the answer. The returned value is the
// fetch result even if a newer poll superseded it.
func (p *Poller[T]) Refresh(ctx context.Context) (T, error) {
	res := <-p.start(ctx)
	return res.value, res.err
}

// PollState is what a poller currently holds. Err belongs to the latest
// applied poll; Value keeps the last successful one.
type PollState[T any] struct {
	Value   T
	Updated time.Time
	Err     error
	Loaded  bool
}

func (p *Poller[T]) Snapshot() PollState[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PollState[T]{Value: p.value, Updated: p.updated, Err: p.err, Loaded: p.have}
}

type pollResult[T any] struct {
	value T
	err   error
}

func (p *Poller[T]) start(parent context.Context) <-chan pollResult[T] {
	done := make(chan pollResult[T], 1)
	ctx, cancel := context.WithCancel(parent)

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		cancel()
		done <- pollResult[T]{err: ErrStopped}
		return done
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer cancel()

		v, err := p.fetch(ctx)
		if p.apply(gen, v, err) && err == nil {
			p.notify(gen, v)
		}
		done <- pollResult[T]{value: v, err: err}
	}()
	return done
}

func (p *Poller[T]) notify(gen uint64, v T) {
	if p.onUpdate == nil {
		return
	}
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	if gen < p.notified {
		return
	}
	p.notified = gen
	p.onUpdate(v)
}

func (p *Poller[T]) apply(gen uint64, v T, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false
	}
	p.cancel = nil
	if err != nil {
		p.err = err
		p.logger.Printf("%s poll failed: %v", p.name, err)
		return true
	}
	p.value = v
	p.have = true
	p.err = nil
	p.updated = p.now()
	return true
}
