package scraper

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrPoolClosed = errors.New("worker pool closed")

type Task[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Value T
	Err   error
}

// WorkerPool runs submitted tasks on a fixed number of goroutines, optionally
// rate limited across all workers.
type WorkerPool[T any] struct {
	workers int
	tasks   chan Task[T]
	wg      sync.WaitGroup

	submitMu sync.Mutex
	closed   bool

	mu     sync.RWMutex
	rate   <-chan time.Time
	ticker *time.Ticker
}

func NewWorkerPool[T any](workers, buffer int) *WorkerPool[T] {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &WorkerPool[T]{
		workers: workers,
		tasks:   make(chan Task[T], buffer),
	}
}

// SetRateLimit caps task starts at rps per second; rps <= 0 removes the cap.
func (p *WorkerPool[T]) SetRateLimit(rps int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()
	if rps <= 0 {
		return
	}
	p.ticker = time.NewTicker(time.Second / time.Duration(rps))
	p.rate = p.ticker.C
}

func (p *WorkerPool[T]) stopTickerLocked() {
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
		p.rate = nil
	}
}

// Submit queues t, blocking while the buffer is full.
func (p *WorkerPool[T]) Submit(ctx context.Context, t Task[T]) error {
	if t == nil {
		return nil
	}
	p.submitMu.Lock()
	defer p.submitMu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks. Queued tasks still run.
func (p *WorkerPool[T]) Close() {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
}

// Run starts the workers. The returned channel closes once every queued task
// has finished after Close, or when ctx is done.
func (p *WorkerPool[T]) Run(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T], p.workers*4)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					p.mu.RLock()
					rate := p.rate
					p.mu.RUnlock()
					if rate != nil {
						select {
						case <-ctx.Done():
							return
						case <-rate:
						}
					}
					v, err := t(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result[T]{Value: v, Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		p.mu.Lock()
		p.stopTickerLocked()
		p.mu.Unlock()
		close(out)
	}()

	return out
}
