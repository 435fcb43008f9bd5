package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrStopped = errors.New("worker pool stopped")

type ProcessFunc[T any] func(ctx context.Context, job T) error

// Pool runs jobs on a fixed number of goroutines fed by a bounded queue.
type Pool[T any] struct {
	name       string
	numWorkers int
	jobs       chan T
	processor  ProcessFunc[T]
	ctx        context.Context
	wg         sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewPool[T any](name string, numWorkers, bufferSize int, processor ProcessFunc[T]) *Pool[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Pool[T]{
		name:       name,
		numWorkers: numWorkers,
		jobs:       make(chan T, bufferSize),
		processor:  processor,
		ctx:        context.Background(),
	}
}

func (p *Pool[T]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	p.ctx = ctx

	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

func (p *Pool[T]) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(ctx, job); err != nil {
				slog.Error("job failed", "pool", p.name, "worker", id, "error", err)
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full. It returns
// ErrStopped once the pool is stopped or its context is done.
func (p *Pool[T]) Submit(job T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped || p.ctx.Err() != nil {
		return ErrStopped
	}

	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return ErrStopped
	}
}

// Stop closes the queue and waits for workers to finish queued jobs.
// Workers whose context was cancelled exit without draining.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}
