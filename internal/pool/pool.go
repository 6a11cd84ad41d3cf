// Package pool runs tasks on a fixed set of workers fed by a bounded queue.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Submit after Close or once the pool's context is done.
var ErrClosed = errors.New("pool: closed")

// Task is one unit of work. A returned error is reported to the pool's error
// handler and never stops other tasks.
type Task func(ctx context.Context) error

// Option configures a Pool.
type Option func(*Pool)

// WithErrorHandler sets the callback for task errors. It may be called from
// several workers at once.
func WithErrorHandler(fn func(error)) Option {
	return func(p *Pool) { p.onError = fn }
}

// WithLogger sets the logger for worker lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// Pool is a fixed worker pool.
type Pool struct {
	ctx   context.Context
	tasks chan Task
	group *errgroup.Group

	mu     sync.RWMutex
	closed bool
	err    error
	once   sync.Once

	onError func(error)
	log     *slog.Logger
}

// New starts workers goroutines. The queue holds as many pending tasks as
// there are workers. Cancelling ctx stops intake; tasks already taken by a
// worker run to completion.
func New(ctx context.Context, workers int, opts ...Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		ctx:     ctx,
		tasks:   make(chan Task, workers),
		onError: func(error) {},
		log:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(p)
	}
	// Workers never return an error, so the group is only a lifecycle handle.
	p.group = new(errgroup.Group)
	for i := 0; i < workers; i++ {
		id := i
		p.group.Go(func() error {
			p.work(id)
			return nil
		})
	}
	return p
}

func (p *Pool) work(id int) {
	p.log.Debug("worker started", "worker", id)
	n := 0
	for t := range p.tasks {
		if p.ctx.Err() != nil {
			p.onError(fmt.Errorf("task skipped: %w", p.ctx.Err()))
			continue
		}
		if err := p.run(t); err != nil {
			p.onError(err)
		}
		n++
	}
	p.log.Debug("worker stopped", "worker", id, "tasks", n)
}

func (p *Pool) run(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t(p.ctx)
}

// Submit queues t, blocking while the queue is full. It returns ErrClosed
// once the pool is closed or its context is done, and ctx.Err() when ctx ends
// first.
func (p *Pool) Submit(ctx context.Context, t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed || p.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case p.tasks <- t:
		return nil
	case <-p.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake and waits for queued and running tasks to finish.
// Queued tasks are skipped when the pool's context is already done. Calling
// Close again returns the first result.
func (p *Pool) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
		p.err = p.group.Wait()
	})
	return p.err
}
