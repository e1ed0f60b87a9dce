// Package worker runs durable writes and network jobs off the interactive
// path. Work is submitted to a bounded pool and observed through a handle;
// abandoning a handle stops the caller from listening but lets the job run
// to completion, so an in-progress write is never cut short.
package worker

import (
	"context"
	"sync"

	"github.com/tastebookapp/tastebook/internal/logging"
)

// Handle observes one submitted job.
type Handle struct {
	done      chan struct{}
	abandoned chan struct{}
	once      sync.Once

	mu  sync.Mutex
	err error
}

// Done is closed when the job finishes, success or failure.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the job's terminal error. Valid only after Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Abandon stops waiting for the job. The job itself keeps running in the
// background and completes normally; only delivery is given up.
func (h *Handle) Abandon() {
	h.once.Do(func() { close(h.abandoned) })
}

// Abandoned is closed once the caller gave up on this job.
func (h *Handle) Abandoned() <-chan struct{} { return h.abandoned }

// Wait blocks until the job finishes or the handle is abandoned, and
// returns the job error (nil when abandoned before completion).
func (h *Handle) Wait() error {
	select {
	case <-h.done:
		return h.Err()
	case <-h.abandoned:
		return nil
	}
}

// Pool is a bounded background worker pool.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
	log logging.Logger

	base   context.Context
	cancel context.CancelFunc
}

// NewPool returns a pool running at most size jobs concurrently.
func NewPool(size int, log logging.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	base, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    make(chan struct{}, size),
		log:    log,
		base:   base,
		cancel: cancel,
	}
}

// Submit enqueues fn and returns a handle for it. The job runs with the
// pool's base context, which outlives any single caller; it is only
// canceled when the whole pool shuts down.
func (p *Pool) Submit(name string, fn func(ctx context.Context) error) *Handle {
	h := &Handle{
		done:      make(chan struct{}),
		abandoned: make(chan struct{}),
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
		case <-p.base.Done():
			h.mu.Lock()
			h.err = p.base.Err()
			h.mu.Unlock()
			close(h.done)
			return
		}
		defer func() { <-p.sem }()

		err := fn(p.base)
		if err != nil {
			p.log.Error(p.base, "background job failed", "job", name, "error", err)
		}

		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.done)
	}()

	return h
}

// Shutdown waits for all submitted jobs to finish, then releases the base
// context. Jobs already handed to the pool always run with a live context;
// canceling before the drain could cut a durable write short.
func (p *Pool) Shutdown() {
	p.wg.Wait()
	p.cancel()
}
