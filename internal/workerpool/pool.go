// Package workerpool runs a fleet of independent units of work — one per
// connection, each owning its own generator/protocol/response state per
// spec.md §5 — at a bounded concurrency, propagating the first error any
// of them returns and cancelling the rest.
package workerpool

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
)

// Task is one independent unit of work. workerID identifies which slot in
// the fleet this task occupies (0..n-1), for seeding per-worker state such
// as an internal/rng.Source.
type Task func(ctx context.Context, workerID int) error

// Pool bounds how many Tasks run concurrently.
type Pool struct {
	size int
}

// New returns a Pool that runs at most size Tasks concurrently. size <= 0
// is treated as 1.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{size: size}
}

// Run submits every task to the pool, waits for them all to finish or for
// the context to be cancelled, and returns the first error encountered (if
// any). A task returning an error cancels the context passed to every
// other still-running task.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	antsPool, err := ants.NewPool(p.size)
	if err != nil {
		return fmt.Errorf("workerpool: creating pool: %w", err)
	}
	defer antsPool.Release()

	g, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		workerID, task := i, task
		g.Go(func() error {
			done := make(chan error, 1)
			if err := antsPool.Submit(func() { done <- task(gctx, workerID) }); err != nil {
				return fmt.Errorf("workerpool: submitting worker %d: %w", workerID, err)
			}
			select {
			case err := <-done:
				return err
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}
