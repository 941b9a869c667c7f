// Package worker bounds the number of blocking extraction calls running at once.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool runs blocking functions with at most size of them in flight.
type Pool struct {
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

// New creates a pool of the given size. Sizes below one are treated as one.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}

	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Do runs fn on its own goroutine once a slot is free and waits for it.
// If ctx ends first Do returns ctx.Err(); fn keeps its slot until it returns,
// so fn must honor the context it is given.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire worker: %w", err)
	}

	p.inFlight.Add(1)

	done := make(chan error, 1)

	go func() {
		defer func() {
			p.inFlight.Add(-1)
			p.sem.Release(1)
		}()

		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight returns the number of functions currently running.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}
