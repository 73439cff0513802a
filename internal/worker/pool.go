// Package worker provides a bounded pool for blocking units of work, so
// subprocess-heavy calls never occupy an unbounded number of goroutines.
package worker

import (
	"context"
	"fmt"
)

// Pool limits how many submitted functions run concurrently.
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool running at most size functions at once.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Do runs fn once a slot is free, blocking the calling goroutine until fn
// returns. If ctx is cancelled while waiting for a slot, fn never runs.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("waiting for worker slot: %w", ctx.Err())
	}
	defer func() { <-p.slots }()

	return fn()
}

// Size returns the pool's concurrency bound.
func (p *Pool) Size() int {
	return cap(p.slots)
}
