package ssh

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool is a counting semaphore gating concurrent access to a bounded
// resource. The dispatcher keeps two independent Pools: one bounding
// concurrent SSH sessions (the TCP pool), one bounding concurrent
// key-agent operations (the agent pool). Acquire blocks until a permit
// is free or ctx is done; Release must be called exactly once per
// successful Acquire, on every exit path including panics — callers
// register it with defer immediately after Acquire succeeds.
type Pool struct {
	sem   *semaphore.Weighted
	size  int64
	inUse atomic.Int64
}

// NewPool creates a Pool with the given number of permits.
func NewPool(size int) *Pool {
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Acquire blocks until a permit is available or ctx is canceled.
func (p *Pool) Acquire(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.inUse.Add(1)
	return nil
}

// Release returns a permit to the pool.
func (p *Pool) Release() {
	p.inUse.Add(-1)
	p.sem.Release(1)
}

// InUse reports the number of permits currently held. It exists so
// tests can assert concurrency bounds from outside the pool; nothing
// in the dispatcher itself branches on it.
func (p *Pool) InUse() int64 {
	return p.inUse.Load()
}

// Size reports the total number of permits the Pool was created with.
func (p *Pool) Size() int64 {
	return p.size
}
