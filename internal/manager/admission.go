package manager

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// gate admits sessions in front of the model: a bounded queue of waiting
// requests, then a weighted semaphore limiting sessions in flight.
type gate struct {
	queue    chan struct{} // waiting plus in-flight
	sem      *semaphore.Weighted
	slots    int
	depth    int
	maxWait  time.Duration
	inflight atomic.Int64
	draining atomic.Bool
}

func newGate(slots, depth int, maxWait time.Duration) *gate {
	return &gate{
		queue:   make(chan struct{}, slots+depth),
		sem:     semaphore.NewWeighted(int64(slots)),
		slots:   slots,
		depth:   depth,
		maxWait: maxWait,
	}
}

// acquire reserves a queue slot and then a generation slot.
// Returns a release func to be deferred.
func (g *gate) acquire(ctx context.Context) (func(), error) {
	noop := func() {}
	if err := ctx.Err(); err != nil {
		return noop, err
	}
	if g.draining.Load() {
		return noop, tooBusyError{reason: "draining"}
	}
	deadline := time.Now().Add(g.maxWait)
	timer := time.NewTimer(g.maxWait)
	defer timer.Stop()

	// Try to reserve a queue slot with timeout
	select {
	case g.queue <- struct{}{}:
	case <-ctx.Done():
		return noop, ctx.Err()
	case <-timer.C:
		return noop, tooBusyError{reason: "queue_full"}
	}

	// Wait for a generation slot within what is left of maxWait
	wctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	if err := g.sem.Acquire(wctx, 1); err != nil {
		<-g.queue
		if ctx.Err() != nil {
			return noop, ctx.Err()
		}
		return noop, tooBusyError{reason: "wait_timeout"}
	}
	g.inflight.Add(1)
	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		g.inflight.Add(-1)
		g.sem.Release(1)
		<-g.queue
	}, nil
}

// busy is the number of admitted requests, waiting or generating. A slot is
// returned only after its session was closed.
func (g *gate) busy() int { return len(g.queue) }

// waiting is the number of admitted requests not yet generating.
func (g *gate) waiting() int {
	n := len(g.queue) - int(g.inflight.Load())
	if n < 0 {
		return 0
	}
	return n
}
