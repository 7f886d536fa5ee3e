// Package pipeline implements the Staged Pipeline Runtime (spec.md C6):
// bounded-queue producer/consumer orchestration with backpressure,
// batching, checkpointed resumption, progress monitoring, cancellation,
// and failure isolation, wiring together every previously-built stage
// into the two canonical pipelines (ingestion, enrichment) named in
// spec.md §4.6.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Queue is the bounded inter-stage channel. Its capacity is the
// backpressure bound: producers block on send when full, consumers
// block on receive when empty.
type Queue[T any] chan T

// NewQueue allocates a bounded queue with the given capacity.
func NewQueue[T any](capacity int) Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return make(Queue[T], capacity)
}

// Send delivers v on q, honoring cancellation. It reports false if ctx
// was canceled before the send completed, in which case v was not
// delivered.
func Send[T any](ctx context.Context, q Queue[T], v T) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case q <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stage runs N worker goroutines that each pull items from in, apply
// fn, and forward results to out. It is the runtime's unit of
// parallelism: CPU-bound stages size N to core count, I/O-bound stages
// size N to a connection pool. Within a single worker, FIFO is
// preserved; across workers of the same stage, order is not, per
// spec.md §5's ordering guarantees.
type Stage[In, Out any] struct {
	Name    string
	Workers int
	Fn      func(ctx context.Context, item In) (Out, error)
	OnError func(item In, err error)
}

// Run drains in until it is closed or ctx is canceled, applying Fn
// concurrently across Workers goroutines and forwarding successful
// results to out. Run closes out once every worker has exited, so the
// end-of-stream sentinel (channel close) is delivered exactly once per
// downstream consumer, after all items enqueued before drain began.
// Per-item errors are isolated: they are routed to OnError (if set) and
// do not stop the worker, per spec.md §4.6's failure isolation contract.
func (s *Stage[In, Out]) Run(ctx context.Context, in Queue[In], out Queue[Out]) error {
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case item, ok := <-in:
					if !ok {
						return nil
					}
					result, err := s.Fn(gctx, item)
					if err != nil {
						if s.OnError != nil {
							s.OnError(item, err)
						}
						continue
					}
					if out != nil && !Send(gctx, out, result) {
						return gctx.Err()
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	err := g.Wait()
	if out != nil {
		close(out)
	}
	return err
}
