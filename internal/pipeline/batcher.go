package pipeline

import (
	"context"
	"time"
)

// Batcher accumulates items from in into batches of up to Size, flushing
// early if no new item arrives within IdleTimeout, and flushing any
// partial batch on end-of-stream, per spec.md §4.6's batching contract.
type Batcher[T any] struct {
	Size        int
	IdleTimeout time.Duration
}

// Run reads from in until closed or ctx is canceled, sending each
// accumulated batch on out, then closes out.
func (b *Batcher[T]) Run(ctx context.Context, in Queue[T], out Queue[[]T]) {
	defer close(out)

	size := b.Size
	if size < 1 {
		size = 1
	}
	idle := b.IdleTimeout
	if idle <= 0 {
		idle = time.Second
	}

	batch := make([]T, 0, size)
	timer := time.NewTimer(idle)
	defer timer.Stop()

	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		sent := Send(ctx, out, batch)
		batch = make([]T, 0, size)
		return sent
	}

	for {
		select {
		case item, ok := <-in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, item)
			if len(batch) >= size {
				if !flush() {
					return
				}
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(idle)

		case <-timer.C:
			if !flush() {
				return
			}
			timer.Reset(idle)

		case <-ctx.Done():
			flush()
			return
		}
	}
}
