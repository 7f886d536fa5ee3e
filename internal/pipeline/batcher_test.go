package pipeline

import (
	"context"
	"testing"
	"time"
)

func TestBatcher_FlushesOnSize(t *testing.T) {
	in := NewQueue[int](8)
	out := NewQueue[[]int](4)
	b := &Batcher[int]{Size: 2, IdleTimeout: time.Minute}

	go b.Run(context.Background(), in, out)

	in <- 1
	in <- 2
	batch := <-out
	if len(batch) != 2 || batch[0] != 1 || batch[1] != 2 {
		t.Fatalf("got %v, want [1 2]", batch)
	}

	close(in)
	if _, ok := <-out; ok {
		t.Fatal("expected out closed after empty partial flush")
	}
}

func TestBatcher_FlushesOnIdleTimeout(t *testing.T) {
	in := NewQueue[int](8)
	out := NewQueue[[]int](4)
	b := &Batcher[int]{Size: 10, IdleTimeout: 20 * time.Millisecond}

	go b.Run(context.Background(), in, out)

	in <- 1
	select {
	case batch := <-out:
		if len(batch) != 1 || batch[0] != 1 {
			t.Fatalf("got %v, want [1]", batch)
		}
	case <-time.After(time.Second):
		t.Fatal("expected idle-timeout flush")
	}
	close(in)
}

func TestBatcher_FlushesPartialBatchOnClose(t *testing.T) {
	in := NewQueue[int](8)
	out := NewQueue[[]int](4)
	b := &Batcher[int]{Size: 10, IdleTimeout: time.Minute}

	go b.Run(context.Background(), in, out)

	in <- 1
	in <- 2
	close(in)

	batch := <-out
	if len(batch) != 2 {
		t.Fatalf("got %v, want a 2-element partial batch", batch)
	}
	if _, ok := <-out; ok {
		t.Fatal("expected out closed after the partial flush")
	}
}
