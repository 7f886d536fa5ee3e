package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStage_ForwardsSuccessesAndIsolatesErrors(t *testing.T) {
	in := NewQueue[int](8)
	out := NewQueue[int](8)

	var mu sync.Mutex
	var failed []int
	stage := &Stage[int, int]{
		Name:    "double",
		Workers: 4,
		Fn: func(ctx context.Context, n int) (int, error) {
			if n == 3 {
				return 0, errors.New("boom")
			}
			return n * 2, nil
		},
		OnError: func(item int, err error) {
			mu.Lock()
			failed = append(failed, item)
			mu.Unlock()
		},
	}

	for i := 1; i <= 5; i++ {
		in <- i
	}
	close(in)

	done := make(chan error, 1)
	go func() { done <- stage.Run(context.Background(), in, out) }()

	var got []int
	for n := range out {
		got = append(got, n)
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 4 {
		t.Fatalf("expected 4 successes, got %d: %v", len(got), got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 || failed[0] != 3 {
		t.Fatalf("expected item 3 to fail, got %v", failed)
	}
}

func TestStage_CancelationStopsWorkers(t *testing.T) {
	in := NewQueue[int](1)
	out := NewQueue[int](1)
	ctx, cancel := context.WithCancel(context.Background())

	stage := &Stage[int, int]{
		Workers: 1,
		Fn: func(ctx context.Context, n int) (int, error) {
			<-ctx.Done()
			return n, nil
		},
	}

	done := make(chan error, 1)
	go func() { done <- stage.Run(ctx, in, out) }()

	in <- 1
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stage did not exit after cancellation")
	}

	if _, ok := <-out; ok {
		t.Fatal("expected out to be closed with no values")
	}
}
