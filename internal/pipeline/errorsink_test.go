package pipeline

import (
	"testing"
	"time"
)

func TestErrorSink_StaysOpenUnderThreshold(t *testing.T) {
	sink := NewErrorSink(time.Minute, 100, nil)
	base := time.Now()
	for i := 0; i < 5; i++ {
		sink.Record(FailedItem{Err: errBoom, At: base.Add(time.Duration(i) * time.Second)})
	}
	select {
	case <-sink.Aborted():
		t.Fatal("sink aborted below its error-rate threshold")
	default:
	}
}

func TestErrorSink_AbortsOnceRateExceedsThreshold(t *testing.T) {
	var gotRate float64
	sink := NewErrorSink(time.Second, 2, func(rate float64) { gotRate = rate })
	now := time.Now()
	for i := 0; i < 10; i++ {
		sink.Record(FailedItem{Err: errBoom, At: now})
	}
	select {
	case <-sink.Aborted():
	default:
		t.Fatal("expected sink to abort once rate exceeded threshold")
	}
	if gotRate <= 2 {
		t.Fatalf("got onAbort rate %v, want > 2", gotRate)
	}

	// Recording further events after abort must not panic or re-invoke onAbort.
	gotRate = 0
	sink.Record(FailedItem{Err: errBoom, At: now})
	if gotRate != 0 {
		t.Fatal("onAbort fired a second time")
	}
}

func TestErrorSink_PrunesEventsOutsideWindow(t *testing.T) {
	sink := NewErrorSink(time.Second, 1000, nil)
	base := time.Now()
	sink.Record(FailedItem{Err: errBoom, At: base})
	sink.Record(FailedItem{Err: errBoom, At: base.Add(2 * time.Second)})

	sink.mu.Lock()
	n := len(sink.events)
	sink.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected the stale first event to be pruned once a later event falls outside its window, got %d events", n)
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
