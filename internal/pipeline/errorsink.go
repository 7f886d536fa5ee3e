package pipeline

import (
	"context"
	"sync"
	"time"
)

// FailedItem pairs an item reference with the error encountered
// processing it, the shape spec.md §4.6's error sink routes per-item
// failures to.
type FailedItem struct {
	ItemRef string
	Stage   string
	Err     error
	At      time.Time
}

// ErrorSink collects per-item failures and, when the error rate over a
// sliding window exceeds a configured threshold, signals abort via
// Aborted. Individual errors never stop a worker; only a sustained rate
// does, per spec.md §4.6's failure isolation contract.
type ErrorSink struct {
	mu       sync.Mutex
	window   time.Duration
	maxRate  float64 // errors per second over the window that triggers abort
	events   []time.Time
	aborted  chan struct{}
	abortErr error
	onAbort  func(rate float64)
}

func NewErrorSink(window time.Duration, maxRate float64, onAbort func(rate float64)) *ErrorSink {
	return &ErrorSink{
		window:  window,
		maxRate: maxRate,
		aborted: make(chan struct{}),
		onAbort: onAbort,
	}
}

// Record logs a failed item and evaluates the sliding-window error rate,
// triggering abort at most once if the rate exceeds maxRate.
func (s *ErrorSink) Record(item FailedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := item.At
	if now.IsZero() {
		now = time.Now()
	}
	s.events = append(s.events, now)

	cutoff := now.Add(-s.window)
	i := 0
	for ; i < len(s.events); i++ {
		if s.events[i].After(cutoff) {
			break
		}
	}
	s.events = s.events[i:]

	rate := float64(len(s.events)) / s.window.Seconds()
	if rate > s.maxRate {
		select {
		case <-s.aborted:
		default:
			close(s.aborted)
			if s.onAbort != nil {
				s.onAbort(rate)
			}
		}
	}
}

// Aborted is closed once the sliding-window error rate has exceeded the
// configured threshold.
func (s *ErrorSink) Aborted() <-chan struct{} {
	return s.aborted
}

// WithAbort returns a context derived from parent that is canceled when
// either parent is canceled or the sink aborts.
func (s *ErrorSink) WithAbort(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-s.Aborted():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
