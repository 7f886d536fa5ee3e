package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Progress aggregates per-stage counters with relaxed atomic adds, per
// spec.md §5's "progress counters use relaxed atomic adds" guidance. A
// Monitor task reads a consistent snapshot once per cycle and publishes
// rate, queue depth, and ETA.
type Progress struct {
	total     int64
	processed int64
	succeeded int64
	failed    int64
	skipped   int64
	started   time.Time
}

func NewProgress(total int64) *Progress {
	return &Progress{total: total, started: time.Now()}
}

func (p *Progress) AddSucceeded(n int64) { atomic.AddInt64(&p.succeeded, n); atomic.AddInt64(&p.processed, n) }
func (p *Progress) AddFailed(n int64)    { atomic.AddInt64(&p.failed, n); atomic.AddInt64(&p.processed, n) }
func (p *Progress) AddSkipped(n int64)   { atomic.AddInt64(&p.skipped, n); atomic.AddInt64(&p.processed, n) }

// Snapshot is one consistent read of the counters, plus derived rate and
// ETA, published by the Monitor at a fixed cadence.
type Snapshot struct {
	Total        int64
	Processed    int64
	Succeeded    int64
	Failed       int64
	Skipped      int64
	ElapsedSec   float64
	RatePerSec   float64
	ETASeconds   float64
}

func (p *Progress) Snapshot() Snapshot {
	elapsed := time.Since(p.started).Seconds()
	processed := atomic.LoadInt64(&p.processed)
	total := atomic.LoadInt64(&p.total)

	var rate, eta float64
	if elapsed > 0 {
		rate = float64(processed) / elapsed
	}
	if rate > 0 && total > processed {
		eta = float64(total-processed) / rate
	}

	return Snapshot{
		Total:      total,
		Processed:  processed,
		Succeeded:  atomic.LoadInt64(&p.succeeded),
		Failed:     atomic.LoadInt64(&p.failed),
		Skipped:    atomic.LoadInt64(&p.skipped),
		ElapsedSec: elapsed,
		RatePerSec: rate,
		ETASeconds: eta,
	}
}

// QueueDepths reports the current backlog of a set of named queues, read
// just before logging a snapshot for visibility into where backpressure
// is concentrated.
type QueueDepths map[string]int

// Monitor publishes a Snapshot (and, if depthsFn is non-nil, queue
// depths) at a fixed cadence until ctx is canceled.
func Monitor(ctx context.Context, p *Progress, cadence time.Duration, depthsFn func() QueueDepths, log *logger.Logger) {
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap := p.Snapshot()
			fields := []interface{}{
				"processed", snap.Processed,
				"total", snap.Total,
				"succeeded", snap.Succeeded,
				"failed", snap.Failed,
				"skipped", snap.Skipped,
				"rate_per_sec", snap.RatePerSec,
				"eta_sec", snap.ETASeconds,
			}
			if depthsFn != nil {
				for name, depth := range depthsFn() {
					fields = append(fields, "queue_"+name, depth)
				}
			}
			log.Info("progress", fields...)
		case <-ctx.Done():
			return
		}
	}
}
