package pipeline

import (
	"testing"
	"time"
)

func TestProgress_SnapshotComputesRateAndETA(t *testing.T) {
	p := NewProgress(100)
	p.started = time.Now().Add(-10 * time.Second)

	p.AddSucceeded(8)
	p.AddFailed(1)
	p.AddSkipped(1)

	snap := p.Snapshot()
	if snap.Total != 100 {
		t.Fatalf("got total %d, want 100", snap.Total)
	}
	if snap.Processed != 10 {
		t.Fatalf("got processed %d, want 10", snap.Processed)
	}
	if snap.Succeeded != 8 || snap.Failed != 1 || snap.Skipped != 1 {
		t.Fatalf("got %+v", snap)
	}
	if snap.RatePerSec <= 0 {
		t.Fatalf("expected a positive rate, got %v", snap.RatePerSec)
	}
	if snap.ETASeconds <= 0 {
		t.Fatalf("expected a positive ETA with total > processed, got %v", snap.ETASeconds)
	}
}

func TestProgress_SnapshotHandlesCompletion(t *testing.T) {
	p := NewProgress(5)
	p.AddSucceeded(5)

	snap := p.Snapshot()
	if snap.Processed != snap.Total {
		t.Fatalf("expected processed == total, got %+v", snap)
	}
	if snap.ETASeconds != 0 {
		t.Fatalf("expected zero ETA once total == processed, got %v", snap.ETASeconds)
	}
}
