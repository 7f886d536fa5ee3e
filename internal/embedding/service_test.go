package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

type fakeProvider struct {
	calls [][]string
}

func (f *fakeProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.calls = append(f.calls, append([]string{}, inputs...))
	out := make([][]float32, len(inputs))
	for i, s := range inputs {
		out[i] = []float32{float32(len(s))}
	}
	return out, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestEncode_CachesAcrossCalls(t *testing.T) {
	provider := &fakeProvider{}
	svc := New(provider, nil, 16, time.Hour, testLogger(t))

	ctx := context.Background()
	first, err := svc.Encode(ctx, []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("got %d vectors, want 2", len(first))
	}

	second, err := svc.Encode(ctx, []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second[0][0] != first[0][0] || second[1][0] != first[1][0] {
		t.Fatalf("cached vectors differ from first call")
	}

	if len(provider.calls) != 1 {
		t.Fatalf("provider called %d times, want 1 (second call should be all cache hits)", len(provider.calls))
	}

	stats := svc.Stats()
	if stats.L1Hits != 2 {
		t.Fatalf("L1Hits = %d, want 2", stats.L1Hits)
	}
	if stats.HitRate() <= 0 {
		t.Fatalf("hit rate = %v, want > 0", stats.HitRate())
	}
}

func TestEncode_PartialCacheHit(t *testing.T) {
	provider := &fakeProvider{}
	svc := New(provider, nil, 16, time.Hour, testLogger(t))

	ctx := context.Background()
	if _, err := svc.Encode(ctx, []string{"alpha"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vecs, err := svc.Encode(ctx, []string{"alpha", "gamma"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	if len(provider.calls) != 2 {
		t.Fatalf("provider called %d times, want 2", len(provider.calls))
	}
	if len(provider.calls[1]) != 1 || provider.calls[1][0] != "gamma" {
		t.Fatalf("second provider call should only request the miss, got %v", provider.calls[1])
	}
}
