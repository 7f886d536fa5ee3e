package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/embedding"
	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
	"github.com/yungbote/neurobridge-backend/internal/storetest"
	"github.com/yungbote/neurobridge-backend/internal/typedstore"
)

// fakeProvider returns a deterministic fixed-length vector per input,
// standing in for internal/clients/openai.Client.Embed.
type fakeProvider struct {
	calls int
}

func (p *fakeProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	p.calls++
	out := make([][]float32, len(inputs))
	for i, s := range inputs {
		out[i] = []float32{float32(len(s)), 1, 2, 3}
	}
	return out, nil
}

func TestRunEnrich_EmbedsAndSkipsAlreadyEmbedded(t *testing.T) {
	ctx := context.Background()
	pool := storetest.Pool(t)
	log := storetest.Logger(t)

	typed := typedstore.New(pool, log, 4)
	if err := typed.EnsureSchema(ctx); err != nil {
		t.Fatalf("typed.EnsureSchema: %v", err)
	}
	storetest.TruncateTables(t, pool, "entries")

	now := time.Now().UTC()
	entries := []*lexdomain.Entry{
		{
			ID: "entry_needs_embed", Headword: "father", IPA: "f", LanguageCode: "en",
			Definition: "a male parent", Etymology: "e", POSTag: "n",
			RawRef: "raw_1", SourceID: "src", PipelineFingerprint: "fp",
			Quality: 1.0, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "entry_already_embedded", Headword: "Vater", IPA: "v", LanguageCode: "de",
			Definition: "a male parent", Etymology: "e", POSTag: "n",
			RawRef: "raw_2", SourceID: "src", PipelineFingerprint: "fp",
			Quality: 1.0, Embedding: []float32{9, 9, 9, 9}, CreatedAt: now, UpdatedAt: now,
		},
	}
	if _, err := typed.BulkUpsert(ctx, entries); err != nil {
		t.Fatalf("seed BulkUpsert: %v", err)
	}

	provider := &fakeProvider{}
	embedder := embedding.New(provider, nil, 16, time.Hour, log)

	dir := t.TempDir()
	checkpoint, err := LoadCheckpoint(filepath.Join(dir, "checkpoint.json"), "enrich_test")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	sink := NewErrorSink(time.Minute, 1.0, nil)

	cfg := EnrichConfig{
		EmbedBatch:    10,
		IdleTimeout:   50 * time.Millisecond,
		WriterWorkers: 2,
		QueueCapMult:  4,
	}

	result, err := RunEnrich(ctx, cfg, typed, embedder, checkpoint, sink, log)
	if err != nil {
		t.Fatalf("RunEnrich: %v", err)
	}
	if result.Scanned != 2 {
		t.Fatalf("got %d scanned, want 2", result.Scanned)
	}
	if result.Skipped != 1 {
		t.Fatalf("got %d skipped, want 1 (already embedded)", result.Skipped)
	}
	if result.Embedded != 1 {
		t.Fatalf("got %d embedded, want 1", result.Embedded)
	}

	updated, err := typed.Get(ctx, "entry_needs_embed")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !updated.HasEmbedding() {
		t.Fatalf("expected entry_needs_embed to carry an embedding after enrich")
	}

	untouched, err := typed.Get(ctx, "entry_already_embedded")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(untouched.Embedding) != 4 || untouched.Embedding[0] != 9 {
		t.Fatalf("got %+v, want the pre-seeded embedding preserved untouched", untouched.Embedding)
	}
	if provider.calls != 1 {
		t.Fatalf("got %d provider calls, want exactly 1 (only the un-embedded entry batched)", provider.calls)
	}
}
