package typedstore

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
	"github.com/yungbote/neurobridge-backend/internal/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	pool := storetest.Pool(t)
	log := storetest.Logger(t)
	s := New(pool, log, 3)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	storetest.TruncateTables(t, pool, "entries")
	return s
}

func newEntry(id, headword string, embedding []float32) *lexdomain.Entry {
	now := time.Now().UTC()
	return &lexdomain.Entry{
		ID: id, Headword: headword, IPA: "h", LanguageCode: "en", Definition: "def",
		Etymology: "", POSTag: "n", Embedding: embedding, RawRef: "raw_1", SourceID: "src",
		PipelineFingerprint: "fp", Quality: 1, CreatedAt: now, UpdatedAt: now,
	}
}

func TestBulkUpsert_PreservesEmbeddingOnMetadataOnlyUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := newEntry("entry_1", "house", []float32{0.1, 0.2, 0.3})
	if _, err := s.BulkUpsert(ctx, []*lexdomain.Entry{e}); err != nil {
		t.Fatalf("BulkUpsert (initial): %v", err)
	}

	// Re-upsert with no embedding (as a metadata-only pass would) must not
	// null out the previously-stored embedding.
	update := newEntry("entry_1", "house-updated", nil)
	if _, err := s.BulkUpsert(ctx, []*lexdomain.Entry{update}); err != nil {
		t.Fatalf("BulkUpsert (metadata-only): %v", err)
	}

	got, err := s.Get(ctx, "entry_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Headword != "house-updated" {
		t.Fatalf("got headword %q, want house-updated", got.Headword)
	}
	if len(got.Embedding) != 3 {
		t.Fatalf("expected the embedding to survive the metadata-only upsert, got %v", got.Embedding)
	}
}

func TestScan_FiltersByLanguageAndResumes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []*lexdomain.Entry{
		newEntry("entry_001", "en-a", []float32{1, 0, 0}),
		newEntry("entry_002", "en-b", []float32{0, 1, 0}),
	}
	entries[0].LanguageCode = "en"
	entries[1].LanguageCode = "de"
	if _, err := s.BulkUpsert(ctx, entries); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}

	out, errc := s.Scan(ctx, "en", "", 10)
	var got []*lexdomain.Entry
	for e := range out {
		got = append(got, e)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "entry_001" {
		t.Fatalf("got %d entries, want exactly entry_001 for language=en", len(got))
	}
}

func TestKNN_OrdersBySimilarityAboveThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []*lexdomain.Entry{
		newEntry("entry_close", "near", []float32{1, 0, 0}),
		newEntry("entry_far", "far", []float32{0, 1, 0}),
	}
	if _, err := s.BulkUpsert(ctx, entries); err != nil {
		t.Fatalf("BulkUpsert: %v", err)
	}

	results, err := s.KNN(ctx, []float32{1, 0, 0}, 5, 0.5)
	if err != nil {
		t.Fatalf("KNN: %v", err)
	}
	if len(results) != 1 || results[0].Entry.ID != "entry_close" {
		t.Fatalf("got %d results, want exactly entry_close above the 0.5 threshold", len(results))
	}
}
