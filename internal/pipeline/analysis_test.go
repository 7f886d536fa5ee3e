package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/concepts"
	"github.com/yungbote/neurobridge-backend/internal/external"
	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
	"github.com/yungbote/neurobridge-backend/internal/similarity"
	"github.com/yungbote/neurobridge-backend/internal/storetest"
	"github.com/yungbote/neurobridge-backend/internal/typedstore"
)

func TestRunAnalysis_ClustersAssignsAndBuildsGraph(t *testing.T) {
	ctx := context.Background()
	pool := storetest.Pool(t)
	log := storetest.Logger(t)

	typed := typedstore.New(pool, log, 6)
	if err := typed.EnsureSchema(ctx); err != nil {
		t.Fatalf("typed.EnsureSchema: %v", err)
	}
	storetest.TruncateTables(t, pool, "entries")

	now := time.Now().UTC()
	entries := []*lexdomain.Entry{
		{
			ID: "entry_father", Headword: "father", IPA: "ˈfɑːðər", LanguageCode: "en",
			Definition: "a male parent", Etymology: "e", POSTag: "n", RawRef: "r1", SourceID: "s",
			PipelineFingerprint: "fp", Quality: 1.0, Embedding: []float32{1, 0, 0, 0, 0, 0},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "entry_vater", Headword: "Vater", IPA: "ˈfaːtɐ", LanguageCode: "de",
			Definition: "a male parent", Etymology: "e", POSTag: "n", RawRef: "r2", SourceID: "s",
			PipelineFingerprint: "fp", Quality: 1.0, Embedding: []float32{0.98, 0.02, 0, 0, 0, 0},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "entry_unrelated", Headword: "river", IPA: "ˈrɪvər", LanguageCode: "en",
			Definition: "a large flowing body of water", Etymology: "e", POSTag: "n", RawRef: "r3", SourceID: "s",
			PipelineFingerprint: "fp", Quality: 1.0, Embedding: []float32{0, 0, 0, 0, 0, 1},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			// No embedding: must be excluded from the analysis entirely.
			ID: "entry_not_embedded", Headword: "mother", IPA: "ˈmʌðər", LanguageCode: "en",
			Definition: "a female parent", Etymology: "e", POSTag: "n", RawRef: "r4", SourceID: "s",
			PipelineFingerprint: "fp", Quality: 1.0, CreatedAt: now, UpdatedAt: now,
		},
	}
	if _, err := typed.BulkUpsert(ctx, entries); err != nil {
		t.Fatalf("seed BulkUpsert: %v", err)
	}

	// A wide epsilon and a minimum cluster size of 2 collapses all
	// embedded entries into a single concept regardless of the random
	// projection's exact output, which is enough to exercise assignment,
	// edge composition, and graph construction end to end.
	aligner := concepts.New(concepts.Config{
		MinClusterSize:      2,
		MinSamples:          1,
		ProjectionDim:       2,
		Epsilon:             1e6,
		MinAssignSimilarity: -1,
	})
	distances := external.NewDistanceTable([]external.DistanceEntry{
		{LangA: "en", LangB: "de", TreeDistance: 1, Prior: 0.8},
	})

	cfg := AnalysisConfig{
		GraphThreshold:     0.0,
		PageRankDamping:    0.85,
		PageRankIterations: 20,
		SimilarityPreset:   similarity.PresetBalanced,
		WriteBatch:         10,
	}

	result, err := RunAnalysis(ctx, cfg, typed, aligner, distances, log)
	if err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}
	if result.EntriesScanned != 3 {
		t.Fatalf("got %d entries scanned, want 3 (excluding the un-embedded entry)", result.EntriesScanned)
	}
	if len(result.Concepts) != 1 {
		t.Fatalf("got %d concepts, want 1", len(result.Concepts))
	}
	if result.Edges == 0 {
		t.Fatalf("expected at least one similarity edge within the concept cluster")
	}
	if len(result.GraphEdges) != result.Edges {
		t.Fatalf("GraphEdges (%d) and Edges (%d) disagree", len(result.GraphEdges), result.Edges)
	}

	father, err := typed.Get(ctx, "entry_father")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if father.ConceptID == "" {
		t.Fatalf("expected entry_father to have a concept id written back")
	}

	notEmbedded, err := typed.Get(ctx, "entry_not_embedded")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if notEmbedded.ConceptID != "" {
		t.Fatalf("un-embedded entry must not be touched by analysis, got concept_id %q", notEmbedded.ConceptID)
	}
}
