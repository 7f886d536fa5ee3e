package concepts

import (
	"testing"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
)

func makeEntry(id, lang, def string, emb []float32) *lexdomain.Entry {
	return &lexdomain.Entry{ID: id, LanguageCode: lang, Definition: def, Embedding: emb}
}

func TestDiscover_DeterministicAcrossRuns(t *testing.T) {
	entries := []*lexdomain.Entry{
		makeEntry("a1", "en", "water, liquid", []float32{1, 0, 0, 0}),
		makeEntry("a2", "de", "water, liquid", []float32{0.95, 0.05, 0, 0}),
		makeEntry("a3", "fr", "water, liquid", []float32{0.9, 0.1, 0, 0}),
		makeEntry("b1", "en", "fire, flame", []float32{0, 0, 1, 0}),
		makeEntry("b2", "de", "fire, flame", []float32{0, 0.05, 0.95, 0}),
		makeEntry("b3", "fr", "fire, flame", []float32{0, 0.1, 0.9, 0}),
	}

	cfg := DefaultConfig()
	cfg.MinClusterSize = 2
	cfg.MinSamples = 2
	cfg.Epsilon = 0.5

	a1 := New(cfg)
	c1 := a1.Discover(entries)

	a2 := New(cfg)
	c2 := a2.Discover(entries)

	if len(c1) != len(c2) {
		t.Fatalf("non-deterministic cluster count: %d vs %d", len(c1), len(c2))
	}
	for i := range c1 {
		if c1[i].ID != c2[i].ID || c1[i].Size != c2[i].Size {
			t.Fatalf("non-deterministic cluster at %d: %+v vs %+v", i, c1[i], c2[i])
		}
	}
}

func TestAssign_BelowThresholdIsUnknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinAssignSimilarity = 0.99
	a := New(cfg)
	a.concepts = []lexdomain.ConceptCluster{
		{ID: "concept_0000", Centroid: []float32{1, 0}, Size: 3},
	}

	_, ok := a.Assign([]float32{0, 1})
	if ok {
		t.Fatalf("expected assignment below threshold to fail")
	}
}

func TestAssign_NearestCentroid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinAssignSimilarity = 0.1
	a := New(cfg)
	a.concepts = []lexdomain.ConceptCluster{
		{ID: "concept_0000", Centroid: []float32{1, 0}, Size: 3},
		{ID: "concept_0001", Centroid: []float32{0, 1}, Size: 2},
	}

	got, ok := a.Assign([]float32{0.1, 0.9})
	if !ok {
		t.Fatalf("expected assignment to succeed")
	}
	if got.ID != "concept_0001" {
		t.Fatalf("got %s, want concept_0001", got.ID)
	}
}
