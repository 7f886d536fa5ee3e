package graphkernel

import "testing"

func TestConnectedComponents_CanonicalOrdering(t *testing.T) {
	edges := []Edge{
		{A: "zeta", B: "alpha", Weight: 0.9},
		{A: "gamma", B: "beta", Weight: 0.8},
	}
	g := New(edges, 0.5)
	components := g.ConnectedComponents()
	if len(components) != 2 {
		t.Fatalf("got %d components, want 2", len(components))
	}
	if components[0].ID != "alpha" || components[1].ID != "beta" {
		t.Fatalf("unexpected component ids: %v, %v", components[0].ID, components[1].ID)
	}
}

func TestConnectedComponents_ThresholdFiltersEdges(t *testing.T) {
	edges := []Edge{
		{A: "a", B: "b", Weight: 0.4},
		{A: "c", B: "d", Weight: 0.9},
	}
	g := New(edges, 0.5)
	components := g.ConnectedComponents()
	if len(components) != 3 {
		t.Fatalf("got %d components, want 3 (a, b isolated, c-d joined)", len(components))
	}
}

func TestConnectedComponents_DeterministicUnderPermutation(t *testing.T) {
	edgesA := []Edge{
		{A: "a", B: "b", Weight: 0.9},
		{A: "b", B: "c", Weight: 0.9},
	}
	edgesB := []Edge{
		{A: "b", B: "c", Weight: 0.9},
		{A: "a", B: "b", Weight: 0.9},
	}
	gA := New(edgesA, 0.5)
	gB := New(edgesB, 0.5)
	cA := gA.ConnectedComponents()
	cB := gB.ConnectedComponents()
	if len(cA) != 1 || len(cB) != 1 {
		t.Fatalf("expected single component each")
	}
	if cA[0].ID != cB[0].ID {
		t.Fatalf("component id not deterministic under edge permutation: %v vs %v", cA[0].ID, cB[0].ID)
	}
}

func TestPageRank_SumsToApproximatelyOne(t *testing.T) {
	edges := []Edge{
		{A: "a", B: "b", Weight: 1.0},
		{A: "b", B: "c", Weight: 1.0},
		{A: "c", B: "a", Weight: 1.0},
	}
	g := New(edges, 0.5)
	scores := g.PageRank(0.85, 50)
	total := 0.0
	for _, s := range scores {
		total += s
	}
	if total < 0.99 || total > 1.01 {
		t.Fatalf("pagerank scores sum to %v, want ~1.0", total)
	}
}

func TestDetectCommunities_TwoCliquesSeparate(t *testing.T) {
	edges := []Edge{
		{A: "a1", B: "a2", Weight: 0.9},
		{A: "a2", B: "a3", Weight: 0.9},
		{A: "a1", B: "a3", Weight: 0.9},
		{A: "b1", B: "b2", Weight: 0.9},
		{A: "b2", B: "b3", Weight: 0.9},
		{A: "b1", B: "b3", Weight: 0.9},
		{A: "a1", B: "b1", Weight: 0.55},
	}
	g := New(edges, 0.5)
	communities := g.DetectCommunities()
	if len(communities) < 2 {
		t.Fatalf("expected at least 2 communities for two weakly-linked cliques, got %d", len(communities))
	}
}
