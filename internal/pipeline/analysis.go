package pipeline

import (
	"context"
	"math"

	"github.com/yungbote/neurobridge-backend/internal/concepts"
	"github.com/yungbote/neurobridge-backend/internal/external"
	"github.com/yungbote/neurobridge-backend/internal/graphkernel"
	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
	"github.com/yungbote/neurobridge-backend/internal/lexerr"
	"github.com/yungbote/neurobridge-backend/internal/phonetic"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
	"github.com/yungbote/neurobridge-backend/internal/similarity"
	"github.com/yungbote/neurobridge-backend/internal/typedstore"
)

const analysisPipelineName = "analyze"

// AnalysisConfig tunes the cognate-detection phase that completes
// spec.md's data flow after enrichment: C10 (concept alignment) -> C9
// (graph kernel) -> C11 (similarity composition). This phase runs over
// entries already carrying embeddings; it is a bulk, not streaming,
// operation since clustering and graph construction are inherently
// whole-collection operations.
type AnalysisConfig struct {
	LanguageCode   string
	GraphThreshold float64
	PageRankDamping float64
	PageRankIterations int
	SimilarityPreset similarity.Preset
	WriteBatch     int
}

// AnalysisResult summarizes one analysis run.
type AnalysisResult struct {
	EntriesScanned int
	Concepts       []lexdomain.ConceptCluster
	Edges          int
	CognateClusters []lexdomain.CognateCluster
	GraphStats     graphkernel.Stats
	GraphEdges     []graphkernel.Edge
	PageRank       map[string]float64
	Communities    []graphkernel.Community
	GraphComponents []graphkernel.Component
}

// RunAnalysis discovers concepts over all embedded entries, assigns
// each entry its concept, composes pairwise similarity edges within
// each concept cluster (pairwise comparison across the whole collection
// does not scale; concept membership is the practical candidate-pair
// filter), and builds the cognate graph from those edges.
func RunAnalysis(ctx context.Context, cfg AnalysisConfig, typed *typedstore.Store, aligner *concepts.Aligner, distances *external.DistanceTable, log *logger.Logger) (AnalysisResult, error) {
	var result AnalysisResult

	entries, errc := typed.Scan(ctx, cfg.LanguageCode, "", 5000)
	var all []*lexdomain.Entry
	for e := range entries {
		if e.HasEmbedding() {
			all = append(all, e)
		}
	}
	if err := <-errc; err != nil {
		return result, lexerr.New(lexerr.Fatal, analysisPipelineName, "scan", err)
	}
	result.EntriesScanned = len(all)

	result.Concepts = aligner.Discover(all)

	writeBatch := make([]*lexdomain.Entry, 0, cfg.WriteBatch)
	flush := func() error {
		if len(writeBatch) == 0 {
			return nil
		}
		if _, err := typed.BulkUpsert(ctx, writeBatch); err != nil {
			return lexerr.New(lexerr.Fatal, analysisPipelineName, "concept_write", err)
		}
		writeBatch = writeBatch[:0]
		return nil
	}

	byConcept := make(map[string][]*lexdomain.Entry)
	for _, e := range all {
		assigned, ok := aligner.Assign(e.Embedding)
		if ok {
			e.ConceptID = assigned.ID
			e.ConceptConfidence = assigned.Confidence
			byConcept[assigned.ID] = append(byConcept[assigned.ID], e)
		}
		writeBatch = append(writeBatch, e)
		if len(writeBatch) >= cfg.WriteBatch {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	edges, err := composeEdges(ctx, byConcept, distances, cfg.SimilarityPreset)
	if err != nil {
		return result, err
	}
	result.Edges = len(edges)

	graphEdges := make([]graphkernel.Edge, len(edges))
	for i, e := range edges {
		graphEdges[i] = graphkernel.Edge{A: e.EntryA, B: e.EntryB, Weight: e.Combined}
	}
	graph := graphkernel.New(graphEdges, cfg.GraphThreshold)
	result.GraphStats = graph.Stats()
	result.GraphEdges = graphEdges

	components := graph.ConnectedComponents()
	result.GraphComponents = components
	result.CognateClusters = make([]lexdomain.CognateCluster, len(components))
	for i, c := range components {
		result.CognateClusters[i] = lexdomain.CognateCluster{
			ClusterID:      c.ID,
			Members:        c.Members,
			Representative: c.Members[0],
			Size:           len(c.Members),
		}
	}

	result.Communities = graph.DetectCommunities()
	result.PageRank = graph.PageRank(cfg.PageRankDamping, cfg.PageRankIterations)

	log.Info("analysis_completed",
		"entries_scanned", result.EntriesScanned,
		"concepts", len(result.Concepts),
		"edges", result.Edges,
		"cognate_clusters", len(result.CognateClusters),
	)
	return result, nil
}

// composeEdges builds SimilarityEdges for every pair of entries sharing
// a concept cluster, using phonetic distance for the phonetic component
// and the phylogenetic distance table for the etymological prior.
func composeEdges(ctx context.Context, byConcept map[string][]*lexdomain.Entry, distances *external.DistanceTable, preset similarity.Preset) ([]lexdomain.SimilarityEdge, error) {
	var edges []lexdomain.SimilarityEdge

	for _, members := range byConcept {
		if len(members) < 2 {
			continue
		}
		var pairs []phonetic.Pair
		var pairEntries [][2]*lexdomain.Entry
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				pairs = append(pairs, phonetic.Pair{A: members[i].IPA, B: members[j].IPA})
				pairEntries = append(pairEntries, [2]*lexdomain.Entry{members[i], members[j]})
			}
		}
		if len(pairs) == 0 {
			continue
		}

		dists, err := phonetic.BatchDistance(ctx, pairs)
		if err != nil {
			return nil, lexerr.New(lexerr.Fatal, analysisPipelineName, "phonetic_batch", err)
		}

		for i, pe := range pairEntries {
			a, b := pe[0], pe[1]
			semantic := cosineSimilarity(a.Embedding, b.Embedding)
			phoneticSim := 1 - dists[i]

			var prior *float64
			if entry, ok := distances.Lookup(a.LanguageCode, b.LanguageCode); ok {
				p := entry.Prior
				prior = &p
			}

			edge, err := similarity.Compose(similarity.Input{
				EntryA:            a.ID,
				EntryB:            b.ID,
				Semantic:          semantic,
				Phonetic:          phoneticSim,
				EtymologicalPrior: prior,
			}, preset)
			if err != nil {
				return nil, lexerr.New(lexerr.Fatal, analysisPipelineName, "similarity_compose", err)
			}
			edges = append(edges, edge)
		}
	}

	return edges, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
