// Package concepts implements the Concept Aligner (spec.md C10):
// cross-lingual semantic clustering of entries into concept ids via a
// deterministic manifold-preserving projection followed by density
// clustering, and nearest-centroid assignment. Grounded on
// original_source/backend/services/concepts.py's ConceptAligner.
package concepts

import (
	"fmt"
	"math"
	"sort"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
)

// Config holds the Concept Aligner's tunables, named directly from
// concepts.py's ConceptAligner dataclass fields.
type Config struct {
	MinClusterSize int
	MinSamples     int
	ProjectionDim  int
	// Epsilon is the density-clustering neighborhood radius in the
	// projected space. The original leaves this implicit inside HDBSCAN's
	// variable-density tree; since this is a fixed-epsilon DBSCAN-like
	// pass, it's surfaced explicitly here (an Open Question resolution,
	// not present in concepts.py, which never needs an explicit radius).
	Epsilon float64
	// MinAssignSimilarity is the minimum cosine similarity for
	// nearest-centroid assignment; below it, assignment is "unknown".
	MinAssignSimilarity float64
}

func DefaultConfig() Config {
	return Config{
		MinClusterSize:      50,
		MinSamples:          10,
		ProjectionDim:       10,
		Epsilon:             0.35,
		MinAssignSimilarity: 0.5,
	}
}

// Aligner discovers concept clusters and assigns entries to them.
type Aligner struct {
	cfg      Config
	concepts []lexdomain.ConceptCluster
}

func New(cfg Config) *Aligner {
	return &Aligner{cfg: cfg}
}

// entryInput pairs an entry id/language/definition with its embedding,
// decoupling this package from the full Entry type's other fields.
type entryInput struct {
	ID         string
	Language   string
	Definition string
	Embedding  []float32
}

// Discover clusters entries by embedding proximity in a deterministically
// projected, lower-dimensional space, and returns one ConceptCluster per
// dense region found (label -1 / noise entries are excluded).
func (a *Aligner) Discover(entries []*lexdomain.Entry) []lexdomain.ConceptCluster {
	inputs := toInputs(entries)
	if len(inputs) == 0 {
		a.concepts = nil
		return nil
	}

	inDim := 0
	for _, e := range inputs {
		if len(e.Embedding) > inDim {
			inDim = len(e.Embedding)
		}
	}
	if inDim == 0 {
		a.concepts = nil
		return nil
	}

	proj := newRandomProjection(inDim, a.cfg.ProjectionDim)
	vectors := make([][]float32, len(inputs))
	for i, e := range inputs {
		vectors[i] = e.Embedding
	}
	reduced := proj.transformAll(vectors)

	labels := densityCluster(reduced, a.cfg.Epsilon, a.cfg.MinSamples, a.cfg.MinClusterSize)

	byCluster := make(map[int][]int)
	for i, l := range labels {
		if l == noiseLabel {
			continue
		}
		byCluster[l] = append(byCluster[l], i)
	}

	clusterIDs := make([]int, 0, len(byCluster))
	for id := range byCluster {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Ints(clusterIDs)

	clusters := make([]lexdomain.ConceptCluster, 0, len(clusterIDs))
	for rank, cid := range clusterIDs {
		members := byCluster[cid]
		sort.Ints(members)

		memberIDs := make([]string, len(members))
		langSet := make(map[string]struct{})
		var sampleDefs []string
		centroid := make([]float32, inDim)

		for i, idx := range members {
			memberIDs[i] = inputs[idx].ID
			langSet[inputs[idx].Language] = struct{}{}
			if len(sampleDefs) < 5 {
				sampleDefs = append(sampleDefs, inputs[idx].Definition)
			}
			for d := 0; d < inDim && d < len(inputs[idx].Embedding); d++ {
				centroid[d] += inputs[idx].Embedding[d]
			}
		}
		for d := range centroid {
			centroid[d] /= float32(len(members))
		}

		languages := make([]string, 0, len(langSet))
		for l := range langSet {
			languages = append(languages, l)
		}
		sort.Strings(languages)

		clusters = append(clusters, lexdomain.ConceptCluster{
			ID:                fmt.Sprintf("concept_%04d", rank),
			Centroid:          centroid,
			MemberIDs:         memberIDs,
			Languages:         languages,
			SampleDefinitions: sampleDefs,
			Confidence:        clusterConfidence(reduced, members, a.cfg.Epsilon, a.cfg.MinSamples),
			Size:              len(members),
		})
	}

	a.concepts = clusters
	return clusters
}

// clusterConfidence is the fraction of in-cluster points whose epsilon
// neighborhood has at least minSamples members (i.e. are core points),
// per spec.md §4.10's "confidence = fraction of in-cluster samples with
// density ≥ core threshold" (distinct from the original's cosine-cohesion
// average, which spec.md does not call for).
func clusterConfidence(points [][]float64, members []int, eps float64, minSamples int) float64 {
	if len(members) == 0 {
		return 0
	}
	core := 0
	for _, i := range members {
		count := 0
		for _, j := range members {
			if i == j {
				continue
			}
			if euclidean(points[i], points[j]) <= eps {
				count++
			}
		}
		if count+1 >= minSamples {
			core++
		}
	}
	return float64(core) / float64(len(members))
}

// Assign maps an embedding to its nearest concept centroid by cosine
// similarity. Below cfg.MinAssignSimilarity, the assignment is
// unresolved (ok=false), mirroring spec.md §4.10's "unknown" outcome.
func (a *Aligner) Assign(embedding []float32) (lexdomain.ConceptID, bool) {
	var best lexdomain.ConceptCluster
	bestSim := -2.0
	found := false

	for _, c := range a.concepts {
		sim := cosineSimilarity(embedding, c.Centroid)
		if sim > bestSim {
			bestSim = sim
			best = c
			found = true
		}
	}

	if !found || bestSim < a.cfg.MinAssignSimilarity {
		return lexdomain.ConceptID{}, false
	}

	return lexdomain.ConceptID{
		ID:          best.ID,
		Label:       conceptLabel(best),
		Confidence:  bestSim,
		MemberCount: best.Size,
	}, true
}

func conceptLabel(c lexdomain.ConceptCluster) string {
	if len(c.SampleDefinitions) == 0 {
		return c.ID
	}
	words := splitWords(c.SampleDefinitions[0])
	if len(words) > 3 {
		words = words[:3]
	}
	return joinUpper(words)
}

func toInputs(entries []*lexdomain.Entry) []entryInput {
	out := make([]entryInput, 0, len(entries))
	for _, e := range entries {
		if e == nil || !e.HasEmbedding() {
			continue
		}
		out = append(out, entryInput{
			ID:         e.ID,
			Language:   e.LanguageCode,
			Definition: e.Definition,
			Embedding:  e.Embedding,
		})
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
