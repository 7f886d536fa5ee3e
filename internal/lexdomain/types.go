// Package lexdomain holds the shared data model for the ingestion and
// enrichment pipelines: raw records, typed entries, concepts, similarity
// edges, cognate clusters, and transform provenance.
package lexdomain

import "time"

// RawRecord is an immutable tuple written once to the raw store and never
// mutated or deleted. Checksum is unique across the store; duplicates are
// discarded at ingest.
type RawRecord struct {
	ID         string
	SourceID   string
	Payload    map[string]any
	Checksum   string
	FilePath   string
	LineNo     int64
	IngestedAt time.Time
}

// Entry is a cleaned, validated, typed lexical entry.
type Entry struct {
	ID                 string
	Headword           string
	IPA                string
	LanguageCode       string
	Definition         string
	Etymology          string
	POSTag             string
	Embedding          []float32
	RawRef             string
	SourceID           string
	PipelineFingerprint string
	Quality            float64
	ValidationErrors   []string
	ConceptID          string
	ConceptConfidence  float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasEmbedding reports whether the entry carries a non-empty embedding.
func (e *Entry) HasEmbedding() bool {
	return e != nil && len(e.Embedding) > 0
}

// ConceptCluster is a discovered cross-lingual semantic cluster.
type ConceptCluster struct {
	ID                string
	Centroid          []float32
	MemberIDs         []string
	Languages         []string
	SampleDefinitions []string
	Confidence        float64
	Size              int
}

// ConceptID is a resolved concept assignment for a single entry.
type ConceptID struct {
	ID          string
	Label       string
	Confidence  float64
	MemberCount int
}

// SimilarityWeights is a named weight preset for the Similarity Composer.
type SimilarityWeights struct {
	Semantic     float64
	Phonetic     float64
	Etymological float64
}

// SimilarityEdge carries per-component and combined similarity scores for a
// canonicalized pair (EntryA < EntryB lexicographically).
type SimilarityEdge struct {
	EntryA         string
	EntryB         string
	Semantic       float64
	Phonetic       float64
	Etymological   float64
	Combined       float64
	Weights        SimilarityWeights
	PhyloDistance  *int
	ConceptA       string
	ConceptB       string
}

// CognateCluster is a connected component (or sub-community) of the
// similarity graph, with a deterministic representative and canonical id.
type CognateCluster struct {
	ClusterID     string
	ConceptID     string
	Members       []string
	Languages     []string
	Representative string
	Confidence    float64
	Size          int
}

// TransformStep records one cleaner's effect on a raw record, in the
// Pipeline's application order.
type TransformStep struct {
	Name       string
	Version    string
	Parameters map[string]any
	At         time.Time
	DurationMS int64
	OK         bool
	Error      string
}

// TransformLog is the append-only provenance trail for one raw record.
type TransformLog struct {
	RawID string
	Steps []TransformStep
}
