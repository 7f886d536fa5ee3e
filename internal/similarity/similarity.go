// Package similarity implements the Similarity Composer (spec.md C11):
// a weighted linear combination of semantic, phonetic, and etymological
// scores for an entry pair, under one of four named weight presets,
// renormalizing when the etymological component is unavailable.
package similarity

import (
	"fmt"
	"sort"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
)

// Preset is a named, recognized weight set. Composing with an
// unrecognized name is a caller error (spec.md names exactly these
// four).
type Preset string

const (
	PresetBalanced   Preset = "balanced"
	PresetCognate    Preset = "cognate"
	PresetSemantic   Preset = "semantic"
	PresetHistorical Preset = "historical"
)

var presetWeights = map[Preset]lexdomain.SimilarityWeights{
	PresetBalanced:   {Semantic: 0.4, Phonetic: 0.4, Etymological: 0.2},
	PresetCognate:    {Semantic: 0.3, Phonetic: 0.6, Etymological: 0.1},
	PresetSemantic:   {Semantic: 0.7, Phonetic: 0.2, Etymological: 0.1},
	PresetHistorical: {Semantic: 0.1, Phonetic: 0.4, Etymological: 0.5},
}

// Weights looks up a named preset's weights.
func Weights(preset Preset) (lexdomain.SimilarityWeights, error) {
	w, ok := presetWeights[preset]
	if !ok {
		return lexdomain.SimilarityWeights{}, fmt.Errorf("unrecognized similarity preset %q", preset)
	}
	return w, nil
}

// Input is the pre-computed component scores for one entry pair: each is
// in [0, 1], and EtymologicalPrior is nil when no phylogenetic distance
// was available for the pair's language pair.
type Input struct {
	EntryA, EntryB     string
	Semantic           float64
	Phonetic           float64
	EtymologicalPrior  *float64
}

// Compose combines an Input's component scores under the named preset
// into a SimilarityEdge, canonicalizing entry order (entry_a < entry_b
// lexicographically) per spec.md §3. When EtymologicalPrior is nil, γ is
// dropped to 0 and α, β renormalize to sum to 1 over the remaining
// weights, per spec.md §4.11.
func Compose(in Input, preset Preset) (lexdomain.SimilarityEdge, error) {
	w, err := Weights(preset)
	if err != nil {
		return lexdomain.SimilarityEdge{}, err
	}

	etym := 0.0
	effective := w
	if in.EtymologicalPrior != nil {
		etym = *in.EtymologicalPrior
	} else {
		effective = renormalize(w)
	}

	combined := effective.Semantic*in.Semantic + effective.Phonetic*in.Phonetic + effective.Etymological*etym

	a, b := in.EntryA, in.EntryB
	if b < a {
		a, b = b, a
	}

	return lexdomain.SimilarityEdge{
		EntryA:        a,
		EntryB:        b,
		Semantic:      in.Semantic,
		Phonetic:      in.Phonetic,
		Etymological:  etym,
		Combined:      combined,
		Weights:       effective,
		PhyloDistance: nil,
	}, nil
}

// renormalize drops the etymological weight and rescales semantic and
// phonetic so they sum to 1, preserving their relative proportion.
func renormalize(w lexdomain.SimilarityWeights) lexdomain.SimilarityWeights {
	sum := w.Semantic + w.Phonetic
	if sum == 0 {
		return lexdomain.SimilarityWeights{Semantic: 0.5, Phonetic: 0.5, Etymological: 0}
	}
	return lexdomain.SimilarityWeights{
		Semantic:     w.Semantic / sum,
		Phonetic:     w.Phonetic / sum,
		Etymological: 0,
	}
}

// Presets lists every recognized preset name in a fixed, sorted order —
// useful for CLI help text and validation error messages.
func Presets() []Preset {
	names := make([]Preset, 0, len(presetWeights))
	for p := range presetWeights {
		names = append(names, p)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
