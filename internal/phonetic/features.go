package phonetic

// featureVector is a fixed-length articulatory feature encoding for one
// IPA segment: place, manner, voice, height, backness, rounding,
// nasality, length — each normalized to [0, 1]. Distance between two
// vectors is a weighted L1 sum, per spec.md §4.8.
type featureVector [8]float64

const (
	fPlace = iota
	fManner
	fVoice
	fHeight
	fBackness
	fRounding
	fNasality
	fLength
)

// featureWeights weights each dimension in the L1 distance; all equal by
// default, matching the spec's "weighted L1" without favoring any one
// articulatory dimension absent evidence the source model does so.
var featureWeights = featureVector{1, 1, 1, 1, 1, 1, 1, 1}

// wildcardVector matches any segment at a fixed penalty, used for
// undefined phonemes (spec.md §4.8).
var wildcardVector = featureVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
const wildcardPenalty = 0.5

// knownFeatures is a small, hand-curated articulatory feature table
// covering common IPA vowels and consonants. It is intentionally compact
// (not a full panphon port — the original implementation offloads this to
// a native extension, and spec.md §9 leaves the implementation choice
// open) but principled: every dimension is populated from standard
// articulatory descriptions.
var knownFeatures = map[rune]featureVector{
	// vowels: place~backness-adjacent unused(0), manner=1 (vowel), voice=1
	'a': {0, 1, 1, 0.0, 0.0, 0, 0, 0},
	'ɑ': {0, 1, 1, 0.0, 1.0, 0, 0, 0},
	'e': {0, 1, 1, 0.5, 0.0, 0, 0, 0},
	'ɛ': {0, 1, 1, 0.4, 0.0, 0, 0, 0},
	'i': {0, 1, 1, 1.0, 0.0, 0, 0, 0},
	'ɪ': {0, 1, 1, 0.8, 0.0, 0, 0, 0},
	'o': {0, 1, 1, 0.5, 1.0, 1, 0, 0},
	'ɔ': {0, 1, 1, 0.4, 1.0, 1, 0, 0},
	'u': {0, 1, 1, 1.0, 1.0, 1, 0, 0},
	'ʊ': {0, 1, 1, 0.8, 1.0, 1, 0, 0},
	'ə': {0, 1, 1, 0.5, 0.5, 0, 0, 0},
	// consonants: place 0..1 bilabial→glottal, manner 0..1 stop→approximant
	'p': {0.0, 0.0, 0, 0, 0, 0, 0, 0},
	'b': {0.0, 0.0, 1, 0, 0, 0, 0, 0},
	't': {0.3, 0.0, 0, 0, 0, 0, 0, 0},
	'd': {0.3, 0.0, 1, 0, 0, 0, 0, 0},
	'k': {0.7, 0.0, 0, 0, 0, 0, 0, 0},
	'g': {0.7, 0.0, 1, 0, 0, 0, 0, 0},
	'f': {0.1, 0.3, 0, 0, 0, 0, 0, 0},
	'v': {0.1, 0.3, 1, 0, 0, 0, 0, 0},
	'θ': {0.2, 0.3, 0, 0, 0, 0, 0, 0},
	'ð': {0.2, 0.3, 1, 0, 0, 0, 0, 0},
	's': {0.3, 0.3, 0, 0, 0, 0, 0, 0},
	'z': {0.3, 0.3, 1, 0, 0, 0, 0, 0},
	'ʃ': {0.4, 0.3, 0, 0, 0, 0, 0, 0},
	'ʒ': {0.4, 0.3, 1, 0, 0, 0, 0, 0},
	'h': {1.0, 0.3, 0, 0, 0, 0, 0, 0},
	'm': {0.0, 0.6, 1, 0, 0, 0, 1, 0},
	'n': {0.3, 0.6, 1, 0, 0, 0, 1, 0},
	'ŋ': {0.7, 0.6, 1, 0, 0, 0, 1, 0},
	'l': {0.3, 0.8, 1, 0, 0, 0, 0, 0},
	'r': {0.3, 1.0, 1, 0, 0, 0, 0, 0},
	'w': {0.0, 1.0, 1, 0, 1, 1, 0, 0},
	'j': {0.5, 1.0, 1, 0, 0, 0, 0, 0},
}

// lengthMarks are diacritics folded into the preceding segment's length
// feature rather than treated as their own segment.
var lengthMarks = map[rune]bool{'ː': true, 'ˑ': true}

// stressMarks are suprasegmental and carry no place/manner featurization;
// they are dropped during segmentation.
var stressMarks = map[rune]bool{'ˈ': true, 'ˌ': true}

func featuresFor(r rune) (featureVector, bool) {
	fv, ok := knownFeatures[r]
	return fv, ok
}

// segment pairs a feature vector with whether it came from an undefined
// phoneme, so DTW can apply the fixed wildcard penalty instead of
// comparing the placeholder vector's coordinates against real features.
type segment struct {
	fv        featureVector
	isWildcard bool
}
