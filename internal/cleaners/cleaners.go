// Package cleaners implements the pure, versioned, deterministic field
// transformations of the Cleaner Pipeline (spec.md C3): headword-stripper,
// text-normalizer, IPA normalizer, language-code canonicalizer, and
// definition cleaner, plus a pairwise duplicate detector.
package cleaners

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Cleaner is a pure, versioned, deterministic string transform with its own
// validity check. c.Clean(x) == c.Clean(x) always, independent of call
// order, parallelism, or global state.
type Cleaner interface {
	Name() string
	Version() string
	Clean(s string) string
	Validate(s string) bool
}

// --- headword-stripper ------------------------------------------------

var (
	headwordMarkers     = regexp.MustCompile(`[*†‡§¶]`)
	headwordParentheses = regexp.MustCompile(`\([^)]*\)`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

type HeadwordCleaner struct{}

func (HeadwordCleaner) Name() string    { return "headword_cleaner" }
func (HeadwordCleaner) Version() string { return "1.0.0" }

func (HeadwordCleaner) Clean(s string) string {
	s = headwordMarkers.ReplaceAllString(s, "")
	s = headwordParentheses.ReplaceAllString(s, "")
	s = norm.NFC.String(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func (HeadwordCleaner) Validate(s string) bool {
	return strings.TrimSpace(s) != ""
}

// --- text-normalizer ----------------------------------------------------

// TextNormalizer applies Unicode NFC, optional casefold, and whitespace
// collapse. It is parameterized, unlike the other cleaners.
// NewTextNormalizer sets the defaults (lowercase and whitespace collapse
// on); the zero value is still a usable Cleaner but applies NFC only.
type TextNormalizer struct {
	Lowercase          bool
	RemovePunctuation  bool
	NormalizeWhitespace bool
}

func NewTextNormalizer() TextNormalizer {
	return TextNormalizer{Lowercase: true, NormalizeWhitespace: true}
}

func (TextNormalizer) Name() string    { return "text_normalizer" }
func (TextNormalizer) Version() string { return "1.0.0" }

var punctuationRun = regexp.MustCompile(`[[:punct:]]`)

func (t TextNormalizer) Clean(s string) string {
	s = norm.NFC.String(s)
	if t.Lowercase {
		s = strings.ToLower(s)
	}
	if t.RemovePunctuation {
		s = punctuationRun.ReplaceAllString(s, "")
	}
	if t.NormalizeWhitespace {
		s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	}
	return s
}

func (TextNormalizer) Validate(s string) bool {
	return strings.TrimSpace(s) != ""
}

// --- IPA normalizer -------------------------------------------------

var (
	ipaBrackets = regexp.MustCompile(`[\[\]/]`)
)

type IPACleaner struct{}

func (IPACleaner) Name() string    { return "ipa_cleaner" }
func (IPACleaner) Version() string { return "1.0.0" }

func (IPACleaner) Clean(s string) string {
	s = norm.NFC.String(s)
	s = ipaBrackets.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "'", "ˈ")
	s = strings.ReplaceAll(s, ",", "ˌ")
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}

func (IPACleaner) Validate(s string) bool {
	return strings.TrimSpace(s) != ""
}

// --- definition cleaner -------------------------------------------------

var (
	citationMarker = regexp.MustCompile(`\[\d+\]`)
	htmlTag        = regexp.MustCompile(`<[^>]+>`)
)

// DefinitionCleaner strips citation markers and HTML tags, optionally
// truncating to MaxLength with an ellipsis.
type DefinitionCleaner struct {
	MaxLength int
}

func (DefinitionCleaner) Name() string    { return "definition_cleaner" }
func (DefinitionCleaner) Version() string { return "1.0.0" }

func (d DefinitionCleaner) Clean(s string) string {
	s = citationMarker.ReplaceAllString(s, "")
	s = htmlTag.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	if d.MaxLength > 0 && len(s) > d.MaxLength {
		s = strings.TrimSpace(s[:d.MaxLength]) + "…"
	}
	return s
}

func (DefinitionCleaner) Validate(s string) bool {
	return len(strings.TrimSpace(s)) >= 3
}

// --- language-code canonicalizer ----------------------------------------

var languageNameToCode = map[string]string{
	"english":              "en",
	"german":               "de",
	"french":                "fr",
	"spanish":              "es",
	"italian":              "it",
	"portuguese":           "pt",
	"russian":              "ru",
	"polish":               "pl",
	"latin":                "la",
	"greek":                "grc",
	"ancient greek":        "grc",
	"sanskrit":             "sa",
	"hindi":                "hi",
	"persian":              "fa",
	"dutch":                "nl",
	"swedish":              "sv",
	"norwegian":            "no",
	"danish":               "da",
	"icelandic":            "is",
	"proto-indo-european":  "pie",
}

var isoCodePattern = regexp.MustCompile(`^[a-z]{2,3}$`)

type LanguageCodeCleaner struct{}

func (LanguageCodeCleaner) Name() string    { return "language_code_cleaner" }
func (LanguageCodeCleaner) Version() string { return "1.0.0" }

func (LanguageCodeCleaner) Clean(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	if code, ok := languageNameToCode[lower]; ok {
		return code
	}
	return lower
}

func (LanguageCodeCleaner) Validate(s string) bool {
	return isoCodePattern.MatchString(s)
}

// --- duplicate detection --------------------------------------------------

// DuplicateKeyFields names the entry fields used to detect duplicates when
// none are given explicitly, matching the default in the source pipeline.
var DuplicateKeyFields = []string{"headword", "language"}

// DuplicatePair identifies two indices into an input slice that collide on
// the duplicate key.
type DuplicatePair struct {
	IndexA int
	IndexB int
}

// DetectDuplicates reports index pairs whose keyFn output collides. It
// keeps the first occurrence and reports every later occurrence as a
// duplicate of it.
func DetectDuplicates(n int, keyFn func(i int) string) []DuplicatePair {
	seen := make(map[string]int, n)
	var pairs []DuplicatePair
	for i := 0; i < n; i++ {
		key := keyFn(i)
		if first, ok := seen[key]; ok {
			pairs = append(pairs, DuplicatePair{IndexA: first, IndexB: i})
			continue
		}
		seen[key] = i
	}
	return pairs
}
