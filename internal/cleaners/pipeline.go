package cleaners

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
)

// Pipeline is an ordered composition of Cleaners applied to a single field
// value, recording a TransformStep per cleaner. When Strict is true, a
// failing Validate short-circuits the pipeline and the record is marked
// failed; otherwise the failure is recorded and processing continues.
type Pipeline struct {
	Cleaners []Cleaner
	Strict   bool
}

func NewPipeline(strict bool, cleaners ...Cleaner) *Pipeline {
	return &Pipeline{Cleaners: cleaners, Strict: strict}
}

// Fingerprint resolves spec.md's Open Question #1: an ordered list of
// cleaner name:version pairs in application order, joined with
// underscores (grounded on
// Pipeline.signature in the original Python source), not a set.
func (p *Pipeline) Fingerprint() string {
	parts := make([]string, len(p.Cleaners))
	for i, c := range p.Cleaners {
		parts[i] = fmt.Sprintf("%s:%s", c.Name(), c.Version())
	}
	return strings.Join(parts, "_")
}

// Apply runs every cleaner in order over value, returning the cleaned
// value and the provenance steps recorded along the way. If Strict and a
// cleaner's Validate fails, Apply returns the value as cleaned up to that
// point, the steps so far (the failing step marked !OK), and a non-nil
// error.
func (p *Pipeline) Apply(value string) (string, []lexdomain.TransformStep, error) {
	steps := make([]lexdomain.TransformStep, 0, len(p.Cleaners))
	current := value

	for _, c := range p.Cleaners {
		start := time.Now()
		cleaned := c.Clean(current)
		ok := c.Validate(cleaned)
		step := lexdomain.TransformStep{
			Name:       c.Name(),
			Version:    c.Version(),
			At:         start,
			DurationMS: time.Since(start).Milliseconds(),
			OK:         ok,
		}
		if !ok {
			step.Error = fmt.Sprintf("%s: validation failed for %q", c.Name(), cleaned)
		}
		steps = append(steps, step)
		current = cleaned

		if !ok && p.Strict {
			return current, steps, fmt.Errorf("%s: validation failed", c.Name())
		}
	}

	return current, steps, nil
}

// ApplyMany runs Apply over each input value in order, preserving input
// ordering in the output slice as spec.md §4.3 requires for the batch form.
func (p *Pipeline) ApplyMany(values []string) ([]string, [][]lexdomain.TransformStep, []error) {
	cleaned := make([]string, len(values))
	steps := make([][]lexdomain.TransformStep, len(values))
	errs := make([]error, len(values))

	for i, v := range values {
		c, s, err := p.Apply(v)
		cleaned[i] = c
		steps[i] = s
		errs[i] = err
	}

	return cleaned, steps, errs
}

// FieldPipelines is the set of per-field pipelines applied to build one
// Entry, grounded on PipelineFactory.full_entry_pipeline.
type FieldPipelines struct {
	Headword     *Pipeline
	IPA          *Pipeline
	Definition   *Pipeline
	LanguageCode *Pipeline
}

// DefaultFieldPipelines returns the standard non-strict pipeline set.
func DefaultFieldPipelines() FieldPipelines {
	return FieldPipelines{
		Headword:     NewPipeline(false, HeadwordCleaner{}),
		IPA:          NewPipeline(false, IPACleaner{}),
		Definition:   NewPipeline(false, DefinitionCleaner{}),
		LanguageCode: NewPipeline(false, LanguageCodeCleaner{}),
	}
}

// Fingerprint combines the per-field pipeline fingerprints in a fixed field
// order so the same field pipelines always yield the same fingerprint.
func (f FieldPipelines) Fingerprint() string {
	return strings.Join([]string{
		"hw=" + f.Headword.Fingerprint(),
		"ipa=" + f.IPA.Fingerprint(),
		"def=" + f.Definition.Fingerprint(),
		"lc=" + f.LanguageCode.Fingerprint(),
	}, "|")
}
