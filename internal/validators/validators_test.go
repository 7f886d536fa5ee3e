package validators

import (
	"testing"

	"github.com/yungbote/neurobridge-backend/internal/lexdomain"
)

func TestStandardEntryValidator_ValidEntry(t *testing.T) {
	e := &lexdomain.Entry{
		Headword:     "father",
		IPA:          "ˈfɑːðər",
		LanguageCode: "en",
		Definition:   "male parent",
	}
	v := StandardEntryValidator()
	ok, errs := v.Validate(e)
	if !ok {
		t.Fatalf("expected valid, got errors %v", errs)
	}
}

func TestStandardEntryValidator_RejectsBadLanguage(t *testing.T) {
	e := &lexdomain.Entry{
		Headword:     "father",
		IPA:          "ˈfɑːðər",
		LanguageCode: "xx",
		Definition:   "male parent",
	}
	v := StandardEntryValidator()
	ok, errs := v.Validate(e)
	if ok {
		t.Fatalf("expected invalid")
	}
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
}

func TestComputeQualityScore_PerfectIsOne(t *testing.T) {
	e := &lexdomain.Entry{
		Headword:     "father",
		IPA:          "ˈfɑːðər",
		LanguageCode: "en",
		Definition:   "male parent",
	}
	v := StandardEntryValidator()
	if got := ComputeQualityScore(e, v); got != 1.0 {
		t.Fatalf("got %v, want 1.0", got)
	}
}

func TestComputeQualityScore_PenalizesPerError(t *testing.T) {
	e := &lexdomain.Entry{LanguageCode: "en"}
	v := StandardEntryValidator()
	got := ComputeQualityScore(e, v)
	if got <= 0 || got >= 1.0 {
		t.Fatalf("got %v, want value strictly between 0 and 1", got)
	}
}

func TestComputeQualityScore_CapsPenaltyAtPointNine(t *testing.T) {
	e := &lexdomain.Entry{}
	v := StrictEntryValidator()
	got := ComputeQualityScore(e, v)
	if got < 0.1 {
		t.Fatalf("got %v, want >= 0.1 (penalty capped at 0.9)", got)
	}
}

func TestStrictEntryValidator_RequiresPOSTag(t *testing.T) {
	e := &lexdomain.Entry{
		Headword:     "father",
		IPA:          "ˈfɑːðər",
		LanguageCode: "en",
		Definition:   "a male parent of a child",
		Etymology:    "from Old English",
	}
	v := StrictEntryValidator()
	ok, errs := v.Validate(e)
	if ok {
		t.Fatalf("expected invalid with pos_tag missing")
	}
	found := false
	for _, msg := range errs {
		if msg == "pos_tag is required" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a pos_tag required error, got %v", errs)
	}

	e.POSTag = "n"
	ok, errs = v.Validate(e)
	if !ok {
		t.Fatalf("expected valid once pos_tag is set, got errors %v", errs)
	}
}
