package cleaners

import "testing"

func TestHeadwordCleaner_StripsMarkersAndParens(t *testing.T) {
	c := HeadwordCleaner{}
	got := c.Clean("*father† (archaic)")
	if got != "father" {
		t.Fatalf("got %q, want %q", got, "father")
	}
	if !c.Validate(got) {
		t.Fatalf("expected valid")
	}
}

func TestIPACleaner_StripsBracketsAndMapsStress(t *testing.T) {
	c := IPACleaner{}
	got := c.Clean("['fa.ðər]")
	if got != "ˈfa.ðər" {
		t.Fatalf("got %q", got)
	}
}

func TestLanguageCodeCleaner_MapsNamesAndPassesCodes(t *testing.T) {
	c := LanguageCodeCleaner{}
	if got := c.Clean("German"); got != "de" {
		t.Fatalf("got %q, want de", got)
	}
	if got := c.Clean("la"); got != "la" {
		t.Fatalf("got %q, want la", got)
	}
	if !c.Validate("en") {
		t.Fatalf("expected en valid")
	}
	if c.Validate("english") {
		t.Fatalf("expected full language name invalid")
	}
}

func TestDefinitionCleaner_StripsCitationsAndHTML(t *testing.T) {
	c := DefinitionCleaner{}
	got := c.Clean("a male parent[1] <i>archaic</i>")
	if got != "a male parent archaic" {
		t.Fatalf("got %q", got)
	}
}

func TestPipeline_Fingerprint_IsOrderedJoin(t *testing.T) {
	p := NewPipeline(false, HeadwordCleaner{}, IPACleaner{})
	want := "headword_cleaner:1.0.0_ipa_cleaner:1.0.0"
	if got := p.Fingerprint(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPipeline_Apply_Deterministic(t *testing.T) {
	p := NewPipeline(false, HeadwordCleaner{})
	a, _, _ := p.Apply("*Vater")
	b, _, _ := p.Apply("*Vater")
	if a != b {
		t.Fatalf("cleaner not deterministic: %q != %q", a, b)
	}
}

func TestPipeline_Strict_ShortCircuits(t *testing.T) {
	p := NewPipeline(true, HeadwordCleaner{})
	_, steps, err := p.Apply("   ")
	if err == nil {
		t.Fatalf("expected strict validation error")
	}
	if len(steps) != 1 || steps[0].OK {
		t.Fatalf("expected one failed step, got %+v", steps)
	}
}

func TestDetectDuplicates_KeepsFirstOccurrence(t *testing.T) {
	keys := []string{"father|en", "vater|de", "father|en"}
	pairs := DetectDuplicates(len(keys), func(i int) string { return keys[i] })
	if len(pairs) != 1 || pairs[0] != (DuplicatePair{IndexA: 0, IndexB: 2}) {
		t.Fatalf("got %+v", pairs)
	}
}
