package similarity

import "testing"

func TestCompose_BalancedWeights(t *testing.T) {
	etym := 0.5
	edge, err := Compose(Input{EntryA: "b", EntryB: "a", Semantic: 1.0, Phonetic: 0.5, EtymologicalPrior: &etym}, PresetBalanced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.EntryA != "a" || edge.EntryB != "b" {
		t.Fatalf("edge not canonicalized: %+v", edge)
	}
	want := 0.4*1.0 + 0.4*0.5 + 0.2*0.5
	if diff := edge.Combined - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("combined = %v, want %v", edge.Combined, want)
	}
}

func TestCompose_RenormalizesWithoutPhyloDistance(t *testing.T) {
	edge, err := Compose(Input{EntryA: "a", EntryB: "b", Semantic: 1.0, Phonetic: 0.0}, PresetBalanced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.Weights.Etymological != 0 {
		t.Fatalf("etymological weight should be 0 when no phylo distance, got %v", edge.Weights.Etymological)
	}
	if diff := edge.Weights.Semantic - 0.5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("renormalized semantic weight = %v, want 0.5", edge.Weights.Semantic)
	}
	if diff := edge.Combined - 0.5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("combined = %v, want 0.5", edge.Combined)
	}
}

func TestCompose_UnrecognizedPreset(t *testing.T) {
	if _, err := Compose(Input{EntryA: "a", EntryB: "b"}, Preset("nonexistent")); err == nil {
		t.Fatalf("expected error for unrecognized preset")
	}
}

func TestPresets_FourRecognized(t *testing.T) {
	if len(Presets()) != 4 {
		t.Fatalf("got %d presets, want 4", len(Presets()))
	}
}
