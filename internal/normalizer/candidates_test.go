package normalizer

import (
	"testing"
)

func candidateSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// TestGenerateCandidates_NgramsAndFiltering checks word, n-gram and
// full-string emission with stop-word and length filtering
func TestGenerateCandidates_NgramsAndFiltering(t *testing.T) {
	tn := NewTextNormalizer()

	got := tn.GenerateCandidates("Abiemnom Town, Unity")
	set := candidateSet(got)

	wantPresent := []string{
		"abiemnhom",
		"unity",
		"abiemnhom town",
		"town unity",
		"abiemnhom town unity",
	}
	for _, w := range wantPresent {
		if _, ok := set[w]; !ok {
			t.Errorf("candidates missing %q; got %v", w, got)
		}
	}

	wantAbsent := []string{
		"town", // stop word
		"of",   // too short
		"",
	}
	for _, w := range wantAbsent {
		if _, ok := set[w]; ok {
			t.Errorf("candidates should not contain %q; got %v", w, got)
		}
	}

	if len(got) != len(set) {
		t.Errorf("candidates contain duplicates: %v", got)
	}
}

func TestGenerateCandidates_NgramCap(t *testing.T) {
	tn := NewTextNormalizer()

	// seven words: n-grams must stop at five consecutive words
	got := tn.GenerateCandidates("alpha bravo charlie delta echo foxtrot golf")
	set := candidateSet(got)

	if _, ok := set["alpha bravo charlie delta echo"]; !ok {
		t.Error("expected 5-gram to be present")
	}
	if _, ok := set["alpha bravo charlie delta echo foxtrot"]; ok {
		t.Error("6-gram should not be generated")
	}
	// the full string is still emitted on top of the capped n-grams
	if _, ok := set["alpha bravo charlie delta echo foxtrot golf"]; !ok {
		t.Error("full normalized string should always be a candidate")
	}
}

func TestGenerateCandidates_ShortAndEmpty(t *testing.T) {
	tn := NewTextNormalizer()

	if got := tn.GenerateCandidates(""); len(got) != 0 {
		t.Errorf("empty input should produce no candidates, got %v", got)
	}

	// protected short words survive inside n-grams but never alone
	got := tn.GenerateCandidates("Bahr el Ghazal")
	set := candidateSet(got)
	if _, ok := set["el"]; ok {
		t.Error("bare protected word must be length-filtered")
	}
	if _, ok := set["bahr el ghazal"]; !ok {
		t.Errorf("full phrase missing from candidates: %v", got)
	}
	if _, ok := set["bahr el"]; !ok {
		t.Errorf("2-gram with protected word missing: %v", got)
	}
}
