package matcher

import (
	"testing"
)

// TestProgressiveMatch_ExactStage: normalized equality short-circuits at 1.0
func TestProgressiveMatch_ExactStage(t *testing.T) {
	candidates := []string{"juba", "abiemnhom", "wau"}

	hits, stage := ProgressiveMatch("Abiemnhom", candidates, 0.7, 5)
	if stage != StageExact {
		t.Fatalf("expected exact stage, got %s", stage)
	}
	if len(hits) != 1 || hits[0].Score != 1.0 || hits[0].Candidate != "abiemnhom" {
		t.Errorf("unexpected exact hits: %+v", hits)
	}

	// the correction tables feed exactness: a known misspelling still
	// lands an exact match on the canonical spelling
	hits, stage = ProgressiveMatch("Abiemnom", candidates, 0.7, 5)
	if stage != StageExact || len(hits) != 1 {
		t.Errorf("corrected misspelling should match exactly, got %s %+v", stage, hits)
	}
}

// TestProgressiveMatch_VeryHighStage: containment with close lengths clears
// 0.9 without the scorer's substring penalty
func TestProgressiveMatch_VeryHighStage(t *testing.T) {
	hits, stage := ProgressiveMatch("abiemnhoms", []string{"abiemnhom"}, 0.7, 5)
	if stage != StageVeryHigh {
		t.Fatalf("expected very_high stage, got %s (hits %+v)", stage, hits)
	}
	if len(hits) != 1 || hits[0].Score < 0.9 {
		t.Errorf("unexpected very_high hits: %+v", hits)
	}
}

// TestProgressiveMatch_VeryHighDoublesLimit: the very_high tier returns up
// to twice the caller limit
func TestProgressiveMatch_VeryHighDoublesLimit(t *testing.T) {
	candidates := []string{"abiemnhom", "abiemnhomz"}
	hits, stage := ProgressiveMatch("abiemnhoms", candidates, 0.7, 1)
	if stage != StageVeryHigh {
		t.Fatalf("expected very_high stage, got %s", stage)
	}
	if len(hits) != 2 {
		t.Errorf("very_high should honor the doubled limit, got %d hits", len(hits))
	}
}

func TestProgressiveMatch_MediumHighStage(t *testing.T) {
	// mid-word differences keep Jaro-Winkler under 0.9 while the blend
	// stays above 0.8
	hits, stage := ProgressiveMatch("kediba", []string{"kobida"}, 0.7, 5)
	if stage != StageMediumHigh {
		t.Fatalf("expected medium_high stage, got %s (hits %+v)", stage, hits)
	}
	if len(hits) != 1 || hits[0].Score < 0.8 || hits[0].Score >= 0.9 {
		t.Errorf("unexpected medium_high hits: %+v", hits)
	}
}

// TestProgressiveMatch_BaseUsesCallerThreshold: the base tier honors the
// threshold handed in by the caller
func TestProgressiveMatch_BaseUsesCallerThreshold(t *testing.T) {
	// yubo/juba sits near 0.67: below the default base, above 0.6
	hits, stage := ProgressiveMatch("yubo", []string{"juba"}, 0.6, 5)
	if stage != StageBase {
		t.Fatalf("expected base stage at caller threshold 0.6, got %s (hits %+v)", stage, hits)
	}
	if len(hits) != 1 {
		t.Errorf("expected one base hit, got %+v", hits)
	}
}

// TestProgressiveMatch_LowStageShortQueriesOnly: the 0.5 tier is reserved
// for short queries
func TestProgressiveMatch_LowStageShortQueriesOnly(t *testing.T) {
	// short query: low tier fires
	hits, stage := ProgressiveMatch("yubo", []string{"juba"}, 0.7, 5)
	if stage != StageLow {
		t.Fatalf("short query should reach the low tier, got %s (hits %+v)", stage, hits)
	}
	if len(hits) != 1 {
		t.Errorf("expected one low hit, got %+v", hits)
	}

	// long query with the same weak affinity: nothing
	hits, stage = ProgressiveMatch("yubo river camp", []string{"juba"}, 0.7, 5)
	if stage != StageNone || len(hits) != 0 {
		t.Errorf("long queries must not take low-tier matches, got %s %+v", stage, hits)
	}
}

func TestProgressiveMatch_Empty(t *testing.T) {
	if hits, stage := ProgressiveMatch("", []string{"juba"}, 0.7, 5); len(hits) != 0 || stage != StageNone {
		t.Errorf("empty query: got %s %+v", stage, hits)
	}
	if hits, stage := ProgressiveMatch("juba", nil, 0.7, 5); len(hits) != 0 || stage != StageNone {
		t.Errorf("no candidates: got %s %+v", stage, hits)
	}
}

func TestPenalizeShortPairs(t *testing.T) {
	hits := []Scored{
		{Index: 0, Candidate: "abcdefghij", Score: 0.95}, // 10 chars vs 5: under the 60% ratio
		{Index: 1, Candidate: "abcde", Score: 0.92},      // equal length: untouched
	}
	out := penalizeShortPairs("abcde", hits)

	if out[0].Candidate != "abcde" {
		t.Errorf("penalty should demote the length-mismatched pair, got %+v", out)
	}
	var penalized Scored
	for _, h := range out {
		if h.Candidate == "abcdefghij" {
			penalized = h
		}
	}
	want := 0.95 * 0.7
	if penalized.Score < want-1e-9 || penalized.Score > want+1e-9 {
		t.Errorf("expected penalized score %f, got %f", want, penalized.Score)
	}

	// inputs stay untouched
	if hits[0].Score != 0.95 {
		t.Errorf("penalizeShortPairs mutated its input: %+v", hits[0])
	}
}
