package matcher

import (
	"sort"
	"strings"

	"github.com/ssd-geocoder/app/config"
	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/internal/normalizer"
)

// Boost re-scores matches against the parsed constraints and returns a new
// slice sorted by boosted score. The input candidates are never mutated.
//
// State and county constraints both reward agreement and punish conflict;
// a wrong-state match must not survive re-ranking. Payam and boma are
// parsed too unreliably to punish, so they only reward. A small
// layer-specificity bonus prefers more specific layers on ties.
func Boost(matches []models.MatchCandidate, cons models.Constraints) []models.MatchCandidate {
	if len(matches) == 0 {
		return nil
	}
	b := config.C.Boosts
	out := make([]models.MatchCandidate, 0, len(matches))
	for _, m := range matches {
		score := m.Score

		score += hierarchyDelta(cons.State, hierarchyField(m, "state"), "state", b.StateAgree, b.StateConflict)
		score += hierarchyDelta(cons.County, hierarchyField(m, "county"), "county", b.CountyAgree, b.CountyConflict)
		score += hierarchyDelta(cons.Payam, hierarchyField(m, "payam"), "payam", b.PayamAgree, 0)
		score += hierarchyDelta(cons.Boma, hierarchyField(m, "boma"), "boma", b.BomaAgree, 0)

		score += b.LayerBoost(string(m.Layer))

		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		out = append(out, m.WithScore(score))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// hierarchyField reads one level off the candidate's hierarchy snapshot,
// falling back to the matched name when the candidate's own layer is asked.
func hierarchyField(m models.MatchCandidate, field string) string {
	if m.Layer.HierarchyField() == field && m.Name != "" {
		return m.Name
	}
	if m.Hierarchy == nil {
		return ""
	}
	return m.Hierarchy.Get(field)
}

// hierarchyDelta compares one constraint level with the candidate's value:
// +agree on agreement, -conflict when both sides are set and disagree,
// 0 when either side is missing.
func hierarchyDelta(want, have, layerWord string, agree, conflict float64) float64 {
	if want == "" || have == "" {
		return 0
	}
	if NamesAgree(want, have, layerWord) {
		return agree
	}
	return -conflict
}

// NamesAgree compares two admin names after normalization and layer-word
// stripping. Containment counts either way: "unity" agrees with "unity state".
func NamesAgree(a, b, layerWord string) bool {
	na := stripLayerWord(normalizer.Normalize(a), layerWord)
	nb := stripLayerWord(normalizer.Normalize(b), layerWord)
	if na == "" || nb == "" {
		return false
	}
	return na == nb || containsTokens(na, nb) || containsTokens(nb, na)
}

// stripLayerWord removes the layer's own keyword tokens ("state" in
// "unity state") before comparison.
func stripLayerWord(s, layerWord string) string {
	if layerWord == "" {
		return s
	}
	return strings.TrimSpace(removeTokens(s, []string{layerWord, layerWord + "s"}))
}
