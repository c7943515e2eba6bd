package matcher

import (
	"sort"
	"strings"

	"github.com/ssd-geocoder/app/config"
	"github.com/ssd-geocoder/internal/normalizer"
)

// MatchStage names the progressive tier that produced a match set.
type MatchStage string

const (
	StageExact      MatchStage = "exact"
	StageVeryHigh   MatchStage = "very_high"
	StageMediumHigh MatchStage = "medium_high"
	StageBase       MatchStage = "base"
	StageLow        MatchStage = "low"
	StageNone       MatchStage = "none"
)

// ProgressiveMatch evaluates query against pre-normalized candidates in
// confidence tiers and returns the first tier that yields anything. A single
// strong early match beats several weak late ones, so tiers never merge.
func ProgressiveMatch(query string, candidates []string, baseThreshold float64, limit int) ([]Scored, MatchStage) {
	q := normalizer.Normalize(query)
	if q == "" || len(candidates) == 0 {
		return nil, StageNone
	}
	if baseThreshold <= 0 {
		baseThreshold = config.C.Thresholds.Base
	}
	if limit <= 0 {
		limit = config.C.SearchLimit
	}

	// 1. Exact: normalized equality, fixed score
	if exact := exactMatches(q, candidates, limit); len(exact) > 0 {
		return exact, StageExact
	}

	scored := ScoreAll(q, candidates)

	// 2. Very high: doubled result count, then an extra length-ratio
	// penalty to suppress abbreviation collisions at this tier
	if hits := takeAbove(scored, config.C.Thresholds.VeryHigh, limit*2); len(hits) > 0 {
		return penalizeShortPairs(q, hits), StageVeryHigh
	}

	// 3. Medium high
	if hits := takeAbove(scored, config.C.Thresholds.MediumHigh, limit); len(hits) > 0 {
		return hits, StageMediumHigh
	}

	// 4. Base (caller threshold)
	if hits := takeAbove(scored, baseThreshold, limit); len(hits) > 0 {
		return hits, StageBase
	}

	// 5. Low confidence, short queries only: long specific names must not
	// latch onto loose matches
	if isShortQuery(q) {
		if hits := takeAbove(scored, config.C.Thresholds.Low, limit); len(hits) > 0 {
			return hits, StageLow
		}
	}

	return nil, StageNone
}

// exactMatches collects candidates equal to the normalized query.
func exactMatches(q string, candidates []string, limit int) []Scored {
	var out []Scored
	for i, c := range candidates {
		if c == q {
			out = append(out, Scored{Index: i, Candidate: c, Score: 1.0})
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// takeAbove copies the leading entries of a descending-sorted score list
// that clear the threshold, up to limit.
func takeAbove(scored []Scored, threshold float64, limit int) []Scored {
	var out []Scored
	for _, s := range scored {
		if s.Score < threshold {
			break
		}
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// penalizeShortPairs discounts very-high matches whose lengths diverge too
// far and re-sorts. Works on copies; the input scores stay untouched.
func penalizeShortPairs(q string, hits []Scored) []Scored {
	ratio := config.C.Penalties.VeryHighRatio
	factor := config.C.Penalties.VeryHighFactor
	out := make([]Scored, len(hits))
	for i, h := range hits {
		shortLen, longLen := len(q), len(h.Candidate)
		if shortLen > longLen {
			shortLen, longLen = longLen, shortLen
		}
		if longLen > 0 && float64(shortLen) < ratio*float64(longLen) {
			h.Score *= factor
		}
		out[i] = h
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// isShortQuery gates the low-confidence tier.
func isShortQuery(q string) bool {
	return len(strings.Fields(q)) <= config.C.Candidates.ShortWords ||
		len(q) <= config.C.Candidates.ShortChars
}
