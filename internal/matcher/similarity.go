package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"github.com/ssd-geocoder/app/config"
	"github.com/ssd-geocoder/internal/normalizer"
)

// Scored pairs a candidate string (by position in the scored list) with its
// similarity score in [0,1].
type Scored struct {
	Index     int     `json:"index"`
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// levRatio converts edit distance to a similarity ratio in [0,1].
func levRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := math.Max(float64(len(a)), float64(len(b)))
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/maxLen
}

// sortTokens rebuilds s with its words in sorted order
func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// TokenSortRatio compares two strings ignoring word order: both sides are
// tokenized, sorted and rejoined before the edit-distance ratio.
func TokenSortRatio(a, b string) float64 {
	return levRatio(sortTokens(a), sortTokens(b))
}

// PartialRatio slides the shorter string over every same-length window of
// the longer and keeps the best edit-distance ratio.
func PartialRatio(a, b string) float64 {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		if len(longer) == 0 {
			return 1.0
		}
		return 0.0
	}
	best := 0.0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		if r := levRatio(shorter, longer[i:i+len(shorter)]); r > best {
			best = r
			if best == 1.0 {
				break
			}
		}
	}
	return best
}

// WeightedRatio blends the strategies: plain edit ratio, Jaro-Winkler,
// discounted token-sort and discounted partial. The best blend wins.
func WeightedRatio(a, b string) float64 {
	best := levRatio(a, b)
	if jw := smetrics.JaroWinkler(a, b, 0.7, 4); jw > best {
		best = jw
	}
	if ts := 0.95 * TokenSortRatio(a, b); ts > best {
		best = ts
	}
	if pr := 0.90 * PartialRatio(a, b); pr > best {
		best = pr
	}
	return best
}

// substringPenalty returns the multiplier applied when one string fully
// contains the other but the shorter is under the configured share of the
// longer's length. Truncated fragments ("abi" vs "abiemnhom") must not
// outrank honest near-misses.
func substringPenalty(query, candidate string) float64 {
	if query == "" || candidate == "" || query == candidate {
		return 1.0
	}
	if !strings.Contains(query, candidate) && !strings.Contains(candidate, query) {
		return 1.0
	}
	shortLen, longLen := len(query), len(candidate)
	if shortLen > longLen {
		shortLen, longLen = longLen, shortLen
	}
	if float64(shortLen) >= config.C.Penalties.ShortRatio*float64(longLen) {
		return 1.0
	}
	if len(query) > len(candidate) {
		return config.C.Penalties.SubstringLongQuery
	}
	return config.C.Penalties.SubstringLongCandidate
}

// scoreNormalized runs the three metrics on already-normalized strings,
// applies the substring penalty to each and keeps the maximum.
func scoreNormalized(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0.0
	}
	penalty := substringPenalty(query, candidate)
	best := TokenSortRatio(query, candidate) * penalty
	if s := PartialRatio(query, candidate) * penalty; s > best {
		best = s
	}
	if s := WeightedRatio(query, candidate) * penalty; s > best {
		best = s
	}
	if best < 0 {
		best = 0
	}
	if best > 1 {
		best = 1
	}
	return best
}

// Score computes the similarity of two raw strings in [0,1].
func Score(query, candidate string) float64 {
	return scoreNormalized(normalizer.Normalize(query), normalizer.Normalize(candidate))
}

// ScoreAll scores a raw query against pre-normalized candidate strings and
// returns every pairing sorted by score descending (ties keep input order).
func ScoreAll(query string, candidates []string) []Scored {
	q := normalizer.Normalize(query)
	if q == "" || len(candidates) == 0 {
		return nil
	}
	scored := make([]Scored, 0, len(candidates))
	for i, c := range candidates {
		scored = append(scored, Scored{Index: i, Candidate: c, Score: scoreNormalized(q, c)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
