package matcher

import (
	"strings"

	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/internal/normalizer"
)

// layerKeywords maps constraint fields to the tokens that name them in free
// text. Scan order is fixed: the first field whose keyword appears claims
// the segment.
var layerKeywords = []struct {
	field string
	words []string
}{
	{"state", []string{"states", "state"}},
	{"county", []string{"counties", "county"}},
	{"payam", []string{"payams", "payam"}},
	{"boma", []string{"bomas", "boma"}},
	{"village", []string{"town", "village", "settlement", "city"}},
}

// villageSuffixes are stripped from a first segment before positional
// assignment to village.
var villageSuffixes = []string{"town", "village", "settlement"}

// countySuffixes are stripped from a second-to-last segment before
// positional assignment to county.
var countySuffixes = []string{"county", "town", "village"}

// ParseConstraints extracts hierarchical context from comma/semicolon
// separated text. Keyworded segments win first, then known state names,
// then conservative positional guesses for fields still empty. Ambiguous
// segments stay unset; wrong constraints cost more than missing ones.
func ParseConstraints(text string) models.Constraints {
	var cons models.Constraints
	segments := splitSegments(text)
	if len(segments) == 0 {
		return cons
	}

	used := make([]bool, len(segments))

	// keyword scan, then state gazetteer for keywordless segments
	for i, seg := range segments {
		if field, remainder, ok := matchKeyword(seg); ok {
			if remainder != "" {
				cons.Set(field, remainder)
				used[i] = true
			}
			continue
		}
		if state, ok := MatchState(seg); ok {
			cons.State = state
			used[i] = true
		}
	}

	// positional fallback needs at least two segments
	if len(segments) >= 2 {
		last := len(segments) - 1

		if cons.State == "" && !used[last] && !hasAnyKeyword(segments[last]) {
			// gazetteer only: an unrecognized trailing segment stays unset
			// rather than being guessed into a state
			if state, ok := MatchState(segments[last]); ok {
				cons.State = state
				used[last] = true
			}
		}

		if cons.County == "" && !used[last-1] {
			if v := stripSuffixes(segments[last-1], countySuffixes); v != "" && !hasLayerToken(v) {
				cons.County = v
			}
		}

		if cons.Village == "" && !used[0] {
			if v := stripSuffixes(segments[0], villageSuffixes); v != "" && !hasLayerToken(v) {
				cons.Village = v
			}
		}
	}

	// trailing "county" that slipped through every stage, including glued
	// forms like "abiemnhomcounty"
	if cons.County == "" {
		lastSeg := segments[len(segments)-1]
		if strings.Contains(lastSeg, "county") {
			v := strings.Join(strings.Fields(strings.ReplaceAll(lastSeg, "county", " ")), " ")
			v = normalizer.Normalize(v)
			if v != "" && !hasLayerToken(v) {
				cons.County = v
			}
		}
	}

	return cons
}

// splitSegments breaks text on commas and semicolons and normalizes each
// non-empty piece.
func splitSegments(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if seg := normalizer.Normalize(r); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// matchKeyword finds the first constraint field named in the segment and
// returns the segment with the keyword tokens removed.
func matchKeyword(seg string) (field, remainder string, ok bool) {
	for _, kw := range layerKeywords {
		for _, w := range kw.words {
			if containsTokens(seg, w) {
				return kw.field, removeTokens(seg, kw.words), true
			}
		}
	}
	return "", "", false
}

// hasAnyKeyword reports whether the segment names any non-state layer.
func hasAnyKeyword(seg string) bool {
	for _, kw := range layerKeywords {
		if kw.field == "state" {
			continue
		}
		for _, w := range kw.words {
			if containsTokens(seg, w) {
				return true
			}
		}
	}
	return false
}

// hasLayerToken reports whether any layer keyword, state included, survives
// in the segment. Such leftovers are too ambiguous for positional guessing.
func hasLayerToken(seg string) bool {
	for _, kw := range layerKeywords {
		for _, w := range kw.words {
			if containsTokens(seg, w) {
				return true
			}
		}
	}
	return false
}

// removeTokens drops every whole-token occurrence of the given words.
func removeTokens(seg string, words []string) string {
	tokens := strings.Fields(seg)
	out := tokens[:0]
	for _, t := range tokens {
		drop := false
		for _, w := range words {
			if t == w {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}

// stripSuffixes removes trailing suffix tokens, longest run first.
func stripSuffixes(seg string, suffixes []string) string {
	tokens := strings.Fields(seg)
	for len(tokens) > 0 {
		lastTok := tokens[len(tokens)-1]
		stripped := false
		for _, s := range suffixes {
			if lastTok == s {
				tokens = tokens[:len(tokens)-1]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return strings.Join(tokens, " ")
}
