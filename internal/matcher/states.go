package matcher

import (
	"strings"

	"github.com/ssd-geocoder/internal/normalizer"
)

// stateEntry is one known first-level unit with its normalized synonyms.
type stateEntry struct {
	name     string
	synonyms []string
}

// stateGazetteer lists the ten states and the three administrative areas.
// Synonyms cover abbreviations that survive normalization unexpanded.
var stateGazetteer = []stateEntry{
	{"central equatoria", []string{"central equatoria state", "ces"}},
	{"eastern equatoria", []string{"eastern equatoria state", "ees"}},
	{"western equatoria", []string{"western equatoria state", "wes"}},
	{"jonglei", []string{"jonglei state", "jgl"}},
	{"lakes", []string{"lakes state"}},
	{"northern bahr el ghazal", []string{"northern bahr el ghazal state", "nbeg", "nbgz"}},
	{"unity", []string{"unity state"}},
	{"upper nile", []string{"upper nile state", "uns"}},
	{"warrap", []string{"warrap state"}},
	{"western bahr el ghazal", []string{"western bahr el ghazal state", "wbeg", "wbgz"}},
	{"abyei administrative area", []string{"abyei", "abyei aa"}},
	{"greater pibor administrative area", []string{"greater pibor", "gpaa", "pibor administrative area"}},
	{"ruweng administrative area", []string{"ruweng", "ruweng aa"}},
}

// KnownStates returns the canonical state and administrative-area names.
func KnownStates() []string {
	out := make([]string, len(stateGazetteer))
	for i, e := range stateGazetteer {
		out[i] = e.name
	}
	return out
}

// StateSynonyms maps each abbreviation to its canonical state name, in the
// shape search-index synonym settings expect.
func StateSynonyms() map[string][]string {
	out := make(map[string][]string)
	for _, e := range stateGazetteer {
		for _, syn := range e.synonyms {
			out[syn] = append(out[syn], e.name)
		}
	}
	return out
}

// MatchState tests a normalized segment against the state gazetteer and
// returns the canonical name. Containment is token-bounded both ways, so
// "unity state" matches "unity" but "community" does not.
func MatchState(segment string) (string, bool) {
	seg := normalizer.Normalize(segment)
	if seg == "" {
		return "", false
	}
	// Partial segments ("pibor") may name a state by reverse containment,
	// but generic tokens ("area") must not.
	allowReverse := len(seg) >= 5 && !normalizer.IsStopWord(seg) &&
		seg != "administrative" && seg != "administrative area"
	for _, e := range stateGazetteer {
		if seg == e.name || containsTokens(seg, e.name) {
			return e.name, true
		}
		if allowReverse && containsTokens(e.name, seg) {
			return e.name, true
		}
		for _, syn := range e.synonyms {
			if seg == syn || containsTokens(seg, syn) {
				return e.name, true
			}
		}
	}
	return "", false
}

// containsTokens reports whether needle appears in haystack on word boundaries.
func containsTokens(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
