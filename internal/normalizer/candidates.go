package normalizer

import (
	"strings"

	"github.com/ssd-geocoder/app/config"
)

// stopWords are generic location words that never identify a place on their own.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "in": {}, "at": {}, "near": {},
	"area": {}, "town": {}, "village": {}, "county": {}, "state": {},
	"payam": {}, "boma": {}, "camp": {}, "site": {},
}

// IsStopWord reports whether w is a generic location word.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// GenerateCandidates derives the lookup strings for a raw text with the
// package default normalizer.
func GenerateCandidates(text string) []string {
	return defaultNormalizer.GenerateCandidates(text)
}

// GenerateCandidates normalizes text and emits every single word, every
// contiguous n-gram up to the configured length, and the full string.
// Entries below the minimum length or in the stop-word set are dropped.
// The result is duplicate-free; order carries no meaning.
func (tn *TextNormalizer) GenerateCandidates(text string) []string {
	normalized := tn.Normalize(text)
	if normalized == "" {
		return nil
	}

	minLen := config.C.Candidates.MinLen
	if minLen <= 0 {
		minLen = 3
	}
	maxNgram := config.C.Candidates.MaxNgram
	if maxNgram <= 0 {
		maxNgram = 5
	}

	words := strings.Fields(normalized)
	seen := make(map[string]struct{})
	out := make([]string, 0, len(words)*2)

	add := func(c string) {
		if len([]rune(c)) < minLen {
			return
		}
		if IsStopWord(c) {
			return
		}
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	for _, w := range words {
		if len(w) >= 2 {
			add(w)
		}
	}
	for n := 2; n <= maxNgram && n <= len(words); n++ {
		for i := 0; i+n <= len(words); i++ {
			add(strings.Join(words[i:i+n], " "))
		}
	}
	add(normalized)

	return out
}
