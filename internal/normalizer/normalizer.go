package normalizer

import (
	"regexp"
	"strings"
)

// replacement is one ordered rewrite rule applied on space-padded text.
type replacement struct {
	from string
	to   string
}

// expansions rewrites regional abbreviations to full admin names. Keys are
// space-padded whole tokens; multi-word keys come first so they win over
// their single-token prefixes.
var expansions = []replacement{
	{" c. equatoria ", " central equatoria "},
	{" e. equatoria ", " eastern equatoria "},
	{" w. equatoria ", " western equatoria "},
	{" c equatoria ", " central equatoria "},
	{" e equatoria ", " eastern equatoria "},
	{" w equatoria ", " western equatoria "},
	{" n. bahr el ghazal ", " northern bahr el ghazal "},
	{" w. bahr el ghazal ", " western bahr el ghazal "},
	{" n bahr el ghazal ", " northern bahr el ghazal "},
	{" w bahr el ghazal ", " western bahr el ghazal "},
	{" c.e.s. ", " central equatoria "},
	{" e.e.s. ", " eastern equatoria "},
	{" w.e.s. ", " western equatoria "},
	{" c e s ", " central equatoria "},
	{" e e s ", " eastern equatoria "},
	{" w e s ", " western equatoria "},
	{" ces ", " central equatoria "},
	{" ees ", " eastern equatoria "},
	{" wes ", " western equatoria "},
	{" nbeg ", " northern bahr el ghazal "},
	{" nbgz ", " northern bahr el ghazal "},
	{" wbeg ", " western bahr el ghazal "},
	{" wbgz ", " western bahr el ghazal "},
	{" uns ", " upper nile "},
	{" jgl ", " jonglei "},
	{" equitoria ", " equatoria "},
	{" equateria ", " equatoria "},
}

// corrections rewrites recurring field-report misspellings to the gazetteer
// spelling. Same padded whole-token convention as expansions.
var corrections = []replacement{
	{" bahr al ghazal ", " bahr el ghazal "},
	{" bahr el gazal ", " bahr el ghazal "},
	{" bahr el ghazel ", " bahr el ghazal "},
	{" kajo kaji ", " kajo keji "},
	{" kajokeji ", " kajo keji "},
	{" abiemnom ", " abiemnhom "},
	{" abyemnom ", " abiemnhom "},
	{" panriang ", " pariang "},
	{" panrieng ", " pariang "},
	{" malakel ", " malakal "},
	{" terkeka ", " terekeka "},
	{" kapoita ", " kapoeta "},
	{" rumbeck ", " rumbek "},
	{" aweel ", " aweil "},
	{" magwe ", " magwi "},
	{" ikwoto ", " ikotos "},
	{" pochala ", " pochalla "},
	{" maiwot ", " maiwut "},
	{" twich ", " twic "},
	{" nassir ", " nasir "},
}

// protectedWords survive table rewriting and punctuation stripping intact.
// "el"/"al" are structural in transliterated names like "bahr el ghazal".
var protectedWords = []string{"el", "al"}

// TextNormalizer canonicalizes free-form place text for matching.
type TextNormalizer struct {
	reSpaces *regexp.Regexp
	rePunct  *regexp.Regexp
}

// NewTextNormalizer builds a TextNormalizer
func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{
		reSpaces: regexp.MustCompile(`\s+`),
		rePunct:  regexp.MustCompile(`[^a-z0-9\s]+`),
	}
}

// defaultNormalizer backs the package-level helpers.
var defaultNormalizer = NewTextNormalizer()

// Normalize canonicalizes text with the package default normalizer.
func Normalize(text string) string {
	return defaultNormalizer.Normalize(text)
}

// Normalize canonicalizes place text: ASCII fold, lowercase, abbreviation
// expansion, misspelling correction, punctuation strip, space collapse.
// The tables run before punctuation stripping (keys may carry punctuation,
// "e.e.s.") and once more after it, so keys unmasked by the strip still
// rewrite. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func (tn *TextNormalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	// 1. NFD → strip marks → NFC → ASCII transliteration
	s := FoldToASCII(text)

	// 2. lowercase, pad for whole-token table rewriting
	s = " " + strings.ToLower(s) + " "
	s = tn.reSpaces.ReplaceAllString(s, " ")

	// 3. expansion and correction tables
	s = applyTables(s)

	// 4. shield protected words, strip punctuation to spaces, restore
	for i, w := range protectedWords {
		s = strings.ReplaceAll(s, " "+w+" ", " qqprot"+placeholderDigit(i)+" ")
	}
	s = tn.rePunct.ReplaceAllString(s, " ")
	for i, w := range protectedWords {
		s = strings.ReplaceAll(s, " qqprot"+placeholderDigit(i)+" ", " "+w+" ")
	}

	// 5. re-pad, tables once more for keys the strip uncovered
	s = tn.reSpaces.ReplaceAllString(s, " ")
	s = applyTables(s)

	// 6. collapse whitespace
	return strings.TrimSpace(tn.reSpaces.ReplaceAllString(s, " "))
}

// applyTables runs the expansion and correction rules over padded text.
func applyTables(s string) string {
	for _, r := range expansions {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	for _, r := range corrections {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	return s
}

// placeholderDigit keeps placeholders alphanumeric so the punctuation pass
// cannot break them apart.
func placeholderDigit(i int) string {
	return string(rune('0' + i))
}

// NormalizeBatch normalizes many texts at once
func (tn *TextNormalizer) NormalizeBatch(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = tn.Normalize(t)
	}
	return out
}
