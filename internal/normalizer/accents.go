package normalizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks without touching base letters
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

// isMn reports whether the rune is a combining diacritic mark
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// FoldToASCII strips diacritics and transliterates the remainder to ASCII.
// Arabic-script place names common in source documents come out as plain
// Latin so the matcher compares like with like.
func FoldToASCII(s string) string {
	return unidecode.Unidecode(StripDiacritics(s))
}

// FoldAndLowercase folds to ASCII and lowercases
func FoldAndLowercase(s string) string {
	return strings.ToLower(FoldToASCII(s))
}
