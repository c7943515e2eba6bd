package normalizer

import (
	"testing"
)

// TestNormalize_CanonicalForms checks the full pipeline on field-report text
func TestNormalize_CanonicalForms(t *testing.T) {
	tn := NewTextNormalizer()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain_Settlement_Line",
			input:    "Abiemnom Town, Abiemnom County, Unity",
			expected: "abiemnhom town abiemnhom county unity",
		},
		{
			name:     "State_Abbreviation",
			input:    "Yei, CES",
			expected: "yei central equatoria",
		},
		{
			name:     "Dotted_Acronym",
			input:    "Torit, E.E.S.",
			expected: "torit eastern equatoria",
		},
		{
			name:     "Bahr_El_Ghazal_Abbrev",
			input:    "Aweil Centre, NBeG",
			expected: "aweil centre northern bahr el ghazal",
		},
		{
			name:     "Hyphenated_Protected_Word",
			input:    "Bahr-el-Ghazal",
			expected: "bahr el ghazal",
		},
		{
			name:     "Arabic_Article_Variant",
			input:    "Bahr al Ghazal",
			expected: "bahr el ghazal",
		},
		{
			name:     "Misspelling_Correction",
			input:    "Panriang, Ruweng",
			expected: "pariang ruweng",
		},
		{
			name:     "Diacritics_Stripped",
			input:    "Wāu Tówn",
			expected: "wau town",
		},
		{
			name:     "Punctuation_And_Case",
			input:    "  KAJO-KEJI  (county) ",
			expected: "kajo keji county",
		},
		{
			name:     "Empty_Input",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tn.Normalize(tc.input)
			if got != tc.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
			}
			t.Logf("Input: %s → Normalized: %s", tc.input, got)
		})
	}
}

// TestNormalize_Idempotent ensures a second pass never changes the result
func TestNormalize_Idempotent(t *testing.T) {
	tn := NewTextNormalizer()

	inputs := []string{
		"Abiemnom Town, Abiemnom County, Unity",
		"Mayom; Unity State",
		"N. Bahr el Ghazal",
		"Kajokeji",
		"Juba - Central Equatoria (CES)",
	}

	for _, input := range inputs {
		once := tn.Normalize(input)
		twice := tn.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalize_ProtectedWords(t *testing.T) {
	tn := NewTextNormalizer()

	got := tn.Normalize("Hai el Amarat, Bahr el Ghazal")
	want := "hai el amarat bahr el ghazal"
	if got != want {
		t.Errorf("protected words mangled: got %q, want %q", got, want)
	}
}

func TestNormalizeBatch(t *testing.T) {
	tn := NewTextNormalizer()

	got := tn.NormalizeBatch([]string{"Wau", "Abiemnom", ""})
	want := []string{"wau", "abiemnhom", ""}
	if len(got) != len(want) {
		t.Fatalf("NormalizeBatch returned %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeBatch[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFoldToASCII(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Wāu", "Wau"},
		{"Mólo", "Molo"},
		{"plain", "plain"},
	}
	for _, tc := range testCases {
		if got := FoldToASCII(tc.input); got != tc.expected {
			t.Errorf("FoldToASCII(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
