// Package external holds optional candidate extractors. Extraction is a
// best-effort aid to recall: extracted strings join the deterministic
// candidate set, and extracted hierarchy hints fill only the constraint
// fields the keyword parser left empty. A failed or absent extractor never
// blocks resolution.
package external

import (
	"context"

	"github.com/ssd-geocoder/app/models"
)

// ExtractedCandidates holds per-level place name guesses from an extractor.
type ExtractedCandidates struct {
	States   []string `json:"states"`
	Counties []string `json:"counties"`
	Payams   []string `json:"payams"`
	Bomas    []string `json:"bomas"`
	Villages []string `json:"villages"`
	// Coverage is the fraction of input words the extractor labeled.
	Coverage float64 `json:"coverage"`
}

// Empty reports whether extraction produced nothing usable.
func (e *ExtractedCandidates) Empty() bool {
	if e == nil {
		return true
	}
	return len(e.States) == 0 && len(e.Counties) == 0 && len(e.Payams) == 0 &&
		len(e.Bomas) == 0 && len(e.Villages) == 0
}

// Strings flattens the per-level lists, most specific first, deduplicated.
func (e *ExtractedCandidates) Strings() []string {
	if e == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, group := range [][]string{e.Villages, e.Bomas, e.Payams, e.Counties, e.States} {
		for _, s := range group {
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// FillConstraints returns cons with empty fields filled from the first
// extracted value per level. Deterministic constraint values always win.
func (e *ExtractedCandidates) FillConstraints(cons models.Constraints) models.Constraints {
	if e == nil {
		return cons
	}
	if cons.State == "" && len(e.States) > 0 {
		cons.State = e.States[0]
	}
	if cons.County == "" && len(e.Counties) > 0 {
		cons.County = e.Counties[0]
	}
	if cons.Payam == "" && len(e.Payams) > 0 {
		cons.Payam = e.Payams[0]
	}
	if cons.Boma == "" && len(e.Bomas) > 0 {
		cons.Boma = e.Bomas[0]
	}
	if cons.Village == "" && len(e.Villages) > 0 {
		cons.Village = e.Villages[0]
	}
	return cons
}

// CandidateExtractor produces place name candidates from raw text.
type CandidateExtractor interface {
	Extract(ctx context.Context, text string) (*ExtractedCandidates, error)
}

// Disabled is the no-op extractor used when extraction is switched off.
type Disabled struct{}

// Extract returns an empty result.
func (Disabled) Extract(context.Context, string) (*ExtractedCandidates, error) {
	return &ExtractedCandidates{}, nil
}
