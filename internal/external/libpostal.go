//go:build cgo

package external

import (
	"context"
	"strings"

	"github.com/openvenues/gopostal/expand"
	"github.com/openvenues/gopostal/parser"
	"go.uber.org/zap"
)

// libpostalExtractor parses place text locally with libpostal. Its label set
// targets street addresses, so the mapping to admin levels is loose: state
// stays state, state_district stands in for county, city_district for payam,
// suburb for boma, and city/road/house all land in villages since rural
// settlement names get labeled as any of the three.
type libpostalExtractor struct {
	logger *zap.Logger
}

// NewLibpostalExtractor returns the libpostal-backed extractor.
func NewLibpostalExtractor(logger *zap.Logger) (CandidateExtractor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &libpostalExtractor{logger: logger}, nil
}

// Extract expands and parses the text through libpostal.
func (x *libpostalExtractor) Extract(_ context.Context, text string) (*ExtractedCandidates, error) {
	opts := expand.DefaultOptions()
	opts.Languages = []string{"en"}
	exps := expand.ExpandAddress(text, opts)
	best := text
	if len(exps) > 0 {
		best = exps[0]
	}

	comps := parser.ParseAddress(best)
	out := &ExtractedCandidates{}
	covered, total := 0, len(strings.Fields(best))
	for _, c := range comps {
		if c.Value == "" {
			continue
		}
		switch c.Label {
		case "state":
			out.States = append(out.States, c.Value)
		case "state_district":
			out.Counties = append(out.Counties, c.Value)
		case "city_district":
			out.Payams = append(out.Payams, c.Value)
		case "suburb":
			out.Bomas = append(out.Bomas, c.Value)
		case "city", "road", "house":
			out.Villages = append(out.Villages, c.Value)
		default:
			continue
		}
		covered += len(strings.Fields(c.Value))
	}
	if total > 0 {
		out.Coverage = float64(covered) / float64(total)
	}
	return out, nil
}
