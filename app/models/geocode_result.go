package models

// MatchCandidate is one scored gazetteer match. Candidates are value
// objects: boosting and re-ranking build new ones instead of mutating.
type MatchCandidate struct {
	Layer     Layer           `json:"layer"`
	FeatureID string          `json:"feature_id"`
	Name      string          `json:"name"`
	Score     float64         `json:"score"` // 0..1
	Alias     string          `json:"alias,omitempty"` // alias that matched, if not the canonical name
	Hierarchy *AdminHierarchy `json:"hierarchy,omitempty"`
}

// WithScore returns a copy of m carrying the given score.
func (m MatchCandidate) WithScore(score float64) MatchCandidate {
	m.Score = score
	return m
}

// GeocodeResult is the external contract of a resolution. A result is
// always produced, even for unresolvable input (score 0, empty layer).
type GeocodeResult struct {
	InputText      string `json:"input_text"`
	NormalizedText string `json:"normalized_text"`

	ResolvedLayer Layer   `json:"resolved_layer,omitempty"` // "" when nothing matched
	FeatureID     string  `json:"feature_id,omitempty"`
	MatchedName   string  `json:"matched_name,omitempty"`
	Score         float64 `json:"score"`

	// Both set or both nil. County/state resolutions never carry coordinates.
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`

	State   string `json:"state,omitempty"`
	County  string `json:"county,omitempty"`
	Payam   string `json:"payam,omitempty"`
	Boma    string `json:"boma,omitempty"`
	Village string `json:"village,omitempty"`

	ResolutionTooCoarse bool `json:"resolution_too_coarse"`

	Alternatives []MatchCandidate `json:"alternatives,omitempty"`

	GazetteerVersion string `json:"gazetteer_version,omitempty"`
}

// Matched reports whether the result carries a resolved feature.
func (r *GeocodeResult) Matched() bool {
	return r.ResolvedLayer != "" && r.Score > 0
}

// Hierarchy returns the admin hierarchy fields as a struct.
func (r *GeocodeResult) Hierarchy() AdminHierarchy {
	return AdminHierarchy{
		State:  r.State,
		County: r.County,
		Payam:  r.Payam,
		Boma:   r.Boma,
	}
}

// SetHierarchy copies h into the flat result fields. Village is kept as is.
func (r *GeocodeResult) SetHierarchy(h AdminHierarchy) {
	r.State = h.State
	r.County = h.County
	r.Payam = h.Payam
	r.Boma = h.Boma
}

// SetCoordinates sets both coordinates from plain values.
func (r *GeocodeResult) SetCoordinates(lon, lat float64) {
	r.Lon = &lon
	r.Lat = &lat
}

// HasCoordinates reports whether both coordinates are present.
func (r *GeocodeResult) HasCoordinates() bool {
	return r.Lon != nil && r.Lat != nil
}
