package requests

import (
	"encoding/json"

	"github.com/ssd-geocoder/app/models"
)

// GeocodeRequest resolves one free-form place text.
type GeocodeRequest struct {
	Text    string         `json:"text" binding:"required"`
	Options GeocodeOptions `json:"options,omitempty"`
}

// GeocodeOptions tunes a single resolution.
type GeocodeOptions struct {
	UseCache        *bool   `json:"use_cache,omitempty"`        // omitted means on
	MaxAlternatives int     `json:"max_alternatives,omitempty"` // 0 keeps the configured limit, negative disables
	MinScore        float64 `json:"min_score,omitempty"`        // alternatives below this score are dropped
}

// BatchGeocodeRequest queues a list of texts for background resolution.
type BatchGeocodeRequest struct {
	Texts   []string       `json:"texts" binding:"required,min=1,max=20000"`
	Options GeocodeOptions `json:"options,omitempty"`
}

// SeedFeature is one gazetteer record plus its optional GeoJSON geometry.
type SeedFeature struct {
	models.Feature
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// SeedGazetteerRequest loads a gazetteer snapshot.
type SeedGazetteerRequest struct {
	GazetteerVersion string        `json:"gazetteer_version" binding:"required"`
	Features         []SeedFeature `json:"features" binding:"required"`
	RebuildIndexes   bool          `json:"rebuild_indexes,omitempty"`
}

// ReviewDecisionRequest approves or rejects a queued review.
type ReviewDecisionRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"`
}

// ReviewCorrectRequest closes a review with a corrected result.
type ReviewCorrectRequest struct {
	ManualResult models.GeocodeResult `json:"manual_result" binding:"required"`
	LearnAlias   bool                 `json:"learn_alias,omitempty"`
	ReviewerID   string               `json:"reviewer_id" binding:"required"`
}
