package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LearnedAlias maps a spelling seen in real inputs to a gazetteer feature.
// Aliases come from approved review corrections or manual curation and are
// merged into the feature's alias list when indexes are rebuilt.
type LearnedAlias struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Alias         string             `bson:"alias" json:"alias"`
	CanonicalName string             `bson:"canonical_name" json:"canonical_name"`
	Layer         Layer              `bson:"layer" json:"layer"`
	FeatureID     string             `bson:"feature_id" json:"feature_id"`
	Confidence    float64            `bson:"confidence" json:"confidence"`
	Source        string             `bson:"source" json:"source"`
	UsageCount    int                `bson:"usage_count" json:"usage_count"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	LastUsed      time.Time          `bson:"last_used" json:"last_used"`
}

// Alias sources.
const (
	SourceManual      = "manual"
	SourceAutoLearned = "auto_learned"
)

// NewLearnedAlias records an alias with the default confidence.
func NewLearnedAlias(alias, canonicalName string, layer Layer, featureID, source string) *LearnedAlias {
	now := time.Now()
	return &LearnedAlias{
		Alias:         alias,
		CanonicalName: canonicalName,
		Layer:         layer,
		FeatureID:     featureID,
		Confidence:    0.8,
		Source:        source,
		UsageCount:    1,
		CreatedAt:     now,
		LastUsed:      now,
	}
}

// IsValidSource reports whether the source is one of the known values.
func (la *LearnedAlias) IsValidSource() bool {
	return la.Source == SourceManual || la.Source == SourceAutoLearned
}

// UpdateUsage bumps the usage bookkeeping.
func (la *LearnedAlias) UpdateUsage() {
	la.UsageCount++
	la.LastUsed = time.Now()
}

// IsHighConfidence reports whether the alias is trusted enough to merge into
// the search indexes.
func (la *LearnedAlias) IsHighConfidence() bool {
	return la.Confidence >= 0.8
}
