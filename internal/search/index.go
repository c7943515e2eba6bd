// Package search provides the gazetteer feature index consumed by the
// resolution pipeline: an in-process index for tests and small deployments,
// a Meilisearch-backed index for production, and the Mongo feature store
// feeding both.
package search

import (
	"context"
	"errors"

	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/internal/matcher"
	"github.com/ssd-geocoder/internal/spatial"
)

// ErrNotFound is returned when a feature or its geometry is absent.
var ErrNotFound = errors.New("feature not found")

// SearchQuery asks the index for features matching Text.
type SearchQuery struct {
	Text        string
	Layer       models.Layer // empty searches every layer
	Threshold   float64      // 0 falls back to the configured base threshold
	Limit       int          // 0 falls back to the configured search limit
	Constraints models.Constraints
}

// IndexMatch is one scored index hit.
type IndexMatch struct {
	Layer     models.Layer
	FeatureID string
	Name      string
	Alias     string // the alias that matched, when not the canonical name
	Score     float64
	Hierarchy models.AdminHierarchy
}

// Candidate converts the hit into a match candidate for boosting.
func (m IndexMatch) Candidate() models.MatchCandidate {
	h := m.Hierarchy
	return models.MatchCandidate{
		Layer:     m.Layer,
		FeatureID: m.FeatureID,
		Name:      m.Name,
		Alias:     m.Alias,
		Score:     m.Score,
		Hierarchy: &h,
	}
}

// FeatureIndex is the name and feature lookup the pipeline resolves against.
type FeatureIndex interface {
	Search(ctx context.Context, q SearchQuery) ([]IndexMatch, error)
	GetFeature(ctx context.Context, layer models.Layer, featureID string) (*models.Feature, error)
	GetGeometry(ctx context.Context, layer models.Layer, featureID string) (*spatial.Geometry, error)
}

// FeatureRecord pairs a feature with its stored GeoJSON geometry.
type FeatureRecord struct {
	Feature      models.Feature
	GeometryJSON string
}

// RecordSource streams the stored feature records of one layer.
type RecordSource interface {
	LayerRecords(ctx context.Context, layer models.Layer) ([]FeatureRecord, error)
}

// conflictsWith reports whether a stored hierarchy disagrees with any set
// constraint field. Missing values on either side never conflict, so features
// with sparse hierarchy data are not filtered out.
func conflictsWith(h models.AdminHierarchy, cons models.Constraints) bool {
	checks := []struct{ want, have, word string }{
		{cons.State, h.State, "state"},
		{cons.County, h.County, "county"},
		{cons.Payam, h.Payam, "payam"},
		{cons.Boma, h.Boma, "boma"},
	}
	for _, c := range checks {
		if c.want == "" || c.have == "" {
			continue
		}
		if !matcher.NamesAgree(c.want, c.have, c.word) {
			return true
		}
	}
	return false
}
