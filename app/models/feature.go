package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feature is one gazetteer entry: a settlement or an administrative unit.
type Feature struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	FeatureID        string             `bson:"feature_id" json:"feature_id"` // stable source ID (e.g. pcode)
	Layer            Layer              `bson:"layer" json:"layer"`
	Name             string             `bson:"name" json:"name"`
	NormalizedName   string             `bson:"normalized_name" json:"normalized_name"`
	Aliases          []string           `bson:"aliases,omitempty" json:"aliases,omitempty"` // normalized alternate names
	CentroidLon      *float64           `bson:"centroid_lon,omitempty" json:"centroid_lon,omitempty"`
	CentroidLat      *float64           `bson:"centroid_lat,omitempty" json:"centroid_lat,omitempty"`
	Hierarchy        AdminHierarchy     `bson:"hierarchy" json:"hierarchy"` // enclosing unit names per source data
	Properties       map[string]string  `bson:"properties,omitempty" json:"properties,omitempty"`
	GazetteerVersion string             `bson:"gazetteer_version" json:"gazetteer_version"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasCentroid reports whether both centroid coordinates are present.
func (f *Feature) HasCentroid() bool {
	return f.CentroidLon != nil && f.CentroidLat != nil
}

// MatchNames returns every normalized name this feature can be matched under.
func (f *Feature) MatchNames() []string {
	names := make([]string, 0, 1+len(f.Aliases))
	if f.NormalizedName != "" {
		names = append(names, f.NormalizedName)
	}
	names = append(names, f.Aliases...)
	return names
}

// AdminHierarchy holds the enclosing admin unit names for a location.
// Empty fields mean the level is unknown or not covered by the boundary data.
type AdminHierarchy struct {
	State    string `bson:"state,omitempty" json:"state,omitempty"`
	County   string `bson:"county,omitempty" json:"county,omitempty"`
	Payam    string `bson:"payam,omitempty" json:"payam,omitempty"`
	Boma     string `bson:"boma,omitempty" json:"boma,omitempty"`
	StateID  string `bson:"state_id,omitempty" json:"state_id,omitempty"`
	CountyID string `bson:"county_id,omitempty" json:"county_id,omitempty"`
	PayamID  string `bson:"payam_id,omitempty" json:"payam_id,omitempty"`
	BomaID   string `bson:"boma_id,omitempty" json:"boma_id,omitempty"`
}

// Get returns the named level ("state", "county", "payam", "boma"), "" otherwise.
func (h AdminHierarchy) Get(field string) string {
	switch field {
	case "state":
		return h.State
	case "county":
		return h.County
	case "payam":
		return h.Payam
	case "boma":
		return h.Boma
	}
	return ""
}

// Set assigns the named level. Unknown fields are ignored.
func (h *AdminHierarchy) Set(field, value string) {
	switch field {
	case "state":
		h.State = value
	case "county":
		h.County = value
	case "payam":
		h.Payam = value
	case "boma":
		h.Boma = value
	}
}

// SetID assigns the named level's feature id. Unknown fields are ignored.
func (h *AdminHierarchy) SetID(field, id string) {
	switch field {
	case "state":
		h.StateID = id
	case "county":
		h.CountyID = id
	case "payam":
		h.PayamID = id
	case "boma":
		h.BomaID = id
	}
}

// Merge fills empty fields of h from other, keeping existing values.
func (h *AdminHierarchy) Merge(other AdminHierarchy) {
	if h.State == "" {
		h.State = other.State
		h.StateID = other.StateID
	}
	if h.County == "" {
		h.County = other.County
		h.CountyID = other.CountyID
	}
	if h.Payam == "" {
		h.Payam = other.Payam
		h.PayamID = other.PayamID
	}
	if h.Boma == "" {
		h.Boma = other.Boma
		h.BomaID = other.BomaID
	}
}

// Empty reports whether no level is set.
func (h AdminHierarchy) Empty() bool {
	return h.State == "" && h.County == "" && h.Payam == "" && h.Boma == ""
}
