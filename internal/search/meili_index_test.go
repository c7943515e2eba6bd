package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssd-geocoder/app/models"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name string
		cons models.Constraints
		want string
	}{
		{"empty", models.Constraints{}, ""},
		{
			"state only, normalized",
			models.Constraints{State: "Unity"},
			`state_n = "unity"`,
		},
		{
			"state and county",
			models.Constraints{State: "unity", County: "rubkona"},
			`state_n = "unity" AND county_n = "rubkona"`,
		},
		{
			"corrected spelling",
			models.Constraints{County: "Abiemnom"},
			`county_n = "abiemnhom"`,
		},
		{
			"all hierarchy levels",
			models.Constraints{State: "unity", County: "rubkona", Payam: "rubkona", Boma: "dhor"},
			`state_n = "unity" AND county_n = "rubkona" AND payam_n = "rubkona" AND boma_n = "dhor"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFilter(tt.cons))
		})
	}
}

func TestParseHit(t *testing.T) {
	doc := map[string]interface{}{
		"feature_id":      "SET001",
		"name":            "Abiemnhom",
		"normalized_name": "abiemnhom",
		"aliases":         []interface{}{"abiemnom town", 42, ""},
		"state":           "Unity",
		"county":          "Abiemnhom",
		"state_id":        "ST001",
	}
	h, ok := parseHit(doc)
	require.True(t, ok)
	assert.Equal(t, "SET001", h.featureID)
	assert.Equal(t, "Abiemnhom", h.name)
	assert.Equal(t, []string{"abiemnom town"}, h.aliases, "non-string and empty aliases dropped")
	assert.Equal(t, "Unity", h.hierarchy.State)
	assert.Equal(t, "ST001", h.hierarchy.StateID)
}

func TestParseHit_NormalizedFallsBackToName(t *testing.T) {
	h, ok := parseHit(map[string]interface{}{
		"feature_id": "SET002",
		"name":       "Mayom",
	})
	require.True(t, ok)
	assert.Equal(t, "mayom", h.normalized)
}

func TestParseHit_Rejects(t *testing.T) {
	_, ok := parseHit(map[string]interface{}{"name": "Mayom"})
	assert.False(t, ok, "missing feature_id")

	_, ok = parseHit(map[string]interface{}{"feature_id": "X1"})
	assert.False(t, ok, "no name at all")
}

func TestMeiliHit_MatchNames(t *testing.T) {
	h := meiliHit{
		normalized: "kajo keji",
		aliases:    []string{"kajokeji", "Kajo-Keji", "kajo keji"},
	}
	// both alias spellings normalize to the canonical name and collapse
	assert.Equal(t, []string{"kajo keji"}, h.matchNames())
}

func TestFeatureDocument(t *testing.T) {
	f := testFeature(models.LayerSettlement, "SET001", "Abiemnhom", []string{"abiemnom town"},
		models.AdminHierarchy{State: "Unity", County: "Abiemnhom", StateID: "ST001"})
	f.GazetteerVersion = "2026-07"
	f.CentroidLon = floatPtr(29.98)
	f.CentroidLat = floatPtr(9.09)

	doc := featureDocument(f)

	assert.Equal(t, "SET001", doc["id"])
	assert.Equal(t, "settlements", doc["layer"])
	assert.Equal(t, "abiemnhom", doc["normalized_name"])
	assert.Equal(t, "Unity", doc["state"])
	assert.Equal(t, "unity", doc["state_n"])
	assert.Equal(t, "abiemnhom", doc["county_n"])
	assert.Equal(t, "ST001", doc["state_id"])
	assert.Equal(t, 29.98, doc["centroid_lon"])
	assert.Equal(t, "2026-07", doc["gazetteer_version"])
}

func TestFeatureDocument_NoCentroid(t *testing.T) {
	f := testFeature(models.LayerCounty, "CTY001", "Mayom", nil, models.AdminHierarchy{State: "Unity"})
	doc := featureDocument(f)

	_, hasLon := doc["centroid_lon"]
	_, hasLat := doc["centroid_lat"]
	assert.False(t, hasLon)
	assert.False(t, hasLat)
}
