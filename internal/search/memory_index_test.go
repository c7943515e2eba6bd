package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/internal/spatial"
)

func floatPtr(v float64) *float64 { return &v }

func testFeature(layer models.Layer, id, name string, aliases []string, h models.AdminHierarchy) models.Feature {
	return models.Feature{
		FeatureID: id,
		Layer:     layer,
		Name:      name,
		Aliases:   aliases,
		Hierarchy: h,
	}
}

// unityIndex seeds a small Unity-state gazetteer.
func unityIndex() *MemoryIndex {
	ix := NewMemoryIndex()

	abiemnhom := testFeature(models.LayerSettlement, "SET001", "Abiemnhom", nil,
		models.AdminHierarchy{State: "Unity", County: "Abiemnhom"})
	abiemnhom.CentroidLon = floatPtr(29.98)
	abiemnhom.CentroidLat = floatPtr(9.09)
	ix.Add(abiemnhom, nil)

	mayom := testFeature(models.LayerSettlement, "SET002", "Mayom", nil,
		models.AdminHierarchy{State: "Unity", County: "Mayom"})
	mayom.CentroidLon = floatPtr(29.55)
	mayom.CentroidLat = floatPtr(9.15)
	ix.Add(mayom, nil)

	bentiu := testFeature(models.LayerSettlement, "SET003", "Bentiu", []string{"bentiw"},
		models.AdminHierarchy{State: "Unity", County: "Rubkona"})
	bentiu.CentroidLon = floatPtr(29.78)
	bentiu.CentroidLat = floatPtr(9.23)
	ix.Add(bentiu, nil)

	county := testFeature(models.LayerCounty, "CTY001", "Abiemnhom", nil,
		models.AdminHierarchy{State: "Unity"})
	ix.Add(county, &spatial.Geometry{Polygons: []spatial.Polygon{
		spatial.NewPolygon([]spatial.Ring{{
			{Lon: 29.6, Lat: 8.9}, {Lon: 30.2, Lat: 8.9}, {Lon: 30.2, Lat: 9.4}, {Lon: 29.6, Lat: 9.4},
		}}),
	}})

	state := testFeature(models.LayerState, "ST001", "Unity", []string{"unity state"},
		models.AdminHierarchy{})
	ix.Add(state, nil)

	return ix
}

func TestMemoryIndex_SearchCorrectedSpelling(t *testing.T) {
	ix := unityIndex()

	// "Abiemnom" is a known transliteration; normalization corrects it
	hits, err := ix.Search(context.Background(), SearchQuery{
		Text:  "Abiemnom",
		Layer: models.LayerSettlement,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "SET001", hits[0].FeatureID)
	assert.Equal(t, "Abiemnhom", hits[0].Name)
	assert.Equal(t, 1.0, hits[0].Score)
	assert.Equal(t, "Unity", hits[0].Hierarchy.State)
}

func TestMemoryIndex_SearchAllLayersPrefersSpecific(t *testing.T) {
	ix := unityIndex()

	hits, err := ix.Search(context.Background(), SearchQuery{Text: "abiemnhom"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(hits), 2)

	// settlement and county both match exactly; specificity breaks the tie
	assert.Equal(t, models.LayerSettlement, hits[0].Layer)
	assert.Equal(t, models.LayerCounty, hits[1].Layer)
}

func TestMemoryIndex_ConstraintPrefilter(t *testing.T) {
	ix := unityIndex()
	ctx := context.Background()

	hits, err := ix.Search(ctx, SearchQuery{
		Text:        "abiemnhom",
		Layer:       models.LayerSettlement,
		Constraints: models.Constraints{State: "warrap"},
	})
	require.NoError(t, err)
	assert.Empty(t, hits, "wrong-state features must be filtered out")

	hits, err = ix.Search(ctx, SearchQuery{
		Text:        "abiemnhom",
		Layer:       models.LayerSettlement,
		Constraints: models.Constraints{State: "unity"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "SET001", hits[0].FeatureID)
}

func TestMemoryIndex_ConstraintKeepsSparseHierarchy(t *testing.T) {
	ix := NewMemoryIndex()
	ix.Add(testFeature(models.LayerSettlement, "SET010", "Lankien", nil, models.AdminHierarchy{}), nil)

	hits, err := ix.Search(context.Background(), SearchQuery{
		Text:        "lankien",
		Layer:       models.LayerSettlement,
		Constraints: models.Constraints{State: "jonglei"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits, "features without hierarchy data pass the prefilter")
	assert.Equal(t, "SET010", hits[0].FeatureID)
}

func TestMemoryIndex_AliasMatch(t *testing.T) {
	ix := unityIndex()

	hits, err := ix.Search(context.Background(), SearchQuery{
		Text:  "Bentiw",
		Layer: models.LayerSettlement,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "SET003", hits[0].FeatureID)
	assert.Equal(t, "Bentiu", hits[0].Name)
	assert.Equal(t, "bentiw", hits[0].Alias)
}

func TestMemoryIndex_EmptyQuery(t *testing.T) {
	ix := unityIndex()
	hits, err := ix.Search(context.Background(), SearchQuery{Text: "   "})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryIndex_GetFeature(t *testing.T) {
	ix := unityIndex()
	ctx := context.Background()

	f, err := ix.GetFeature(ctx, models.LayerSettlement, "SET001")
	require.NoError(t, err)
	assert.Equal(t, "Abiemnhom", f.Name)
	assert.Equal(t, "abiemnhom", f.NormalizedName)

	_, err = ix.GetFeature(ctx, models.LayerSettlement, "MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryIndex_GetGeometry(t *testing.T) {
	ix := unityIndex()
	ctx := context.Background()

	g, err := ix.GetGeometry(ctx, models.LayerCounty, "CTY001")
	require.NoError(t, err)
	assert.Len(t, g.Polygons, 1)

	// settlements without stored geometry fall back to the centroid
	g, err = ix.GetGeometry(ctx, models.LayerSettlement, "SET001")
	require.NoError(t, err)
	require.NotNil(t, g.Point)
	assert.Equal(t, 29.98, g.Point.Lon)

	_, err = ix.GetGeometry(ctx, models.LayerState, "ST001")
	assert.ErrorIs(t, err, ErrNotFound, "no geometry and no centroid")
}

func TestMemoryIndex_LayerFeatures(t *testing.T) {
	ix := unityIndex()

	feats, err := ix.LayerFeatures(context.Background(), models.LayerCounty)
	require.NoError(t, err)
	require.Len(t, feats, 1)
	assert.Equal(t, "CTY001", feats[0].FeatureID)

	feats, err = ix.LayerFeatures(context.Background(), models.LayerState)
	require.NoError(t, err)
	assert.Empty(t, feats, "state has no stored polygons")
}

func TestMemoryIndex_LoadFrom(t *testing.T) {
	src := stubRecords{
		models.LayerSettlement: {
			{Feature: testFeature(models.LayerSettlement, "SET100", "Pariang", nil,
				models.AdminHierarchy{State: "Ruweng Administrative Area"})},
		},
		models.LayerCounty: {
			{
				Feature:      testFeature(models.LayerCounty, "CTY100", "Pariang", nil, models.AdminHierarchy{}),
				GeometryJSON: `{"type":"Polygon","coordinates":[[[29.8,9.6],[30.6,9.6],[30.6,10.2],[29.8,10.2],[29.8,9.6]]]}`,
			},
			{
				Feature:      testFeature(models.LayerCounty, "CTY101", "Broken", nil, models.AdminHierarchy{}),
				GeometryJSON: `{"type":"Nope"}`,
			},
		},
	}
	ix := NewMemoryIndex()
	require.NoError(t, ix.LoadFrom(context.Background(), src))

	assert.Equal(t, 3, ix.Len())

	g, err := ix.GetGeometry(context.Background(), models.LayerCounty, "CTY100")
	require.NoError(t, err)
	assert.Len(t, g.Polygons, 1)

	// malformed geometry leaves the feature searchable without coordinates
	hits, err := ix.Search(context.Background(), SearchQuery{Text: "broken", Layer: models.LayerCounty})
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
	_, err = ix.GetGeometry(context.Background(), models.LayerCounty, "CTY101")
	assert.ErrorIs(t, err, ErrNotFound)
}

type stubRecords map[models.Layer][]FeatureRecord

func (s stubRecords) LayerRecords(_ context.Context, layer models.Layer) ([]FeatureRecord, error) {
	return s[layer], nil
}
