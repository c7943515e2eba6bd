package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeometry_Point(t *testing.T) {
	g, err := ParseGeometry([]byte(`{"type":"Point","coordinates":[31.582,4.851]}`))
	require.NoError(t, err)
	require.NotNil(t, g.Point)
	assert.Equal(t, 31.582, g.Point.Lon)
	assert.Equal(t, 4.851, g.Point.Lat)
	assert.Empty(t, g.Polygons)
}

func TestParseGeometry_PolygonWithHole(t *testing.T) {
	raw := `{
		"type": "Polygon",
		"coordinates": [
			[[29.0,8.0],[30.0,8.0],[30.0,9.0],[29.0,9.0],[29.0,8.0]],
			[[29.4,8.4],[29.6,8.4],[29.6,8.6],[29.4,8.6],[29.4,8.4]]
		]
	}`
	g, err := ParseGeometry([]byte(raw))
	require.NoError(t, err)
	require.Len(t, g.Polygons, 1)

	poly := g.Polygons[0]
	assert.Len(t, poly.Rings, 2)
	assert.Equal(t, [4]float64{29.0, 8.0, 30.0, 9.0}, poly.BBox)
	assert.True(t, poly.Contains(Point{Lon: 29.1, Lat: 8.1}))
	assert.False(t, poly.Contains(Point{Lon: 29.5, Lat: 8.5}), "point inside the hole")
}

func TestParseGeometry_MultiPolygon(t *testing.T) {
	raw := `{
		"type": "MultiPolygon",
		"coordinates": [
			[[[29.0,8.0],[29.5,8.0],[29.5,8.5],[29.0,8.5],[29.0,8.0]]],
			[[[30.0,8.0],[30.5,8.0],[30.5,8.5],[30.0,8.5],[30.0,8.0]]]
		]
	}`
	g, err := ParseGeometry([]byte(raw))
	require.NoError(t, err)
	require.Len(t, g.Polygons, 2)
	assert.True(t, g.Polygons[0].Contains(Point{Lon: 29.2, Lat: 8.2}))
	assert.True(t, g.Polygons[1].Contains(Point{Lon: 30.2, Lat: 8.2}))
}

func TestParseGeometry_FeatureWrapper(t *testing.T) {
	raw := `{
		"type": "Feature",
		"properties": {"name": "Juba"},
		"geometry": {"type": "Point", "coordinates": [31.6, 4.85]}
	}`
	g, err := ParseGeometry([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, g.Point)
	assert.Equal(t, 31.6, g.Point.Lon)
}

func TestParseGeometry_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"not json", "{nope"},
		{"unsupported type", `{"type":"LineString","coordinates":[[1,2],[3,4]]}`},
		{"point too short", `{"type":"Point","coordinates":[31.6]}`},
		{"polygon no rings", `{"type":"Polygon","coordinates":[]}`},
		{"outer ring too small", `{"type":"Polygon","coordinates":[[[1,2],[3,4]]]}`},
		{"feature missing geometry", `{"type":"Feature","properties":{}}`},
		{"empty multipolygon", `{"type":"MultiPolygon","coordinates":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGeometry([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParseGeometry_DropsDegenerateHole(t *testing.T) {
	raw := `{
		"type": "Polygon",
		"coordinates": [
			[[0,0],[4,0],[4,4],[0,4],[0,0]],
			[[1,1],[2,2]]
		]
	}`
	g, err := ParseGeometry([]byte(raw))
	require.NoError(t, err)
	require.Len(t, g.Polygons, 1)
	assert.Len(t, g.Polygons[0].Rings, 1, "two-vertex hole should be dropped")
}
