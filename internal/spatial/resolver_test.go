package spatial

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssd-geocoder/app/models"
)

type fakeSource struct {
	mu    sync.Mutex
	calls map[models.Layer]int
	data  map[models.Layer][]LayerFeature
	err   error
}

func (s *fakeSource) LayerFeatures(_ context.Context, layer models.Layer) ([]LayerFeature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[models.Layer]int)
	}
	s.calls[layer]++
	if s.err != nil {
		return nil, s.err
	}
	return s.data[layer], nil
}

func (s *fakeSource) callCount(layer models.Layer) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[layer]
}

// unitySource covers the boma and state layers around (29.6, 9.3) and leaves
// payam and county without boundary data.
func unitySource() *fakeSource {
	return &fakeSource{data: map[models.Layer][]LayerFeature{
		models.LayerBoma: {
			{FeatureID: "BOM001", Name: "Dhor", Polygons: []Polygon{square(29.5, 9.2, 29.7, 9.4)}},
		},
		models.LayerState: {
			{FeatureID: "ST007", Name: "Unity", Polygons: []Polygon{square(29.0, 8.0, 30.5, 10.0)}},
			{FeatureID: "ST003", Name: "Warrap", Polygons: []Polygon{square(27.5, 7.0, 29.0, 9.0)}},
		},
	}}
}

func TestHierarchyFor_FillsCoveredLayers(t *testing.T) {
	r := NewHierarchyResolver(unitySource(), nil)

	h := r.HierarchyFor(context.Background(), Point{Lon: 29.6, Lat: 9.3})

	assert.Equal(t, "Dhor", h.Boma)
	assert.Equal(t, "BOM001", h.BomaID)
	assert.Equal(t, "Unity", h.State)
	assert.Equal(t, "ST007", h.StateID)
	assert.Empty(t, h.Payam, "no payam boundary data covers the point")
	assert.Empty(t, h.County, "no county boundary data covers the point")
}

func TestHierarchyFor_OutsideCoverage(t *testing.T) {
	r := NewHierarchyResolver(unitySource(), nil)

	h := r.HierarchyFor(context.Background(), Point{Lon: 35.0, Lat: 4.0})
	assert.True(t, h.Empty())
}

func TestHierarchyFor_LoadsEachLayerOnce(t *testing.T) {
	src := unitySource()
	r := NewHierarchyResolver(src, nil)

	ctx := context.Background()
	r.HierarchyFor(ctx, Point{Lon: 29.6, Lat: 9.3})
	r.HierarchyFor(ctx, Point{Lon: 28.0, Lat: 8.0})

	for _, layer := range models.PolygonLayers() {
		assert.Equal(t, 1, src.callCount(layer), "layer %s reloaded", layer)
	}
}

func TestHierarchyFor_ConcurrentFirstUse(t *testing.T) {
	src := unitySource()
	r := NewHierarchyResolver(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := r.HierarchyFor(context.Background(), Point{Lon: 29.6, Lat: 9.3})
			if h.State != "Unity" {
				t.Errorf("State = %q, want Unity", h.State)
			}
		}()
	}
	wg.Wait()

	for _, layer := range models.PolygonLayers() {
		assert.Equal(t, 1, src.callCount(layer), "layer %s loaded more than once", layer)
	}
}

func TestRefresh_ForcesReload(t *testing.T) {
	src := unitySource()
	r := NewHierarchyResolver(src, nil)
	ctx := context.Background()

	r.Warm(ctx)
	r.Refresh()
	r.HierarchyFor(ctx, Point{Lon: 29.6, Lat: 9.3})

	assert.Equal(t, 2, src.callCount(models.LayerState))
}

func TestHierarchyFor_SourceErrorDegrades(t *testing.T) {
	src := &fakeSource{err: errors.New("store down")}
	r := NewHierarchyResolver(src, nil)
	ctx := context.Background()

	h := r.HierarchyFor(ctx, Point{Lon: 29.6, Lat: 9.3})
	assert.True(t, h.Empty())

	// the failed load latches until Refresh
	r.HierarchyFor(ctx, Point{Lon: 29.6, Lat: 9.3})
	assert.Equal(t, 1, src.callCount(models.LayerState))
}

func TestLocate_BoundaryInclusive(t *testing.T) {
	r := NewHierarchyResolver(unitySource(), nil)

	f := r.Locate(context.Background(), models.LayerBoma, Point{Lon: 29.5, Lat: 9.3})
	require.NotNil(t, f, "point on the boma's western edge")
	assert.Equal(t, "Dhor", f.Name)
}

func TestLayerLoad_SkipsDegenerateAndBackfillsBBox(t *testing.T) {
	// hand-built polygons without a bounding box
	src := &fakeSource{data: map[models.Layer][]LayerFeature{
		models.LayerCounty: {
			{FeatureID: "CTY001", Name: "Rubkona", Polygons: []Polygon{{Rings: []Ring{{
				{Lon: 29.0, Lat: 9.0}, {Lon: 30.0, Lat: 9.0}, {Lon: 30.0, Lat: 9.8}, {Lon: 29.0, Lat: 9.8},
			}}}}},
			{FeatureID: "CTY999", Name: "Broken", Polygons: []Polygon{{Rings: []Ring{{
				{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1},
			}}}}},
		},
	}}
	r := NewHierarchyResolver(src, nil)

	f := r.Locate(context.Background(), models.LayerCounty, Point{Lon: 29.6, Lat: 9.3})
	require.NotNil(t, f)
	assert.Equal(t, "Rubkona", f.Name)

	assert.Nil(t, r.Locate(context.Background(), models.LayerCounty, Point{Lon: 0.5, Lat: 0.5}))
}
