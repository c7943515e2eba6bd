package spatial

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/models"
)

// LayerFeature is one named polygon feature of an administrative layer.
type LayerFeature struct {
	FeatureID string
	Name      string
	Polygons  []Polygon
}

// GeometrySource yields the polygon features of one administrative layer.
// The feature store implements it; tests use an in-memory source.
type GeometrySource interface {
	LayerFeatures(ctx context.Context, layer models.Layer) ([]LayerFeature, error)
}

// HierarchyResolver answers point-in-polygon hierarchy lookups. Each polygon
// layer is loaded once on first use and is read-only afterwards, so lookups
// may run concurrently.
type HierarchyResolver struct {
	source GeometrySource
	logger *zap.Logger

	mu    sync.RWMutex
	loads map[models.Layer]*layerLoad
}

// layerLoad latches one layer's snapshot behind a load-once guard.
type layerLoad struct {
	once  sync.Once
	feats []LayerFeature
}

// NewHierarchyResolver creates a resolver over the given geometry source.
func NewHierarchyResolver(source GeometrySource, logger *zap.Logger) *HierarchyResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &HierarchyResolver{
		source: source,
		logger: logger,
		loads:  make(map[models.Layer]*layerLoad, 4),
	}
	for _, layer := range models.PolygonLayers() {
		r.loads[layer] = &layerLoad{}
	}
	return r
}

// HierarchyFor resolves the administrative hierarchy containing pt, walking
// the polygon layers most specific first. Layers with no containing polygon
// stay empty; near data gaps or outside coverage that is expected, not an
// error.
func (r *HierarchyResolver) HierarchyFor(ctx context.Context, pt Point) models.AdminHierarchy {
	var h models.AdminHierarchy
	for _, layer := range models.PolygonLayers() {
		f := r.Locate(ctx, layer, pt)
		if f == nil {
			continue
		}
		field := layer.HierarchyField()
		h.Set(field, f.Name)
		h.SetID(field, f.FeatureID)
	}
	return h
}

// Locate returns the first feature of the layer whose polygons contain pt,
// or nil when none does.
func (r *HierarchyResolver) Locate(ctx context.Context, layer models.Layer, pt Point) *LayerFeature {
	feats := r.layerFeatures(ctx, layer)
	for i := range feats {
		for _, poly := range feats[i].Polygons {
			if poly.Contains(pt) {
				return &feats[i]
			}
		}
	}
	return nil
}

// Warm loads every polygon layer up front instead of on first lookup.
func (r *HierarchyResolver) Warm(ctx context.Context) {
	for _, layer := range models.PolygonLayers() {
		r.layerFeatures(ctx, layer)
	}
}

// Refresh drops the loaded snapshots so the next lookup reloads from the
// source. Called after gazetteer seeding.
func (r *HierarchyResolver) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, layer := range models.PolygonLayers() {
		r.loads[layer] = &layerLoad{}
	}
}

// layerFeatures returns the layer snapshot, loading it on first use. A load
// failure is logged and latched as an empty snapshot until Refresh.
func (r *HierarchyResolver) layerFeatures(ctx context.Context, layer models.Layer) []LayerFeature {
	r.mu.RLock()
	ld := r.loads[layer]
	r.mu.RUnlock()
	if ld == nil {
		return nil
	}
	ld.once.Do(func() {
		feats, err := r.source.LayerFeatures(ctx, layer)
		if err != nil {
			r.logger.Warn("admin layer load failed",
				zap.String("layer", layer.String()),
				zap.Error(err))
			return
		}
		kept := make([]LayerFeature, 0, len(feats))
		for _, f := range feats {
			polys := usablePolygons(f.Polygons)
			if len(polys) == 0 {
				r.logger.Warn("feature has no usable polygon",
					zap.String("layer", layer.String()),
					zap.String("feature_id", f.FeatureID))
				continue
			}
			f.Polygons = polys
			kept = append(kept, f)
		}
		ld.feats = kept
		r.logger.Info("admin layer loaded",
			zap.String("layer", layer.String()),
			zap.Int("features", len(kept)))
	})
	return ld.feats
}

// usablePolygons drops degenerate polygons and fills missing bounding boxes.
func usablePolygons(polys []Polygon) []Polygon {
	var out []Polygon
	for _, p := range polys {
		if len(p.Rings) == 0 || len(p.Rings[0]) < 3 {
			continue
		}
		if p.BBox == ([4]float64{}) {
			p.BBox = ComputeBBox(p.Rings)
		}
		out = append(out, p)
	}
	return out
}
