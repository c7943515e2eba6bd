package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ssd-geocoder/app/config"
	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/internal/matcher"
	"github.com/ssd-geocoder/internal/normalizer"
	"github.com/ssd-geocoder/internal/spatial"
)

// prefilterMin is the pool size above which the subsequence prefilter runs
// before full scoring. Below it, scoring everything is cheap enough and
// recall stays exact.
const prefilterMin = 5000

// MemoryIndex is an in-process gazetteer index. It answers searches with the
// progressive matcher over normalized names and aliases, doubles as the
// geometry source for the hierarchy resolver, and is safe for concurrent use.
type MemoryIndex struct {
	mu    sync.RWMutex
	pools map[models.Layer]*layerPool
	byID  map[string]*indexEntry
	geoms map[string]*spatial.Geometry
}

// indexEntry holds one feature plus every normalized name it matches under.
type indexEntry struct {
	feature models.Feature
	names   []string
}

// layerPool keeps one layer's names flat for scoring; entries[i] owns names[i].
type layerPool struct {
	names   []string
	entries []*indexEntry
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		pools: make(map[models.Layer]*layerPool),
		byID:  make(map[string]*indexEntry),
		geoms: make(map[string]*spatial.Geometry),
	}
}

// Add inserts one feature and its optional geometry. The canonical name and
// aliases are normalized on the way in; duplicate names per feature collapse.
func (ix *MemoryIndex) Add(f models.Feature, geom *spatial.Geometry) {
	if f.NormalizedName == "" {
		f.NormalizedName = normalizer.Normalize(f.Name)
	}
	e := &indexEntry{feature: f}
	seen := map[string]bool{}
	for _, name := range f.MatchNames() {
		n := normalizer.Normalize(name)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		e.names = append(e.names, n)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	key := featureKey(f.Layer, f.FeatureID)
	ix.byID[key] = e
	if geom != nil {
		ix.geoms[key] = geom
	}
	pool := ix.pools[f.Layer]
	if pool == nil {
		pool = &layerPool{}
		ix.pools[f.Layer] = pool
	}
	for _, n := range e.names {
		pool.names = append(pool.names, n)
		pool.entries = append(pool.entries, e)
	}
}

// LoadFrom fills the index from a record source, layer by layer. Malformed
// geometry leaves the feature searchable without coordinates.
func (ix *MemoryIndex) LoadFrom(ctx context.Context, src RecordSource) error {
	for _, layer := range models.CascadeLayers() {
		recs, err := src.LayerRecords(ctx, layer)
		if err != nil {
			return fmt.Errorf("load layer %s: %w", layer, err)
		}
		for _, rec := range recs {
			var geom *spatial.Geometry
			if rec.GeometryJSON != "" {
				if g, err := spatial.ParseGeometry([]byte(rec.GeometryJSON)); err == nil {
					geom = g
				}
			}
			ix.Add(rec.Feature, geom)
		}
	}
	return nil
}

// Len returns the number of indexed features.
func (ix *MemoryIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}

// Search implements FeatureIndex.
func (ix *MemoryIndex) Search(_ context.Context, q SearchQuery) ([]IndexMatch, error) {
	text := normalizer.Normalize(q.Text)
	if text == "" {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = config.C.SearchLimit
	}
	layers := []models.Layer{q.Layer}
	if q.Layer == "" {
		layers = models.CascadeLayers()
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []IndexMatch
	for _, layer := range layers {
		out = append(out, ix.searchLayer(text, layer, q.Threshold, limit, q.Constraints)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Layer.Specificity() > out[j].Layer.Specificity()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// searchLayer runs the progressive matcher over one layer's name pool and
// keeps the best score per feature. Callers hold the read lock.
func (ix *MemoryIndex) searchLayer(text string, layer models.Layer, threshold float64, limit int, cons models.Constraints) []IndexMatch {
	pool := ix.pools[layer]
	if pool == nil {
		return nil
	}
	names, entries := pool.names, pool.entries
	if !cons.Empty() {
		names, entries = filterByConstraints(names, entries, cons)
	}
	if len(names) > prefilterMin {
		names, entries = subsequencePrefilter(text, names, entries)
	}
	hits, _ := matcher.ProgressiveMatch(text, names, threshold, limit)
	if len(hits) == 0 {
		return nil
	}

	best := make(map[string]IndexMatch, len(hits))
	order := make([]string, 0, len(hits))
	for _, h := range hits {
		e := entries[h.Index]
		m := IndexMatch{
			Layer:     layer,
			FeatureID: e.feature.FeatureID,
			Name:      e.feature.Name,
			Score:     h.Score,
			Hierarchy: e.feature.Hierarchy,
		}
		if h.Candidate != e.feature.NormalizedName {
			m.Alias = h.Candidate
		}
		prev, ok := best[m.FeatureID]
		if !ok {
			best[m.FeatureID] = m
			order = append(order, m.FeatureID)
			continue
		}
		if m.Score > prev.Score {
			best[m.FeatureID] = m
		}
	}
	out := make([]IndexMatch, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// filterByConstraints drops entries whose stored hierarchy conflicts with the
// parsed constraints. Entries missing hierarchy data always pass; rejection
// of those is the pipeline's re-validation job.
func filterByConstraints(names []string, entries []*indexEntry, cons models.Constraints) ([]string, []*indexEntry) {
	outN := make([]string, 0, len(names))
	outE := make([]*indexEntry, 0, len(entries))
	for i, e := range entries {
		if conflictsWith(e.feature.Hierarchy, cons) {
			continue
		}
		outN = append(outN, names[i])
		outE = append(outE, e)
	}
	return outN, outE
}

// subsequencePrefilter keeps names sharing a folded subsequence relationship
// with the query in either direction.
func subsequencePrefilter(text string, names []string, entries []*indexEntry) ([]string, []*indexEntry) {
	outN := make([]string, 0, len(names)/4)
	outE := make([]*indexEntry, 0, len(names)/4)
	for i, n := range names {
		if fuzzy.MatchNormalizedFold(text, n) || fuzzy.MatchNormalizedFold(n, text) {
			outN = append(outN, n)
			outE = append(outE, entries[i])
		}
	}
	return outN, outE
}

// GetFeature implements FeatureIndex.
func (ix *MemoryIndex) GetFeature(_ context.Context, layer models.Layer, featureID string) (*models.Feature, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e := ix.byID[featureKey(layer, featureID)]
	if e == nil {
		return nil, ErrNotFound
	}
	f := e.feature
	return &f, nil
}

// GetGeometry implements FeatureIndex. Features without stored geometry fall
// back to a point built from their centroid.
func (ix *MemoryIndex) GetGeometry(_ context.Context, layer models.Layer, featureID string) (*spatial.Geometry, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	key := featureKey(layer, featureID)
	if g := ix.geoms[key]; g != nil {
		return g, nil
	}
	e := ix.byID[key]
	if e == nil {
		return nil, ErrNotFound
	}
	if e.feature.HasCentroid() {
		return &spatial.Geometry{Point: &spatial.Point{
			Lon: *e.feature.CentroidLon,
			Lat: *e.feature.CentroidLat,
		}}, nil
	}
	return nil, ErrNotFound
}

// LayerFeatures implements spatial.GeometrySource, so the hierarchy resolver
// can run off the same in-memory gazetteer.
func (ix *MemoryIndex) LayerFeatures(_ context.Context, layer models.Layer) ([]spatial.LayerFeature, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []spatial.LayerFeature
	for key, e := range ix.byID {
		if e.feature.Layer != layer {
			continue
		}
		g := ix.geoms[key]
		if g == nil || len(g.Polygons) == 0 {
			continue
		}
		out = append(out, spatial.LayerFeature{
			FeatureID: e.feature.FeatureID,
			Name:      e.feature.Name,
			Polygons:  g.Polygons,
		})
	}
	// map iteration is unordered; keep lookups deterministic
	sort.Slice(out, func(i, j int) bool { return out[i].FeatureID < out[j].FeatureID })
	return out, nil
}

func featureKey(layer models.Layer, featureID string) string {
	return string(layer) + "|" + strings.TrimSpace(featureID)
}
