package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/config"
	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/internal/matcher"
	"github.com/ssd-geocoder/internal/normalizer"
	"github.com/ssd-geocoder/internal/spatial"
)

const seedBatchSize = 1000

// MeiliConfig configures the Meilisearch-backed index.
type MeiliConfig struct {
	Host        string
	APIKey      string
	IndexPrefix string // index per layer: <prefix><layer>, default "geo_"
}

// FeatureGetter resolves features and geometries by id. The Mongo feature
// store implements it; MemoryIndex does too.
type FeatureGetter interface {
	GetFeature(ctx context.Context, layer models.Layer, featureID string) (*models.Feature, error)
	GetGeometry(ctx context.Context, layer models.Layer, featureID string) (*spatial.Geometry, error)
}

// MeiliIndex answers searches from Meilisearch, one index per layer. Search
// documents carry names and hierarchy only; feature and geometry lookups go
// to the store. Retrieval is deliberately wide (2x limit) and the retrieved
// names are re-scored locally so scores keep the scorer's [0,1] semantics
// instead of Meilisearch ranking scores.
type MeiliIndex struct {
	client meilisearch.ServiceManager
	store  FeatureGetter
	logger *zap.Logger
	prefix string
}

// NewMeiliIndex connects to Meilisearch and verifies it is reachable.
func NewMeiliIndex(cfg MeiliConfig, store FeatureGetter, logger *zap.Logger) (*MeiliIndex, error) {
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("meilisearch unreachable: %w", err)
	}
	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "geo_"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeiliIndex{client: client, store: store, logger: logger, prefix: prefix}, nil
}

func (ix *MeiliIndex) indexName(layer models.Layer) string {
	return ix.prefix + string(layer)
}

// Search implements FeatureIndex.
func (ix *MeiliIndex) Search(_ context.Context, q SearchQuery) ([]IndexMatch, error) {
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

	var out []IndexMatch
	var lastErr error
	for _, layer := range layers {
		hits, err := ix.searchLayer(text, layer, q.Threshold, limit, q.Constraints)
		if err != nil {
			ix.logger.Warn("index query failed",
				zap.String("layer", layer.String()),
				zap.Error(err))
			lastErr = err
			continue
		}
		out = append(out, hits...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
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

// searchLayer retrieves a wide hit set from one layer's index and re-scores
// it with the progressive matcher.
func (ix *MeiliIndex) searchLayer(text string, layer models.Layer, threshold float64, limit int, cons models.Constraints) ([]IndexMatch, error) {
	req := &meilisearch.SearchRequest{
		Limit: int64(limit * 2),
	}
	if f := buildFilter(cons); f != "" {
		req.Filter = f
	}
	res, err := ix.client.Index(ix.indexName(layer)).Search(text, req)
	if err != nil {
		return nil, fmt.Errorf("meilisearch query %s: %w", layer, err)
	}

	var names []string
	var owners []meiliHit
	for _, raw := range res.Hits {
		doc, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		hit, ok := parseHit(doc)
		if !ok {
			continue
		}
		for _, n := range hit.matchNames() {
			names = append(names, n)
			owners = append(owners, hit)
		}
	}
	hits, _ := matcher.ProgressiveMatch(text, names, threshold, limit)
	if len(hits) == 0 {
		return nil, nil
	}

	best := make(map[string]IndexMatch, len(hits))
	order := make([]string, 0, len(hits))
	for _, h := range hits {
		o := owners[h.Index]
		m := IndexMatch{
			Layer:     layer,
			FeatureID: o.featureID,
			Name:      o.name,
			Score:     h.Score,
			Hierarchy: o.hierarchy,
		}
		if h.Candidate != o.normalized {
			m.Alias = h.Candidate
		}
		prev, seen := best[m.FeatureID]
		if !seen {
			best[m.FeatureID] = m
			order = append(order, m.FeatureID)
		} else if m.Score > prev.Score {
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
	return out, nil
}

// GetFeature implements FeatureIndex by delegating to the store.
func (ix *MeiliIndex) GetFeature(ctx context.Context, layer models.Layer, featureID string) (*models.Feature, error) {
	if ix.store == nil {
		return nil, fmt.Errorf("no feature store configured")
	}
	return ix.store.GetFeature(ctx, layer, featureID)
}

// GetGeometry implements FeatureIndex by delegating to the store.
func (ix *MeiliIndex) GetGeometry(ctx context.Context, layer models.Layer, featureID string) (*spatial.Geometry, error) {
	if ix.store == nil {
		return nil, fmt.Errorf("no feature store configured")
	}
	return ix.store.GetGeometry(ctx, layer, featureID)
}

// BuildIndexes applies the per-layer index settings.
func (ix *MeiliIndex) BuildIndexes() error {
	for _, layer := range models.CascadeLayers() {
		task, err := ix.client.Index(ix.indexName(layer)).UpdateSettings(indexSettings())
		if err != nil {
			return fmt.Errorf("configure index %s: %w", layer, err)
		}
		ix.logger.Info("index settings applied",
			zap.String("layer", layer.String()),
			zap.Int64("task_uid", task.TaskUID))
	}
	return nil
}

// SeedFeatures loads feature documents into the per-layer indexes in batches.
func (ix *MeiliIndex) SeedFeatures(feats []models.Feature) error {
	byLayer := make(map[models.Layer][]map[string]interface{})
	for _, f := range feats {
		if !f.Layer.Valid() || f.FeatureID == "" {
			continue
		}
		byLayer[f.Layer] = append(byLayer[f.Layer], featureDocument(f))
	}
	for layer, docs := range byLayer {
		idx := ix.client.Index(ix.indexName(layer))
		for i := 0; i < len(docs); i += seedBatchSize {
			end := i + seedBatchSize
			if end > len(docs) {
				end = len(docs)
			}
			task, err := idx.AddDocuments(docs[i:end], "id")
			if err != nil {
				return fmt.Errorf("seed %s documents %d-%d: %w", layer, i, end, err)
			}
			ix.logger.Info("seeded documents",
				zap.String("layer", layer.String()),
				zap.Int("from", i),
				zap.Int("to", end),
				zap.Int64("task_uid", task.TaskUID))
		}
	}
	return nil
}

// indexSettings is the layer-index configuration: searchable names, hierarchy
// filters for constraint pushdown, state-abbreviation synonyms and mild typo
// tolerance (place names are short, one typo from four letters on).
func indexSettings() *meilisearch.Settings {
	return &meilisearch.Settings{
		SearchableAttributes: []string{"name", "normalized_name", "aliases"},
		FilterableAttributes: []string{"feature_id", "layer", "state_n", "county_n", "payam_n", "boma_n", "gazetteer_version"},
		SortableAttributes:   []string{"feature_id"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		StopWords:            []string{"the", "of", "and"},
		Synonyms:             matcher.StateSynonyms(),
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  4,
				TwoTypos: 8,
			},
		},
	}
}

// featureDocument flattens a feature into the search document shape. The *_n
// fields hold normalized hierarchy names so constraint filters compare like
// with like.
func featureDocument(f models.Feature) map[string]interface{} {
	normalized := f.NormalizedName
	if normalized == "" {
		normalized = normalizer.Normalize(f.Name)
	}
	doc := map[string]interface{}{
		"id":                f.FeatureID,
		"feature_id":        f.FeatureID,
		"layer":             string(f.Layer),
		"name":              f.Name,
		"normalized_name":   normalized,
		"aliases":           f.Aliases,
		"state":             f.Hierarchy.State,
		"county":            f.Hierarchy.County,
		"payam":             f.Hierarchy.Payam,
		"boma":              f.Hierarchy.Boma,
		"state_id":          f.Hierarchy.StateID,
		"county_id":         f.Hierarchy.CountyID,
		"payam_id":          f.Hierarchy.PayamID,
		"boma_id":           f.Hierarchy.BomaID,
		"state_n":           normalizer.Normalize(f.Hierarchy.State),
		"county_n":          normalizer.Normalize(f.Hierarchy.County),
		"payam_n":           normalizer.Normalize(f.Hierarchy.Payam),
		"boma_n":            normalizer.Normalize(f.Hierarchy.Boma),
		"gazetteer_version": f.GazetteerVersion,
	}
	if f.HasCentroid() {
		doc["centroid_lon"] = *f.CentroidLon
		doc["centroid_lat"] = *f.CentroidLat
	}
	return doc
}

// buildFilter renders hierarchy constraints as a Meilisearch filter string.
func buildFilter(cons models.Constraints) string {
	var parts []string
	add := func(field, val string) {
		if v := normalizer.Normalize(val); v != "" {
			parts = append(parts, fmt.Sprintf("%s = %q", field, v))
		}
	}
	add("state_n", cons.State)
	add("county_n", cons.County)
	add("payam_n", cons.Payam)
	add("boma_n", cons.Boma)
	return strings.Join(parts, " AND ")
}

// meiliHit is one parsed search document.
type meiliHit struct {
	featureID  string
	name       string
	normalized string
	aliases    []string
	hierarchy  models.AdminHierarchy
}

// matchNames returns the normalized names this hit can be matched under.
func (h meiliHit) matchNames() []string {
	out := make([]string, 0, 1+len(h.aliases))
	if h.normalized != "" {
		out = append(out, h.normalized)
	}
	for _, a := range h.aliases {
		if n := normalizer.Normalize(a); n != "" && n != h.normalized {
			out = append(out, n)
		}
	}
	return out
}

// parseHit reads one raw hit document field by field.
func parseHit(doc map[string]interface{}) (meiliHit, bool) {
	h := meiliHit{
		featureID:  getString(doc, "feature_id"),
		name:       getString(doc, "name"),
		normalized: getString(doc, "normalized_name"),
		hierarchy: models.AdminHierarchy{
			State:    getString(doc, "state"),
			County:   getString(doc, "county"),
			Payam:    getString(doc, "payam"),
			Boma:     getString(doc, "boma"),
			StateID:  getString(doc, "state_id"),
			CountyID: getString(doc, "county_id"),
			PayamID:  getString(doc, "payam_id"),
			BomaID:   getString(doc, "boma_id"),
		},
	}
	if h.normalized == "" && h.name != "" {
		h.normalized = normalizer.Normalize(h.name)
	}
	if h.featureID == "" || h.normalized == "" {
		return h, false
	}
	if raw, ok := doc["aliases"].([]interface{}); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok && s != "" {
				h.aliases = append(h.aliases, s)
			}
		}
	}
	return h, true
}

func getString(doc map[string]interface{}, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}
