package services

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/app/requests"
	"github.com/ssd-geocoder/app/responses"
	"github.com/ssd-geocoder/internal/search"
	"github.com/ssd-geocoder/internal/spatial"
)

// SearchSeeder is the slice of the search index the admin operations need:
// settings setup and full document pushes. The Meilisearch index implements
// it; memory-index deployments run with a nil seeder.
type SearchSeeder interface {
	BuildIndexes() error
	SeedFeatures(feats []models.Feature) error
}

// AdminService runs gazetteer lifecycle operations: seeding, index builds,
// alias merges, cache invalidation, stats and exports.
type AdminService struct {
	db       *mongo.Database
	store    *search.FeatureStore
	seeder   SearchSeeder
	resolver *spatial.HierarchyResolver
	cache    ResultCache
	logger   *zap.Logger
}

// SeedValidation is the outcome of checking a gazetteer payload.
type SeedValidation struct {
	Passed   bool     `json:"passed"`
	Warnings []string `json:"warnings"`
}

// SeedResult summarizes a completed seeding run.
type SeedResult struct {
	FeaturesUpserted int      `json:"features_upserted"`
	FeaturesPruned   int64    `json:"features_pruned"`
	IndexesBuilt     int      `json:"indexes_built"`
	Warnings         []string `json:"warnings,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// NewAdminService wires the gazetteer admin operations. seeder and cache may
// be nil.
func NewAdminService(db *mongo.Database, store *search.FeatureStore, seeder SearchSeeder, resolver *spatial.HierarchyResolver, cache ResultCache, logger *zap.Logger) *AdminService {
	return &AdminService{
		db:       db,
		store:    store,
		seeder:   seeder,
		resolver: resolver,
		cache:    cache,
		logger:   logger,
	}
}

// ValidateSeed checks a gazetteer payload without writing anything. It
// reports every problem it finds rather than stopping at the first.
func (as *AdminService) ValidateSeed(features []requests.SeedFeature) *SeedValidation {
	warnings := make([]string, 0)

	if len(features) == 0 {
		return &SeedValidation{Passed: false, Warnings: []string{"no features in payload"}}
	}

	seen := make(map[string]bool, len(features))
	for i, sf := range features {
		if sf.FeatureID == "" {
			warnings = append(warnings, fmt.Sprintf("feature %d: missing feature_id", i))
		} else if seen[sf.FeatureID] {
			warnings = append(warnings, fmt.Sprintf("feature %d: duplicate feature_id %s", i, sf.FeatureID))
		}
		seen[sf.FeatureID] = true

		if sf.Name == "" {
			warnings = append(warnings, fmt.Sprintf("feature %d: missing name", i))
		}
		if !sf.Layer.Valid() {
			warnings = append(warnings, fmt.Sprintf("feature %d: unknown layer %q", i, sf.Layer))
		}
		if len(sf.Geometry) > 0 {
			if _, err := spatial.ParseGeometry(sf.Geometry); err != nil {
				warnings = append(warnings, fmt.Sprintf("feature %d (%s): malformed geometry: %v", i, sf.FeatureID, err))
			}
		}
		if sf.Layer == models.LayerSettlement && len(sf.Geometry) == 0 && !sf.HasCentroid() {
			warnings = append(warnings, fmt.Sprintf("feature %d (%s): settlement without centroid or geometry", i, sf.FeatureID))
		}
	}

	return &SeedValidation{Passed: len(warnings) == 0, Warnings: warnings}
}

// SeedGazetteer loads a gazetteer snapshot: upserts features into the store,
// prunes features left over from other versions, optionally rebuilds the
// search index, refreshes the spatial snapshot and drops cached results
// resolved against older gazetteers.
func (as *AdminService) SeedGazetteer(ctx context.Context, req requests.SeedGazetteerRequest) (*SeedResult, error) {
	start := time.Now()

	validation := as.ValidateSeed(req.Features)
	if !validation.Passed {
		return nil, fmt.Errorf("gazetteer payload failed validation: %d problems, first: %s",
			len(validation.Warnings), validation.Warnings[0])
	}

	byLayer := make(map[models.Layer][]search.FeatureRecord, 5)
	for _, sf := range req.Features {
		f := sf.Feature
		f.GazetteerVersion = req.GazetteerVersion
		byLayer[f.Layer] = append(byLayer[f.Layer], search.FeatureRecord{
			Feature:      f,
			GeometryJSON: string(sf.Geometry),
		})
	}

	result := &SeedResult{}
	for layer, recs := range byLayer {
		n, err := as.store.UpsertRecords(ctx, layer, recs)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", layer, err)
		}
		result.FeaturesUpserted += n
	}

	pruned, err := as.store.PruneOldVersions(ctx, req.GazetteerVersion)
	if err != nil {
		return nil, fmt.Errorf("prune old versions: %w", err)
	}
	result.FeaturesPruned = pruned

	if req.RebuildIndexes {
		built, err := as.rebuildSearchIndex(ctx)
		if err != nil {
			// The store is already consistent; a failed index push is
			// retryable through the indexes/build endpoint.
			as.logger.Warn("search index rebuild failed after seed", zap.Error(err))
			result.Warnings = append(result.Warnings, "search index rebuild failed: "+err.Error())
		}
		result.IndexesBuilt = built
	}

	if as.resolver != nil {
		as.resolver.Refresh()
	}

	if as.cache != nil {
		if err := as.cache.InvalidateByGazetteerVersion(ctx, req.GazetteerVersion); err != nil {
			as.logger.Warn("cache invalidation after seed failed", zap.Error(err))
			result.Warnings = append(result.Warnings, "cache invalidation failed: "+err.Error())
		}
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	as.logger.Info("gazetteer seeded",
		zap.String("gazetteer_version", req.GazetteerVersion),
		zap.Int("features_upserted", result.FeaturesUpserted),
		zap.Int64("features_pruned", result.FeaturesPruned),
		zap.Int("indexes_built", result.IndexesBuilt),
		zap.Duration("took", time.Since(start)))
	return result, nil
}

// BuildIndexes pushes the stored gazetteer into the search index. Returns
// the number of layer indexes rebuilt.
func (as *AdminService) BuildIndexes(ctx context.Context) (int, error) {
	if as.seeder == nil {
		return 0, nil
	}
	return as.rebuildSearchIndex(ctx)
}

// rebuildSearchIndex applies index settings and reseeds every layer from the
// feature store.
func (as *AdminService) rebuildSearchIndex(ctx context.Context) (int, error) {
	if as.seeder == nil {
		return 0, nil
	}
	if err := as.seeder.BuildIndexes(); err != nil {
		return 0, fmt.Errorf("build search indexes: %w", err)
	}

	built := 0
	for _, layer := range models.CascadeLayers() {
		recs, err := as.store.LayerRecords(ctx, layer)
		if err != nil {
			return built, fmt.Errorf("load %s for indexing: %w", layer, err)
		}
		if len(recs) == 0 {
			continue
		}
		feats := make([]models.Feature, len(recs))
		for i, rec := range recs {
			feats[i] = rec.Feature
		}
		if err := as.seeder.SeedFeatures(feats); err != nil {
			return built, fmt.Errorf("index %s features: %w", layer, err)
		}
		built++
	}
	return built, nil
}

// RebuildAliases merges the learned aliases into their features' alias lists
// and reindexes, so the next resolution can match on reviewer-confirmed
// spellings. Returns the number of features that gained aliases.
func (as *AdminService) RebuildAliases(ctx context.Context) (int, error) {
	cursor, err := as.db.Collection("learned_aliases").Find(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("load learned aliases: %w", err)
	}
	defer cursor.Close(ctx)

	type featureRef struct {
		layer models.Layer
		id    string
	}
	grouped := make(map[featureRef][]string)
	for cursor.Next(ctx) {
		var alias models.LearnedAlias
		if err := cursor.Decode(&alias); err != nil {
			as.logger.Warn("skipping undecodable learned alias", zap.Error(err))
			continue
		}
		ref := featureRef{layer: alias.Layer, id: alias.FeatureID}
		grouped[ref] = append(grouped[ref], alias.Alias)
	}
	if err := cursor.Err(); err != nil {
		return 0, fmt.Errorf("read learned aliases: %w", err)
	}

	merged := 0
	for ref, aliases := range grouped {
		err := as.store.AddAliases(ctx, ref.layer, ref.id, aliases)
		switch err {
		case nil:
			merged++
		case search.ErrNotFound:
			as.logger.Warn("learned alias points at a missing feature",
				zap.String("layer", ref.layer.String()),
				zap.String("feature_id", ref.id))
		default:
			return merged, fmt.Errorf("merge aliases into %s/%s: %w", ref.layer, ref.id, err)
		}
	}

	if merged > 0 {
		if _, err := as.rebuildSearchIndex(ctx); err != nil {
			return merged, err
		}
	}

	as.logger.Info("learned aliases merged",
		zap.Int("alias_groups", len(grouped)),
		zap.Int("features_updated", merged))
	return merged, nil
}

// InvalidateCache drops cached results. With a version, only entries from
// other gazetteer versions go; without one, the whole cache is cleared.
func (as *AdminService) InvalidateCache(ctx context.Context, gazetteerVersion string) error {
	if as.cache == nil {
		return nil
	}
	if gazetteerVersion != "" {
		return as.cache.InvalidateByGazetteerVersion(ctx, gazetteerVersion)
	}
	return as.cache.Clear(ctx)
}

// GetSystemStats assembles the admin stats payload.
func (as *AdminService) GetSystemStats(ctx context.Context, environment string, uptime time.Duration) (*responses.SystemStatsResponse, error) {
	dbStats, err := as.getDatabaseStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("database stats: %w", err)
	}

	var hitRate float64
	if as.cache != nil {
		if cs, err := as.cache.GetStats(ctx); err == nil {
			hitRate = cs.HitRate
		} else {
			as.logger.Warn("cache stats unavailable", zap.Error(err))
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &responses.SystemStatsResponse{
		CacheHitRate:    hitRate,
		TotalCached:     dbStats.GeocodeCache,
		ReviewQueueSize: dbStats.GeocodeReviews,
		SystemInfo: responses.SystemInfo{
			Version:     "1.0.0",
			Environment: environment,
			Uptime:      uptime.Round(time.Second).String(),
			MemoryUsage: map[string]interface{}{
				"alloc_mb":       bToMb(m.Alloc),
				"total_alloc_mb": bToMb(m.TotalAlloc),
				"sys_mb":         bToMb(m.Sys),
				"num_gc":         m.NumGC,
			},
		},
		DatabaseStats: *dbStats,
	}, nil
}

func (as *AdminService) getDatabaseStats(ctx context.Context) (*responses.DatabaseStats, error) {
	stats := &responses.DatabaseStats{
		FeaturesByLayer: make(map[string]int64, 5),
	}

	counts, err := as.store.CountByLayer(ctx)
	if err != nil {
		return nil, err
	}
	for layer, n := range counts {
		stats.FeaturesByLayer[layer.String()] = n
		stats.TotalFeatures += n
	}

	for _, c := range []struct {
		name string
		dst  *int64
	}{
		{"geocode_cache", &stats.GeocodeCache},
		{"geocode_reviews", &stats.GeocodeReviews},
		{"learned_aliases", &stats.LearnedAliases},
	} {
		n, err := as.db.Collection(c.name).CountDocuments(ctx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.name, err)
		}
		*c.dst = n
	}

	return stats, nil
}

// ExportData dumps a collection as indented JSON for backups. Supported
// types: one of the feature layers, geocode_cache, geocode_reviews,
// learned_aliases.
func (as *AdminService) ExportData(ctx context.Context, dataType string, limit int) ([]byte, error) {
	var collection *mongo.Collection
	if layer, ok := models.ParseLayer(dataType); ok {
		collection = as.db.Collection("features_" + layer.String())
	} else {
		switch dataType {
		case "geocode_cache", "geocode_reviews", "learned_aliases":
			collection = as.db.Collection(dataType)
		default:
			return nil, fmt.Errorf("unsupported export type %q", dataType)
		}
	}

	if limit <= 0 {
		limit = 10000
	}
	cursor, err := collection.Find(ctx, bson.M{}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", dataType, err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode %s: %w", dataType, err)
	}

	return json.MarshalIndent(results, "", "  ")
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
