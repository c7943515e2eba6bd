package search

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/internal/normalizer"
	"github.com/ssd-geocoder/internal/spatial"
)

// featureDoc is the stored shape: the feature plus its raw GeoJSON geometry.
// Geometry stays out of the search documents; it only lives here.
type featureDoc struct {
	models.Feature `bson:",inline"`
	GeometryJSON   string `bson:"geometry_json,omitempty"`
}

// FeatureStore persists gazetteer features in MongoDB, one collection per
// layer (features_settlements, features_admin4_boma, ...). It feeds memory
// index loads, Meilisearch seeding and the spatial resolver snapshots.
type FeatureStore struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewFeatureStore wraps the database. The caller owns the client lifecycle.
func NewFeatureStore(db *mongo.Database, logger *zap.Logger) *FeatureStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeatureStore{db: db, logger: logger}
}

func (s *FeatureStore) collection(layer models.Layer) *mongo.Collection {
	return s.db.Collection("features_" + string(layer))
}

// EnsureIndexes creates the lookup indexes on every layer collection.
func (s *FeatureStore) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "feature_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{bson.E{Key: "normalized_name", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "hierarchy.state", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "hierarchy.county", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "gazetteer_version", Value: 1}},
		},
	}
	for _, layer := range models.CascadeLayers() {
		if _, err := s.collection(layer).Indexes().CreateMany(ctx, indexModels); err != nil {
			return fmt.Errorf("create indexes for %s: %w", layer, err)
		}
	}
	return nil
}

// UpsertRecords writes one layer's records, replacing existing features by
// feature_id. Returns the number of inserted or changed documents.
func (s *FeatureStore) UpsertRecords(ctx context.Context, layer models.Layer, recs []FeatureRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(recs))
	for _, rec := range recs {
		f := rec.Feature
		f.Layer = layer
		if f.NormalizedName == "" {
			f.NormalizedName = normalizer.Normalize(f.Name)
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = now
		}
		f.UpdatedAt = now
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"feature_id": f.FeatureID}).
			SetReplacement(featureDoc{Feature: f, GeometryJSON: rec.GeometryJSON}).
			SetUpsert(true))
	}
	res, err := s.collection(layer).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("upsert %s features: %w", layer, err)
	}
	written := int(res.UpsertedCount + res.ModifiedCount)
	s.logger.Info("features upserted",
		zap.String("layer", layer.String()),
		zap.Int("records", len(recs)),
		zap.Int64("inserted", res.UpsertedCount),
		zap.Int64("replaced", res.ModifiedCount))
	return written, nil
}

// GetFeature looks one feature up by id.
func (s *FeatureStore) GetFeature(ctx context.Context, layer models.Layer, featureID string) (*models.Feature, error) {
	var doc featureDoc
	err := s.collection(layer).FindOne(ctx, bson.M{"feature_id": featureID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find feature %s/%s: %w", layer, featureID, err)
	}
	f := doc.Feature
	return &f, nil
}

// GetGeometry returns the decoded geometry of one feature. Features stored
// without geometry fall back to a point built from their centroid.
func (s *FeatureStore) GetGeometry(ctx context.Context, layer models.Layer, featureID string) (*spatial.Geometry, error) {
	var doc featureDoc
	err := s.collection(layer).FindOne(ctx, bson.M{"feature_id": featureID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find geometry %s/%s: %w", layer, featureID, err)
	}
	if doc.GeometryJSON != "" {
		g, err := spatial.ParseGeometry([]byte(doc.GeometryJSON))
		if err != nil {
			return nil, fmt.Errorf("parse geometry %s/%s: %w", layer, featureID, err)
		}
		return g, nil
	}
	if doc.HasCentroid() {
		return &spatial.Geometry{Point: &spatial.Point{
			Lon: *doc.CentroidLon,
			Lat: *doc.CentroidLat,
		}}, nil
	}
	return nil, ErrNotFound
}

// LayerRecords implements RecordSource: every stored record of one layer.
func (s *FeatureStore) LayerRecords(ctx context.Context, layer models.Layer) ([]FeatureRecord, error) {
	cur, err := s.collection(layer).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load %s features: %w", layer, err)
	}
	defer cur.Close(ctx)

	var out []FeatureRecord
	for cur.Next(ctx) {
		var doc featureDoc
		if err := cur.Decode(&doc); err != nil {
			s.logger.Warn("skipping undecodable feature",
				zap.String("layer", layer.String()),
				zap.Error(err))
			continue
		}
		out = append(out, FeatureRecord{Feature: doc.Feature, GeometryJSON: doc.GeometryJSON})
	}
	return out, cur.Err()
}

// LayerFeatures implements spatial.GeometrySource: the polygon features of
// one layer. Malformed geometry is skipped, the feature stays searchable.
func (s *FeatureStore) LayerFeatures(ctx context.Context, layer models.Layer) ([]spatial.LayerFeature, error) {
	filter := bson.M{"geometry_json": bson.M{"$exists": true, "$ne": ""}}
	cur, err := s.collection(layer).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load %s geometries: %w", layer, err)
	}
	defer cur.Close(ctx)

	var out []spatial.LayerFeature
	for cur.Next(ctx) {
		var doc featureDoc
		if err := cur.Decode(&doc); err != nil {
			s.logger.Warn("skipping undecodable feature",
				zap.String("layer", layer.String()),
				zap.Error(err))
			continue
		}
		g, err := spatial.ParseGeometry([]byte(doc.GeometryJSON))
		if err != nil {
			s.logger.Warn("skipping malformed geometry",
				zap.String("layer", layer.String()),
				zap.String("feature_id", doc.FeatureID),
				zap.Error(err))
			continue
		}
		if len(g.Polygons) == 0 {
			continue
		}
		out = append(out, spatial.LayerFeature{
			FeatureID: doc.FeatureID,
			Name:      doc.Name,
			Polygons:  g.Polygons,
		})
	}
	return out, cur.Err()
}

// CountByLayer returns the stored feature count per layer.
func (s *FeatureStore) CountByLayer(ctx context.Context) (map[models.Layer]int64, error) {
	out := make(map[models.Layer]int64, 5)
	for _, layer := range models.CascadeLayers() {
		n, err := s.collection(layer).CountDocuments(ctx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("count %s features: %w", layer, err)
		}
		out[layer] = n
	}
	return out, nil
}

// PruneOldVersions deletes features from gazetteer versions other than the
// one given. Runs after a full reseed.
func (s *FeatureStore) PruneOldVersions(ctx context.Context, version string) (int64, error) {
	var total int64
	for _, layer := range models.CascadeLayers() {
		res, err := s.collection(layer).DeleteMany(ctx, bson.M{"gazetteer_version": bson.M{"$ne": version}})
		if err != nil {
			return total, fmt.Errorf("prune %s features: %w", layer, err)
		}
		total += res.DeletedCount
	}
	return total, nil
}

// AddAliases merges normalized aliases into a feature's alias list without
// duplicating existing entries.
func (s *FeatureStore) AddAliases(ctx context.Context, layer models.Layer, featureID string, aliases []string) error {
	normalized := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if n := normalizer.Normalize(a); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return nil
	}

	update := bson.M{
		"$addToSet": bson.M{"aliases": bson.M{"$each": normalized}},
		"$set":      bson.M{"updated_at": time.Now()},
	}
	res, err := s.collection(layer).UpdateOne(ctx, bson.M{"feature_id": featureID}, update)
	if err != nil {
		return fmt.Errorf("add aliases to %s/%s: %w", layer, featureID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
