// Command seed loads a gazetteer snapshot into the feature store and,
// optionally, Meilisearch. Input is one JSON file per layer named after the
// layer (settlements.json, admin4_boma.json, ...), each an array of features
// with optional embedded GeoJSON geometry:
//
//	seed -dir ./gazetteer -version ocha-2024-02 -mongo mongodb://localhost:27017 -meili http://localhost:7700
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/internal/search"
)

// seedFeature mirrors the admin seed endpoint's payload shape.
type seedFeature struct {
	models.Feature
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

func main() {
	dir := flag.String("dir", "", "directory holding one <layer>.json per layer (required)")
	version := flag.String("version", "", "gazetteer version tag (required)")
	mongoURL := flag.String("mongo", "mongodb://localhost:27017", "MongoDB URL")
	dbName := flag.String("db", "ssd_geocoder", "MongoDB database name")
	meiliHost := flag.String("meili", "", "Meilisearch host; empty skips search indexing")
	meiliKey := flag.String("meili-key", "", "Meilisearch API key")
	flag.Parse()

	if *dir == "" || *version == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("cannot initialize logger:", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURL))
	if err != nil {
		logger.Fatal("mongodb connect failed", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("mongodb unreachable", zap.Error(err))
	}

	store := search.NewFeatureStore(client.Database(*dbName), logger)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Warn("could not ensure store indexes", zap.Error(err))
	}

	var meili *search.MeiliIndex
	if *meiliHost != "" {
		meili, err = search.NewMeiliIndex(search.MeiliConfig{Host: *meiliHost, APIKey: *meiliKey}, store, logger)
		if err != nil {
			logger.Fatal("meilisearch init failed", zap.Error(err))
		}
		if err := meili.BuildIndexes(); err != nil {
			logger.Fatal("meilisearch settings failed", zap.Error(err))
		}
	}

	totalStored, totalIndexed := 0, 0
	for _, layer := range models.CascadeLayers() {
		path := filepath.Join(*dir, layer.String()+".json")
		feats, err := readLayerFile(path)
		if os.IsNotExist(err) {
			logger.Info("no file for layer, skipping", zap.String("layer", layer.String()))
			continue
		}
		if err != nil {
			logger.Fatal("cannot read layer file",
				zap.String("path", path),
				zap.Error(err))
		}

		recs := make([]search.FeatureRecord, 0, len(feats))
		indexable := make([]models.Feature, 0, len(feats))
		for _, sf := range feats {
			f := sf.Feature
			f.Layer = layer
			f.GazetteerVersion = *version
			recs = append(recs, search.FeatureRecord{
				Feature:      f,
				GeometryJSON: string(sf.Geometry),
			})
			indexable = append(indexable, f)
		}

		n, err := store.UpsertRecords(ctx, layer, recs)
		if err != nil {
			logger.Fatal("store upsert failed",
				zap.String("layer", layer.String()),
				zap.Error(err))
		}
		totalStored += n

		if meili != nil {
			if err := meili.SeedFeatures(indexable); err != nil {
				logger.Fatal("meilisearch seed failed",
					zap.String("layer", layer.String()),
					zap.Error(err))
			}
			totalIndexed += len(indexable)
		}

		logger.Info("layer seeded",
			zap.String("layer", layer.String()),
			zap.Int("features", len(feats)))
	}

	pruned, err := store.PruneOldVersions(ctx, *version)
	if err != nil {
		logger.Fatal("pruning old versions failed", zap.Error(err))
	}

	fmt.Printf("done: %d features stored, %d indexed, %d pruned (version %s)\n",
		totalStored, totalIndexed, pruned, *version)
}

func readLayerFile(path string) ([]seedFeature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var feats []seedFeature
	if err := json.Unmarshal(data, &feats); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return feats, nil
}
