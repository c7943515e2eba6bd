package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/models"
)

// MongoCacheService persists geocode results in MongoDB with an LRU
// in-memory layer in front. Entries survive restarts and carry access
// bookkeeping so the hottest ones can be reloaded on startup.
type MongoCacheService struct {
	db         *mongo.Database
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.GeocodeResult]
	logger     *zap.Logger

	totalHits int64
	totalMiss int64
	l1Hits    int64
	l1Miss    int64
	mongoHits int64
	mongoMiss int64
}

var _ ResultCache = (*MongoCacheService)(nil)

// NewMongoCacheService creates the cache collection indexes and the L1 layer.
func NewMongoCacheService(db *mongo.Database, l1Size int, logger *zap.Logger) (*MongoCacheService, error) {
	l1Cache, err := lru.New[string, *models.GeocodeResult](l1Size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}

	collection := db.Collection("geocode_cache")

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{bson.E{Key: "gazetteer_version", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "resolved_layer", Value: 1}},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("could not create geocode_cache indexes", zap.Error(err))
	}

	return &MongoCacheService{
		db:         db,
		collection: collection,
		l1Cache:    l1Cache,
		logger:     logger,
	}, nil
}

// Get checks the L1 layer first, then MongoDB by fingerprint.
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.GeocodeResult, bool, error) {
	if result, found := mcs.l1Cache.Get(key); found {
		atomic.AddInt64(&mcs.l1Hits, 1)
		atomic.AddInt64(&mcs.totalHits, 1)
		mcs.logger.Debug("l1 cache hit", zap.String("key", key))
		return result, true, nil
	}
	atomic.AddInt64(&mcs.l1Miss, 1)

	fingerprint := models.CacheFingerprint(key)

	var entry models.GeocodeCache
	filter := bson.M{"fingerprint": fingerprint}

	err := mcs.collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			atomic.AddInt64(&mcs.mongoMiss, 1)
			atomic.AddInt64(&mcs.totalMiss, 1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query mongo cache: %w", err)
	}

	atomic.AddInt64(&mcs.mongoHits, 1)
	atomic.AddInt64(&mcs.totalHits, 1)

	go mcs.updateAccessStats(entry.ID)

	mcs.l1Cache.Add(key, &entry.Result)

	mcs.logger.Debug("mongo cache hit",
		zap.String("key", key),
		zap.String("fingerprint", fingerprint))

	return &entry.Result, true, nil
}

// Set writes through to both layers.
func (mcs *MongoCacheService) Set(ctx context.Context, key string, result *models.GeocodeResult) error {
	mcs.l1Cache.Add(key, result)

	entry := models.NewGeocodeCache(key, *result)

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"fingerprint": entry.Fingerprint}

	if _, err := mcs.collection.ReplaceOne(ctx, filter, entry, opts); err != nil {
		mcs.logger.Error("mongo cache write failed",
			zap.Error(err),
			zap.String("fingerprint", entry.Fingerprint))
		return fmt.Errorf("write mongo cache: %w", err)
	}

	mcs.logger.Debug("stored in mongo cache",
		zap.String("key", key),
		zap.String("fingerprint", entry.Fingerprint),
		zap.Float64("score", result.Score))

	return nil
}

// Delete removes a key from both layers.
func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)

	fingerprint := models.CacheFingerprint(key)
	filter := bson.M{"fingerprint": fingerprint}

	if _, err := mcs.collection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("delete from mongo cache: %w", err)
	}

	return nil
}

// Clear drops every entry and resets the counters.
func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear mongo cache: %w", err)
	}

	atomic.StoreInt64(&mcs.totalHits, 0)
	atomic.StoreInt64(&mcs.totalMiss, 0)
	atomic.StoreInt64(&mcs.l1Hits, 0)
	atomic.StoreInt64(&mcs.l1Miss, 0)
	atomic.StoreInt64(&mcs.mongoHits, 0)
	atomic.StoreInt64(&mcs.mongoMiss, 0)

	return nil
}

// InvalidateByGazetteerVersion drops every entry resolved against another
// gazetteer version. The L1 layer cannot be filtered, so it is purged whole.
func (mcs *MongoCacheService) InvalidateByGazetteerVersion(ctx context.Context, gazetteerVersion string) error {
	mcs.l1Cache.Purge()

	filter := bson.M{"gazetteer_version": bson.M{"$ne": gazetteerVersion}}

	result, err := mcs.collection.DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("invalidate mongo cache by gazetteer version: %w", err)
	}

	mcs.logger.Info("cache invalidated",
		zap.String("gazetteer_version", gazetteerVersion),
		zap.Int64("deleted_count", result.DeletedCount))

	return nil
}

// GetStats reports combined counters and the persisted item count.
func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	mongoCount, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count mongo cache documents: %w", err)
	}

	hits := atomic.LoadInt64(&mcs.totalHits)
	misses := atomic.LoadInt64(&mcs.totalMiss)

	total := hits + misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	stats := &CacheStats{
		HitRate:    hitRate,
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: mongoCount,
	}

	mcs.logger.Debug("cache stats",
		zap.Float64("hit_rate", hitRate),
		zap.Int64("total_hits", hits),
		zap.Int64("total_miss", misses),
		zap.Int("l1_size", mcs.l1Cache.Len()),
		zap.Int64("mongo_count", mongoCount))

	return stats, nil
}

// Exists checks the L1 layer, then MongoDB.
func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}

	fingerprint := models.CacheFingerprint(key)
	filter := bson.M{"fingerprint": fingerprint}

	count, err := mcs.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("check mongo cache existence: %w", err)
	}

	return count > 0, nil
}

// GetTTL always returns zero. Persisted entries do not expire; they are
// invalidated by gazetteer version instead.
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

// Close is a no-op. The Mongo client is owned by the caller.
func (mcs *MongoCacheService) Close() error {
	return nil
}

// updateAccessStats bumps access bookkeeping off the request path.
func (mcs *MongoCacheService) updateAccessStats(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}

	if _, err := mcs.collection.UpdateOne(ctx, filter, update); err != nil {
		mcs.logger.Warn("could not update cache access stats", zap.Error(err))
	}
}

// GetL1Stats breaks the counters down by layer for the admin stats endpoint.
func (mcs *MongoCacheService) GetL1Stats() map[string]interface{} {
	return map[string]interface{}{
		"l1_size":    mcs.l1Cache.Len(),
		"l1_hits":    atomic.LoadInt64(&mcs.l1Hits),
		"l1_miss":    atomic.LoadInt64(&mcs.l1Miss),
		"mongo_hits": atomic.LoadInt64(&mcs.mongoHits),
		"mongo_miss": atomic.LoadInt64(&mcs.mongoMiss),
		"total_hits": atomic.LoadInt64(&mcs.totalHits),
		"total_miss": atomic.LoadInt64(&mcs.totalMiss),
	}
}

// WarmUp loads the most accessed entries into the L1 layer.
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("warm up cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.GeocodeCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("skipping unreadable cache entry during warm up", zap.Error(err))
			continue
		}

		mcs.l1Cache.Add(entry.NormalizedText, &entry.Result)
		count++
	}

	mcs.logger.Info("cache warm up finished",
		zap.Int("loaded_items", count),
		zap.Int("l1_size", mcs.l1Cache.Len()))

	return nil
}
