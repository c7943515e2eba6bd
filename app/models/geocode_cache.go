package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeocodeCache is the persisted form of a finished resolution. The
// gazetteer version lives in its own indexed field so stale entries can be
// dropped in bulk after a reseed.
type GeocodeCache struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint      string             `bson:"fingerprint" json:"fingerprint"` // sha256 of the normalized text
	RawText          string             `bson:"raw_text" json:"raw_text"`
	NormalizedText   string             `bson:"normalized_text" json:"normalized_text"`
	Result           GeocodeResult      `bson:"result" json:"result"`
	Score            float64            `bson:"score" json:"score"`
	ResolvedLayer    string             `bson:"resolved_layer" json:"resolved_layer"`
	GazetteerVersion string             `bson:"gazetteer_version" json:"gazetteer_version"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed     time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount      int                `bson:"access_count" json:"access_count"`
}

// CacheFingerprint derives the storage key for a normalized input text.
func CacheFingerprint(normalizedText string) string {
	sum := sha256.Sum256([]byte(normalizedText))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// NewGeocodeCache wraps a result for persistence under the given cache key.
func NewGeocodeCache(key string, result GeocodeResult) *GeocodeCache {
	now := time.Now()
	return &GeocodeCache{
		Fingerprint:      CacheFingerprint(key),
		RawText:          result.InputText,
		NormalizedText:   result.NormalizedText,
		Result:           result,
		Score:            result.Score,
		ResolvedLayer:    string(result.ResolvedLayer),
		GazetteerVersion: result.GazetteerVersion,
		CreatedAt:        now,
		LastAccessed:     now,
		AccessCount:      1,
	}
}

// UpdateAccess bumps the access bookkeeping.
func (gc *GeocodeCache) UpdateAccess() {
	gc.LastAccessed = time.Now()
	gc.AccessCount++
}

// IsExpired reports whether the entry is older than the given TTL.
func (gc *GeocodeCache) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(gc.CreatedAt) > ttl
}
