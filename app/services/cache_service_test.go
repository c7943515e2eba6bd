package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssd-geocoder/app/models"
)

func cachedResult(text, version string) *models.GeocodeResult {
	return &models.GeocodeResult{
		InputText:        text,
		NormalizedText:   text,
		ResolvedLayer:    models.LayerSettlement,
		MatchedName:      text,
		Score:            0.95,
		GazetteerVersion: version,
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheService(time.Hour)
	defer cache.Close()

	_, found, err := cache.Get(ctx, "bentiu")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "bentiu", cachedResult("bentiu", "v1")))

	got, found, err := cache.Get(ctx, "bentiu")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "bentiu", got.MatchedName)

	exists, err := cache.Exists(ctx, "bentiu")
	require.NoError(t, err)
	assert.True(t, exists)

	ttl, err := cache.GetTTL(ctx, "bentiu")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheService(10 * time.Millisecond)
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "mayom", cachedResult("mayom", "v1")))
	time.Sleep(25 * time.Millisecond)

	_, found, err := cache.Get(ctx, "mayom")
	require.NoError(t, err)
	assert.False(t, found, "expired entries must read as misses")

	ttl, err := cache.GetTTL(ctx, "mayom")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)
}

func TestMemoryCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheService(time.Hour)
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "leer", cachedResult("leer", "v1")))
	require.NoError(t, cache.Set(ctx, "koch", cachedResult("koch", "v1")))

	require.NoError(t, cache.Delete(ctx, "leer"))
	_, found, _ := cache.Get(ctx, "leer")
	assert.False(t, found)
	assert.Equal(t, 1, cache.Size())

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.Size())
}

func TestMemoryCacheInvalidateByGazetteerVersion(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheService(time.Hour)
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "old", cachedResult("old", "v1")))
	require.NoError(t, cache.Set(ctx, "current", cachedResult("current", "v2")))

	require.NoError(t, cache.InvalidateByGazetteerVersion(ctx, "v2"))

	_, found, _ := cache.Get(ctx, "old")
	assert.False(t, found, "entries from other versions must be dropped")
	_, found, _ = cache.Get(ctx, "current")
	assert.True(t, found)
}

func TestMemoryCacheStats(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCacheService(time.Hour)
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "rubkona", cachedResult("rubkona", "v1")))

	cache.Get(ctx, "rubkona")
	cache.Get(ctx, "rubkona")
	cache.Get(ctx, "nowhere")

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.Equal(t, int64(1), stats.TotalItems)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestApplyMinScoreCopiesResult(t *testing.T) {
	original := cachedResult("abiemnhom", "v1")
	original.Alternatives = []models.MatchCandidate{
		{Layer: models.LayerSettlement, FeatureID: "A", Score: 0.9},
		{Layer: models.LayerBoma, FeatureID: "B", Score: 0.4},
	}

	filtered := applyMinScore(original, 0.5)

	require.Len(t, filtered.Alternatives, 1)
	assert.Equal(t, "A", filtered.Alternatives[0].FeatureID)
	// The shared (possibly cached) result must keep its alternatives.
	assert.Len(t, original.Alternatives, 2)
}
