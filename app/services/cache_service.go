package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ssd-geocoder/app/models"
)

// MemoryCacheService keeps geocode results in a process-local map with a
// fixed TTL. It is the default backend when neither Redis nor MongoDB is
// configured.
type MemoryCacheService struct {
	cache      map[string]*models.GeocodeResult
	timestamps map[string]time.Time
	mu         sync.RWMutex
	ttl        time.Duration
	hits       int64
	misses     int64
}

var _ ResultCache = (*MemoryCacheService)(nil)

// NewMemoryCacheService creates an in-memory cache with the given TTL.
func NewMemoryCacheService(ttl time.Duration) *MemoryCacheService {
	return &MemoryCacheService{
		cache:      make(map[string]*models.GeocodeResult),
		timestamps: make(map[string]time.Time),
		ttl:        ttl,
	}
}

// Get returns the cached result for a key.
func (cs *MemoryCacheService) Get(ctx context.Context, key string) (*models.GeocodeResult, bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if result, exists := cs.cache[key]; exists {
		if cs.isExpired(key) {
			go cs.deleteExpired(key)
			atomic.AddInt64(&cs.misses, 1)
			return nil, false, nil
		}
		atomic.AddInt64(&cs.hits, 1)
		return result, true, nil
	}

	atomic.AddInt64(&cs.misses, 1)
	return nil, false, nil
}

// Set stores a result under a key.
func (cs *MemoryCacheService) Set(ctx context.Context, key string, result *models.GeocodeResult) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.timestamps[key] = time.Now()
	cs.cache[key] = result

	return nil
}

// Delete removes a single key.
func (cs *MemoryCacheService) Delete(ctx context.Context, key string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
	delete(cs.timestamps, key)

	return nil
}

// Clear removes every cached result.
func (cs *MemoryCacheService) Clear(ctx context.Context) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache = make(map[string]*models.GeocodeResult)
	cs.timestamps = make(map[string]time.Time)

	return nil
}

// InvalidateByGazetteerVersion drops entries resolved against any other
// gazetteer version.
func (cs *MemoryCacheService) InvalidateByGazetteerVersion(ctx context.Context, gazetteerVersion string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key, result := range cs.cache {
		if result == nil || result.GazetteerVersion != gazetteerVersion {
			delete(cs.cache, key)
			delete(cs.timestamps, key)
		}
	}

	return nil
}

// Size returns the number of stored entries, expired ones included.
func (cs *MemoryCacheService) Size() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return len(cs.cache)
}

// GetStats reports hit/miss counters and the live item count.
func (cs *MemoryCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	active := int64(0)
	for key := range cs.cache {
		if !cs.isExpired(key) {
			active++
		}
	}

	hits := atomic.LoadInt64(&cs.hits)
	misses := atomic.LoadInt64(&cs.misses)
	stats := &CacheStats{
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: active,
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats, nil
}

// CleanupExpired removes every expired entry.
func (cs *MemoryCacheService) CleanupExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if cs.isExpired(key) {
			delete(cs.cache, key)
			delete(cs.timestamps, key)
		}
	}
}

// isExpired assumes the caller holds at least a read lock.
func (cs *MemoryCacheService) isExpired(key string) bool {
	timestamp, exists := cs.timestamps[key]
	if !exists {
		return true
	}
	return time.Since(timestamp) > cs.ttl
}

func (cs *MemoryCacheService) deleteExpired(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
	delete(cs.timestamps, key)
}

// Exists reports whether a key is cached.
func (cs *MemoryCacheService) Exists(ctx context.Context, key string) (bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	_, exists := cs.cache[key]
	return exists, nil
}

// GetTTL returns the remaining lifetime of a key.
func (cs *MemoryCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	timestamp, exists := cs.timestamps[key]
	if !exists {
		return 0, nil
	}

	remaining := cs.ttl - time.Since(timestamp)
	if remaining < 0 {
		return 0, nil
	}

	return remaining, nil
}

// StartCleanupWorker sweeps expired entries on the given interval for the
// life of the process.
func (cs *MemoryCacheService) StartCleanupWorker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			cs.CleanupExpired()
		}
	}()
}

// Close is a no-op for the in-memory backend.
func (cs *MemoryCacheService) Close() error {
	return nil
}
