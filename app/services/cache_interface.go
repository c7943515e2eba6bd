package services

import (
	"context"
	"time"

	"github.com/ssd-geocoder/app/models"
)

// CacheStats summarizes cache behaviour since startup.
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ResultCache stores geocode results keyed by normalized input text. All
// implementations also satisfy the geocoder's narrower read/write interface,
// so the same instance is wired into the resolution pipeline and the admin
// endpoints.
type ResultCache interface {
	// Get returns the cached result for a key, reporting whether it was found.
	Get(ctx context.Context, key string) (*models.GeocodeResult, bool, error)

	// Set stores a result under a key.
	Set(ctx context.Context, key string, result *models.GeocodeResult) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// Clear removes every cached result.
	Clear(ctx context.Context) error

	// InvalidateByGazetteerVersion drops entries resolved against any
	// gazetteer version other than the one given.
	InvalidateByGazetteerVersion(ctx context.Context, gazetteerVersion string) error

	// GetStats reports hit/miss counters and the current item count.
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists reports whether a key is cached without touching access stats.
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL returns the remaining lifetime of a key, zero when the backend
	// does not expire entries.
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close releases backend connections.
	Close() error
}
