package responses

import (
	"github.com/ssd-geocoder/app/models"
)

// GeocodeResponse wraps a single resolution.
type GeocodeResponse struct {
	GazetteerVersion string               `json:"gazetteer_version,omitempty"`
	Result           models.GeocodeResult `json:"result"`
	ProcessingTimeMs int64                `json:"processing_time_ms"`
}

// BatchGeocodeResponse acknowledges an accepted batch job.
type BatchGeocodeResponse struct {
	JobID            string `json:"job_id"`
	EstimatedSeconds int    `json:"estimated_seconds"`
	TotalTexts       int    `json:"total_texts"`
	Message          string `json:"message"`
}

// JobStatusResponse reports batch job progress.
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`
	Status             string  `json:"status"`
	Progress           float64 `json:"progress"`
	Processed          int     `json:"processed"`
	Total              int     `json:"total"`
	EstimatedRemaining int     `json:"estimated_remaining"` // seconds
	Message            string  `json:"message"`
}

// Job status values.
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// ReverseResponse carries the admin hierarchy containing a point.
type ReverseResponse struct {
	Lon       float64               `json:"lon"`
	Lat       float64               `json:"lat"`
	Hierarchy models.AdminHierarchy `json:"hierarchy"`
}

// SeedGazetteerResponse summarizes a seeding run.
type SeedGazetteerResponse struct {
	ValidationPassed bool     `json:"validation_passed"`
	Warnings         []string `json:"warnings,omitempty"`
	FeaturesUpserted int      `json:"features_upserted,omitempty"`
	FeaturesPruned   int64    `json:"features_pruned,omitempty"`
	IndexesBuilt     int      `json:"indexes_built,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms,omitempty"`
	DryRun           bool     `json:"dry_run"`
	Message          string   `json:"message"`
}

// ReviewListResponse pages through the review queue.
type ReviewListResponse struct {
	Reviews []models.GeocodeReview `json:"reviews"`
	Total   int64                  `json:"total"`
	Limit   int64                  `json:"limit"`
	Offset  int64                  `json:"offset"`
}

// ReviewActionResponse reports the outcome of a review decision.
type ReviewActionResponse struct {
	Success   bool   `json:"success"`
	ReviewID  string `json:"review_id"`
	Action    string `json:"action"`
	Message   string `json:"message"`
	UpdatedAt string `json:"updated_at"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// SuccessResponse is the uniform success envelope for admin actions.
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// HealthCheckResponse reports component health.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// SystemStatsResponse is the admin stats payload.
type SystemStatsResponse struct {
	CacheHitRate    float64       `json:"cache_hit_rate"`
	TotalCached     int64         `json:"total_cached"`
	ReviewQueueSize int64         `json:"review_queue_size"`
	SystemInfo      SystemInfo    `json:"system_info"`
	DatabaseStats   DatabaseStats `json:"database_stats"`
}

// SystemInfo describes the running process.
type SystemInfo struct {
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	MemoryUsage map[string]interface{} `json:"memory_usage"`
}

// DatabaseStats counts stored documents per concern.
type DatabaseStats struct {
	FeaturesByLayer map[string]int64 `json:"features_by_layer"`
	TotalFeatures   int64            `json:"total_features"`
	GeocodeCache    int64            `json:"geocode_cache"`
	GeocodeReviews  int64            `json:"geocode_reviews"`
	LearnedAliases  int64            `json:"learned_aliases"`
}
