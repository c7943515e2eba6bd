package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/app/requests"
	"github.com/ssd-geocoder/internal/geocoder"
	"github.com/ssd-geocoder/internal/spatial"
)

// GeocodeService fronts the resolution pipeline for the HTTP layer: request
// options, reverse lookups, and batch jobs with an in-memory registry.
type GeocodeService struct {
	geocoder  *geocoder.Geocoder
	resolver  *spatial.HierarchyResolver
	reviews   *ReviewService
	logger    *zap.Logger
	startTime time.Time
	mu        sync.RWMutex

	jobs       map[string]*JobStatus
	jobResults map[string][]*models.GeocodeResult
}

// JobStatus tracks one batch job.
type JobStatus struct {
	JobID              string
	Status             string
	Progress           float64
	Processed          int
	Total              int
	EstimatedRemaining int // seconds
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewGeocodeService wires the pipeline and the job registry. The review
// service may be nil, in which case low-score results are not queued.
func NewGeocodeService(gc *geocoder.Geocoder, resolver *spatial.HierarchyResolver, reviews *ReviewService, logger *zap.Logger) *GeocodeService {
	return &GeocodeService{
		geocoder:   gc,
		resolver:   resolver,
		reviews:    reviews,
		logger:     logger,
		startTime:  time.Now(),
		jobs:       make(map[string]*JobStatus),
		jobResults: make(map[string][]*models.GeocodeResult),
	}
}

// Geocode resolves one text with per-request options. It never fails;
// unresolvable input yields a zero-score result.
func (gs *GeocodeService) Geocode(ctx context.Context, text string, opts requests.GeocodeOptions) *models.GeocodeResult {
	gopts := geocoder.Options{
		MaxAlternatives: opts.MaxAlternatives,
	}
	if opts.UseCache != nil && !*opts.UseCache {
		gopts.SkipCache = true
	}

	result := gs.geocoder.GeocodeWithOptions(ctx, text, gopts)
	result = applyMinScore(result, opts.MinScore)

	if gs.reviews != nil && gs.reviews.ShouldReview(result) {
		go gs.enqueueReview(*result)
	}

	return result
}

// applyMinScore drops alternatives under the floor. The result may be a
// shared cache entry, so filtering works on a copy.
func applyMinScore(result *models.GeocodeResult, minScore float64) *models.GeocodeResult {
	if minScore <= 0 || len(result.Alternatives) == 0 {
		return result
	}

	filtered := *result
	alts := make([]models.MatchCandidate, 0, len(result.Alternatives))
	for _, alt := range result.Alternatives {
		if alt.Score >= minScore {
			alts = append(alts, alt)
		}
	}
	filtered.Alternatives = alts
	return &filtered
}

func (gs *GeocodeService) enqueueReview(result models.GeocodeResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := gs.reviews.Enqueue(ctx, &result); err != nil {
		gs.logger.Warn("could not queue result for review",
			zap.Error(err),
			zap.String("text", result.InputText))
	}
}

// Reverse returns the admin hierarchy containing a point.
func (gs *GeocodeService) Reverse(ctx context.Context, lon, lat float64) models.AdminHierarchy {
	return gs.resolver.HierarchyFor(ctx, spatial.Point{Lon: lon, Lat: lat})
}

// EstimateBatchProcessingTime guesses job duration in seconds from the item
// count, assuming roughly 100ms per text.
func (gs *GeocodeService) EstimateBatchProcessingTime(textCount int) int {
	estimatedMs := textCount * 100
	return estimatedMs / 1000
}

// ProcessBatchJob resolves a list of texts under a job ID. Meant to run in
// its own goroutine; progress is readable through GetJobStatus while it runs.
func (gs *GeocodeService) ProcessBatchJob(jobID string, texts []string, opts requests.GeocodeOptions) {
	gs.mu.Lock()
	gs.jobs[jobID] = &JobStatus{
		JobID:     jobID,
		Status:    "running",
		Progress:  0.0,
		Processed: 0,
		Total:     len(texts),
		Message:   "processing",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	gs.mu.Unlock()

	ctx := context.Background()
	results := make([]*models.GeocodeResult, len(texts))

	for i, text := range texts {
		gopts := geocoder.Options{MaxAlternatives: opts.MaxAlternatives}
		if opts.UseCache != nil && !*opts.UseCache {
			gopts.SkipCache = true
		}
		result := gs.geocoder.GeocodeWithOptions(ctx, text, gopts)
		results[i] = applyMinScore(result, opts.MinScore)

		gs.mu.Lock()
		if job, exists := gs.jobs[jobID]; exists {
			job.Processed = i + 1
			job.Progress = float64(i+1) / float64(len(texts))
			job.EstimatedRemaining = gs.EstimateBatchProcessingTime(len(texts) - i - 1)
			job.UpdatedAt = time.Now()

			if i == len(texts)-1 {
				job.Status = "done"
				job.Message = "completed"
			}
		}
		gs.mu.Unlock()
	}

	gs.mu.Lock()
	gs.jobResults[jobID] = results
	gs.mu.Unlock()

	gs.logger.Info("batch job completed",
		zap.String("job_id", jobID),
		zap.Int("total_texts", len(texts)))
}

// GetJobStatus returns a snapshot of a job's status. The registry entry is
// copied under the lock so callers never observe a running job mid-update.
func (gs *GeocodeService) GetJobStatus(jobID string) (JobStatus, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	job, exists := gs.jobs[jobID]
	if !exists {
		return JobStatus{}, errors.New("job not found")
	}

	return *job, nil
}

// GetJobResults returns a finished job's results.
func (gs *GeocodeService) GetJobResults(jobID string) ([]*models.GeocodeResult, error) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	results, exists := gs.jobResults[jobID]
	if !exists {
		return nil, errors.New("job results not found")
	}

	return results, nil
}

// GetJobResultsStream returns a finished job's results as a channel for
// streamed responses.
func (gs *GeocodeService) GetJobResultsStream(jobID string) (<-chan *models.GeocodeResult, error) {
	results, err := gs.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	resultChannel := make(chan *models.GeocodeResult, 100)

	go func() {
		defer close(resultChannel)
		for _, result := range results {
			resultChannel <- result
		}
	}()

	return resultChannel, nil
}

// GetStartTime returns when the service came up.
func (gs *GeocodeService) GetStartTime() time.Time {
	return gs.startTime
}

// GetStats reports service-level runtime information.
func (gs *GeocodeService) GetStats() map[string]interface{} {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	uptime := time.Since(gs.startTime)

	return map[string]interface{}{
		"uptime_seconds": int64(uptime.Seconds()),
		"start_time":     gs.startTime.Format(time.RFC3339),
		"active_jobs":    len(gs.jobs),
		"status":         "running",
	}
}
