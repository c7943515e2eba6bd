package controllers

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/requests"
	"github.com/ssd-geocoder/app/responses"
	"github.com/ssd-geocoder/app/services"
	"github.com/ssd-geocoder/helpers/utils"
)

// GeocodeController handles the resolution endpoints: single geocode, batch
// jobs, reverse lookup and health.
type GeocodeController struct {
	geocodeService *services.GeocodeService
	cacheService   services.ResultCache
	logger         *zap.Logger
}

// NewGeocodeController wires the resolution endpoints.
func NewGeocodeController(geocodeService *services.GeocodeService, cacheService services.ResultCache, logger *zap.Logger) *GeocodeController {
	return &GeocodeController{
		geocodeService: geocodeService,
		cacheService:   cacheService,
		logger:         logger,
	}
}

// Geocode resolves one free-form place text.
func (gc *GeocodeController) Geocode(c *gin.Context) {
	var req requests.GeocodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     "INVALID_REQUEST",
			Message:   "invalid request body: " + err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	start := time.Now()
	result := gc.geocodeService.Geocode(c.Request.Context(), req.Text, req.Options)

	c.JSON(http.StatusOK, responses.GeocodeResponse{
		GazetteerVersion: result.GazetteerVersion,
		Result:           *result,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// BatchGeocode queues a list of texts and returns a job handle.
func (gc *GeocodeController) BatchGeocode(c *gin.Context) {
	var req requests.BatchGeocodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     "INVALID_REQUEST",
			Message:   "invalid request body: " + err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	jobID := utils.GenerateUUID()
	estimated := gc.geocodeService.EstimateBatchProcessingTime(len(req.Texts))

	go gc.geocodeService.ProcessBatchJob(jobID, req.Texts, req.Options)

	c.JSON(http.StatusAccepted, responses.BatchGeocodeResponse{
		JobID:            jobID,
		EstimatedSeconds: estimated,
		TotalTexts:       len(req.Texts),
		Message:          "job accepted and processing",
	})
}

// GetJobStatus reports batch job progress.
func (gc *GeocodeController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")

	status, err := gc.geocodeService.GetJobStatus(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:     "JOB_NOT_FOUND",
			Message:   "unknown job: " + jobID,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              jobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Total:              status.Total,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults returns a finished job's results, as one JSON document or as
// NDJSON (with optional gzip) for large jobs.
func (gc *GeocodeController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	if c.Query("format") == "ndjson" {
		gc.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := gc.geocodeService.GetJobResults(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:     "JOB_NOT_FOUND",
			Message:   "no results for job: " + jobID,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "job results",
		Data:      results,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Reverse returns the administrative hierarchy containing a point.
func (gc *GeocodeController) Reverse(c *gin.Context) {
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	if errLon != nil || errLat != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     "INVALID_COORDINATES",
			Message:   "lon and lat query parameters must be numbers",
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:     "INVALID_COORDINATES",
			Message:   "coordinates out of range",
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	hierarchy := gc.geocodeService.Reverse(c.Request.Context(), lon, lat)

	c.JSON(http.StatusOK, responses.ReverseResponse{
		Lon:       lon,
		Lat:       lat,
		Hierarchy: hierarchy,
	})
}

// HealthCheck reports service health.
func (gc *GeocodeController) HealthCheck(c *gin.Context) {
	uptime := time.Since(gc.geocodeService.GetStartTime())

	cacheStatus := "healthy"
	if gc.cacheService != nil {
		if _, err := gc.cacheService.GetStats(c.Request.Context()); err != nil {
			cacheStatus = "degraded"
		}
	}

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    uptime.String(),
		Version:   "1.0.0",
		Services: map[string]string{
			"geocoder": "healthy",
			"cache":    cacheStatus,
		},
	})
}

// streamNDJSONResults streams one result per line, optionally gzipped.
func (gc *GeocodeController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := gc.geocodeService.GetJobResultsStream(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:     "JOB_NOT_FOUND",
			Message:   "no results for job: " + jobID,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.Header("Content-Type", "application/x-ndjson")

	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}

	encoder := json.NewEncoder(writer)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			gc.logger.Error("ndjson encode failed", zap.Error(err))
			break
		}
		if flusher, ok := writer.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// gzipResponseWriter routes writes through a gzip writer.
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
