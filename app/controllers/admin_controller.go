package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/requests"
	"github.com/ssd-geocoder/app/responses"
	"github.com/ssd-geocoder/app/services"
)

// AdminController handles gazetteer administration and the review queue.
type AdminController struct {
	adminService   *services.AdminService
	reviewService  *services.ReviewService
	geocodeService *services.GeocodeService
	environment    string
	logger         *zap.Logger
}

// NewAdminController wires the admin endpoints. reviewService may be nil
// when the review queue is disabled.
func NewAdminController(adminService *services.AdminService, reviewService *services.ReviewService, geocodeService *services.GeocodeService, environment string, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService:   adminService,
		reviewService:  reviewService,
		geocodeService: geocodeService,
		environment:    environment,
		logger:         logger,
	}
}

// SeedGazetteer loads a gazetteer snapshot. With ?dry_run=true only the
// validation runs.
func (ac *AdminController) SeedGazetteer(c *gin.Context) {
	var req requests.SeedGazetteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	if c.Query("dry_run") == "true" {
		validation := ac.adminService.ValidateSeed(req.Features)
		c.JSON(http.StatusOK, responses.SeedGazetteerResponse{
			ValidationPassed: validation.Passed,
			Warnings:         validation.Warnings,
			DryRun:           true,
			Message:          "validation only, nothing written",
		})
		return
	}

	result, err := ac.adminService.SeedGazetteer(c.Request.Context(), req)
	if err != nil {
		ac.logger.Error("gazetteer seed failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "SEED_ERROR",
			Message:   err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SeedGazetteerResponse{
		ValidationPassed: true,
		Warnings:         result.Warnings,
		FeaturesUpserted: result.FeaturesUpserted,
		FeaturesPruned:   result.FeaturesPruned,
		IndexesBuilt:     result.IndexesBuilt,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Message:          "gazetteer seeded",
	})
}

// BuildIndexes reseeds the search index from the feature store.
func (ac *AdminController) BuildIndexes(c *gin.Context) {
	built, err := ac.adminService.BuildIndexes(c.Request.Context())
	if err != nil {
		ac.logger.Error("index build failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "INDEX_BUILD_ERROR",
			Message:   err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "search indexes rebuilt",
		Data:      gin.H{"indexes_built": built},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// InvalidateCache clears cached results, optionally keeping only entries
// for ?gazetteer_version=.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	version := c.Query("gazetteer_version")

	if err := ac.adminService.InvalidateCache(c.Request.Context(), version); err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "CACHE_INVALIDATE_ERROR",
			Message:   err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "cache invalidated",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// GetStats returns the admin stats payload.
func (ac *AdminController) GetStats(c *gin.Context) {
	uptime := time.Since(ac.geocodeService.GetStartTime())
	stats, err := ac.adminService.GetSystemStats(c.Request.Context(), ac.environment, uptime)
	if err != nil {
		ac.logger.Error("stats assembly failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "STATS_ERROR",
			Message:   err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportData dumps one collection as JSON. ?limit= caps the row count.
func (ac *AdminController) ExportData(c *gin.Context) {
	dataType := c.Param("type")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10000"))

	data, err := ac.adminService.ExportData(c.Request.Context(), dataType, limit)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+dataType+".json")
	c.Data(http.StatusOK, "application/json", data)
}

// ListReviews pages through the review queue, filtered by ?status=.
func (ac *AdminController) ListReviews(c *gin.Context) {
	if ac.reviewService == nil {
		reviewsDisabled(c)
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	reviews, total, err := ac.reviewService.List(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, responses.ReviewListResponse{
		Reviews: reviews,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// ApproveReview accepts a queued resolution as correct.
func (ac *AdminController) ApproveReview(c *gin.Context) {
	ac.decideReview(c, "approve")
}

// RejectReview discards a queued resolution.
func (ac *AdminController) RejectReview(c *gin.Context) {
	ac.decideReview(c, "reject")
}

func (ac *AdminController) decideReview(c *gin.Context, action string) {
	if ac.reviewService == nil {
		reviewsDisabled(c)
		return
	}

	var req requests.ReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	reviewID := c.Param("reviewID")
	var err error
	if action == "approve" {
		_, err = ac.reviewService.Approve(c.Request.Context(), reviewID, req.ReviewerID)
	} else {
		_, err = ac.reviewService.Reject(c.Request.Context(), reviewID, req.ReviewerID)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:     "REVIEW_ERROR",
			Message:   err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, responses.ReviewActionResponse{
		Success:   true,
		ReviewID:  reviewID,
		Action:    action,
		Message:   "review " + action + "d",
		UpdatedAt: time.Now().Format(time.RFC3339),
	})
}

// CorrectReview closes a review with a manually resolved result and can
// record the original spelling as a learned alias.
func (ac *AdminController) CorrectReview(c *gin.Context) {
	if ac.reviewService == nil {
		reviewsDisabled(c)
		return
	}

	var req requests.ReviewCorrectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	reviewID := c.Param("reviewID")
	_, err := ac.reviewService.Correct(c.Request.Context(), reviewID, req.ReviewerID, req.ManualResult, req.LearnAlias)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:     "REVIEW_ERROR",
			Message:   err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, responses.ReviewActionResponse{
		Success:   true,
		ReviewID:  reviewID,
		Action:    "correct",
		Message:   "review corrected",
		UpdatedAt: time.Now().Format(time.RFC3339),
	})
}

// RebuildAliases merges reviewer-confirmed aliases into the gazetteer and
// reindexes.
func (ac *AdminController) RebuildAliases(c *gin.Context) {
	merged, err := ac.adminService.RebuildAliases(c.Request.Context())
	if err != nil {
		ac.logger.Error("alias rebuild failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:     "ALIAS_REBUILD_ERROR",
			Message:   err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "learned aliases merged",
		Data:      gin.H{"features_updated": merged},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, responses.ErrorResponse{
		Error:     "INVALID_REQUEST",
		Message:   msg,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func reviewsDisabled(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, responses.ErrorResponse{
		Error:     "REVIEWS_DISABLED",
		Message:   "the review queue is not enabled on this deployment",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
