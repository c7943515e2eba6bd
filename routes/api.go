package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ssd-geocoder/app/controllers"
	"github.com/ssd-geocoder/internal/metrics"
)

// SetupAPIRoutes mounts the versioned API.
func SetupAPIRoutes(router *gin.Engine, geocodeController *controllers.GeocodeController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		geocode := v1.Group("/geocode")
		{
			geocode.POST("", geocodeController.Geocode)
			geocode.POST("/jobs", geocodeController.BatchGeocode)
			geocode.GET("/jobs/:jobID/status", geocodeController.GetJobStatus)
			geocode.GET("/jobs/:jobID/results", geocodeController.GetJobResults)
		}

		v1.GET("/reverse", geocodeController.Reverse)

		admin := v1.Group("/admin")
		{
			admin.POST("/seed", adminController.SeedGazetteer)
			admin.POST("/indexes/build", adminController.BuildIndexes)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.GET("/stats", adminController.GetStats)
			admin.GET("/export/:type", adminController.ExportData)

			admin.GET("/reviews", adminController.ListReviews)
			admin.POST("/reviews/:reviewID/approve", adminController.ApproveReview)
			admin.POST("/reviews/:reviewID/reject", adminController.RejectReview)
			admin.POST("/reviews/:reviewID/correct", adminController.CorrectReview)
			admin.POST("/aliases/rebuild", adminController.RebuildAliases)
		}

		v1.GET("/health", geocodeController.HealthCheck)
	}
}

// SetupHealthRoutes mounts the unversioned probes.
func SetupHealthRoutes(router *gin.Engine, geocodeController *controllers.GeocodeController) {
	router.GET("/health", geocodeController.HealthCheck)
	router.GET("/ready", geocodeController.HealthCheck)
	router.GET("/live", geocodeController.HealthCheck)
}

// SetupMetricsRoutes mounts the Prometheus scrape endpoint.
func SetupMetricsRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// SetupAllRoutes mounts middleware and every route group.
func SetupAllRoutes(router *gin.Engine, geocodeController *controllers.GeocodeController, adminController *controllers.AdminController) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	SetupHealthRoutes(router, geocodeController)
	SetupAPIRoutes(router, geocodeController, adminController)
	SetupMetricsRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}
