// Package routes mounts the geocoder HTTP surface: the /v1 API, health
// probes and the Prometheus scrape endpoint.
//
// routes.SetupAllRoutes(router, geocodeController, adminController)
package routes
