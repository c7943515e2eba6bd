package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GeocodeRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_requests_total",
		Help: "Total geocode resolutions",
	})
	GeocodeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geocoder_duration_ms",
		Help:    "Geocode resolution duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000},
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_cache_hits_total",
		Help: "Total result cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_cache_misses_total",
		Help: "Total result cache misses",
	})
	StageMatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocoder_stage_matches_total",
		Help: "Resolutions won per cascade layer",
	}, []string{"layer"})
	NoMatchTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_no_match_total",
		Help: "Resolutions that matched nothing",
	})
	TooCoarseTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_too_coarse_total",
		Help: "Resolutions settled at county or state, no coordinates",
	})
	IndexQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocoder_index_queries_total",
		Help: "Search index queries by layer",
	}, []string{"layer"})
	IndexErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_index_errors_total",
		Help: "Search index queries that returned an error",
	})
	ExtractorCallsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_extractor_calls_total",
		Help: "Candidate extractor invocations",
	})
	ExtractorFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocoder_extractor_failures_total",
		Help: "Candidate extractor invocations that failed",
	})
)

func init() {
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(StageMatchesTotal)
	prometheus.MustRegister(NoMatchTotal)
	prometheus.MustRegister(TooCoarseTotal)
	prometheus.MustRegister(IndexQueriesTotal)
	prometheus.MustRegister(IndexErrorsTotal)
	prometheus.MustRegister(ExtractorCallsTotal)
	prometheus.MustRegister(ExtractorFailuresTotal)
}

// Handler serves the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
