package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, route, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// GARuns counts engine runs by outcome: completed, converged, timed_out or error
	GARuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ga_runs_total", Help: "Genetic algorithm runs by outcome."},
		[]string{"outcome"},
	)
	// GAGenerations records how many generations each run evaluated
	GAGenerations = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "ga_generations", Help: "Generations evaluated per run.", Buckets: []float64{0, 1, 5, 10, 20, 30, 50, 100, 200}},
	)
	// GAExecution records engine wall-clock time in seconds
	GAExecution = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "ga_execution_seconds", Help: "Genetic algorithm execution time in seconds.", Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}},
	)

	// CacheLookups counts recommendation cache lookups by result: hit, miss or error
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "recommendation_cache_lookups_total", Help: "Recommendation cache lookups by result."},
		[]string{"result"},
	)
	// WeatherFallbacks counts forecasts replaced by the built-in estimate
	WeatherFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "weather_fallbacks_total", Help: "Weather lookups answered with an estimate."},
	)
	// CatalogSyncs counts catalog imports by status
	CatalogSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "catalog_syncs_total", Help: "Catalog imports by status."},
		[]string{"status"},
	)
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(GARuns)
		Registry.MustRegister(GAGenerations)
		Registry.MustRegister(GAExecution)
		Registry.MustRegister(CacheLookups)
		Registry.MustRegister(WeatherFallbacks)
		Registry.MustRegister(CatalogSyncs)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
