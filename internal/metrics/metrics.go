// Package metrics defines the Prometheus collectors of the discovery service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discover_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommendations
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_recommendations_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // "ok" or an error kind
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discover_recommendation_duration_seconds",
			Help:    "End-to-end duration of recommendation requests",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	CandidatesRanked = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discover_ranked_candidates",
			Help:    "Number of candidates surviving the ranker",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50, 100},
		},
	)

	// Optimizer
	AnnealingIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discover_annealing_iterations",
			Help:    "Iterations run per simulated annealing pass",
			Buckets: []float64{0, 10, 50, 100, 135, 200, 300},
		},
	)

	AnnealingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discover_annealing_duration_seconds",
			Help:    "Duration of simulated annealing passes",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	AnnealingAcceptedImprovements = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discover_annealing_accepted_improvements",
			Help:    "Strictly improving moves accepted per annealing pass",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	AnnealingImprovementPercent = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discover_annealing_improvement_percent",
			Help:    "Energy improvement of the best solution over the initial one",
			Buckets: []float64{0, 1, 2.5, 5, 10, 25, 50, 100},
		},
	)

	DiversityModeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_diversity_mode_total",
			Help: "Optimizer runs by diversity mode",
		},
		[]string{"mode"}, // "semantic", "category"
	)

	// Embeddings
	EmbeddingBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_embedding_builds_total",
			Help: "Embedding table builds by generator and outcome",
		},
		[]string{"generator", "outcome"},
	)

	EmbeddingTableSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "discover_embedding_table_size",
			Help: "Number of vectors in the cached embedding table",
		},
	)

	EmbeddingDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discover_embedding_degraded_total",
			Help: "Requests optimized without an embedding table",
		},
	)

	// Upstreams
	WeatherLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_weather_lookups_total",
			Help: "Weather classifications by source",
		},
		[]string{"source"}, // "openweathermap", "mock", "request"
	)

	CatalogFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discover_catalog_fetch_duration_seconds",
			Help:    "Duration of catalog fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	CatalogFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_catalog_fetch_errors_total",
			Help: "Total number of failed catalog fetches",
		},
		[]string{"source"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "discover_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommendation records the outcome of a recommendation request.
func RecordRecommendation(outcome string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordOptimization records the statistics of one optimizer pass.
func RecordOptimization(iterations, accepted int, improvementPercent float64, mode string, duration time.Duration) {
	AnnealingDuration.Observe(duration.Seconds())
	AnnealingIterations.Observe(float64(iterations))
	AnnealingAcceptedImprovements.Observe(float64(accepted))
	AnnealingImprovementPercent.Observe(improvementPercent)
	DiversityModeTotal.WithLabelValues(mode).Inc()
}

// RecordEmbeddingBuild records a table build attempt.
func RecordEmbeddingBuild(generator string, size int, err error) {
	if err != nil {
		EmbeddingBuildsTotal.WithLabelValues(generator, "error").Inc()
		return
	}
	EmbeddingBuildsTotal.WithLabelValues(generator, "ok").Inc()
	EmbeddingTableSize.Set(float64(size))
}

// RecordCatalogFetch records a catalog fetch.
func RecordCatalogFetch(source string, duration time.Duration, err error) {
	CatalogFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		CatalogFetchErrors.WithLabelValues(source).Inc()
	}
}
