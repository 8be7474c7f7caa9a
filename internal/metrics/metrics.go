package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeHit  = "hit"
	OutcomeMiss = "miss"
)

var (
	// Recommendation engine
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_requests_total",
			Help: "Total number of recommendation lookups by outcome",
		},
		[]string{"outcome"},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommender_rank_duration_seconds",
			Help:    "Time spent ranking the corpus for one lookup",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_catalog_entries",
			Help: "Number of catalog entries held by the engine",
		},
	)

	VocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_vocabulary_terms",
			Help: "Number of terms in the fitted vector space",
		},
	)

	// Conversations
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of user messages handled by conversation step",
		},
		[]string{"step"},
	)

	ChatActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_sessions",
			Help: "Live chat sessions, resynced from the session store",
		},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordRecommendation counts a lookup and its ranking time
func RecordRecommendation(found bool, duration time.Duration) {
	if !found {
		RecommendRequests.WithLabelValues(OutcomeMiss).Inc()
		return
	}
	RecommendRequests.WithLabelValues(OutcomeHit).Inc()
	RecommendDuration.Observe(duration.Seconds())
}

// RecordChatTurn counts a user message at the given step
func RecordChatTurn(step int) {
	ChatTurns.WithLabelValues(strconv.Itoa(step)).Inc()
}

// RecordAPIRequest records an API request with its status and latency
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetIndexSize publishes the loaded corpus dimensions
func SetIndexSize(entries, terms int) {
	CatalogSize.Set(float64(entries))
	VocabularySize.Set(float64(terms))
}

// SetActiveSessions overwrites the active session gauge with a counted value
func SetActiveSessions(n int) {
	ChatActiveSessions.Set(float64(n))
}
