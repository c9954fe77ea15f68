package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// HTTP endpoints
	EndpointOAuthStart    = "oauth_start"
	EndpointOAuthCallback = "oauth_callback"
	EndpointSync          = "sync"
	EndpointLeaderboard   = "leaderboard"
	EndpointActivities    = "activities"
	EndpointMaxHeartRate  = "max_heart_rate"
	EndpointHealth        = "health"

	// Sync pass results
	ResultSuccess = "success"
	ResultFailure = "failure"

	// Candidate outcomes within a sync pass
	OutcomeNew       = "new"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
	OutcomeFiltered  = "filtered"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Sync Metrics
var (
	SyncPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_passes_total",
			Help: "Total number of sync passes by result",
		},
		[]string{"result"},
	)

	SyncCandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_candidates_total",
			Help: "Candidate activities seen during sync passes by outcome",
		},
		[]string{"outcome"},
	)

	SyncPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_pass_duration_seconds",
			Help:    "Duration of one sync pass",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ConsistencyBonusesAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consistency_bonuses_awarded_total",
			Help: "Runs that received the weekly consistency bonus",
		},
	)
)

// Leaderboard Metrics
var (
	LeaderboardAthletes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leaderboard_athletes",
			Help: "Number of athletes on the most recently computed leaderboard",
		},
	)
)
