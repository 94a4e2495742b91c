package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CWAAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auspicious_cwa_api_calls_total",
			Help: "Total CWA OpenData API calls",
		},
		[]string{"endpoint", "status"},
	)

	CWAAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auspicious_cwa_api_latency_seconds",
			Help:    "CWA OpenData API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ObservationsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auspicious_observations_loaded_total",
			Help: "Total daily observations loaded into the store",
		},
		[]string{"station"},
	)

	SnapshotRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auspicious_snapshot_runs_total",
			Help: "Total annual snapshot batch runs",
		},
		[]string{"station", "status"},
	)

	SnapshotDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auspicious_snapshot_duration_seconds",
			Help:    "Annual snapshot batch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"station"},
	)

	ProverbVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auspicious_proverb_verifications_total",
			Help: "Total proverb verification runs",
		},
		[]string{"proverb"},
	)
)
