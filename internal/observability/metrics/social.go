package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "social_posts_created_total",
			Help: "Total number of posts created",
		},
	)

	GraphOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_graph_operations_total",
			Help: "Total number of follow graph mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	StreamBuildDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_stream_build_duration_seconds",
			Help:    "Duration of stream composition in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"},
	)

	StreamSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_stream_size",
			Help:    "Number of posts returned per stream request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"kind"},
	)
)
