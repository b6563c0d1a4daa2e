package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "archminer"

var (
	projectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "projects_total",
		Help:      "Projects processed, partitioned by outcome.",
	}, []string{"result"})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "stage_failures_total",
		Help:      "Per-project failures, partitioned by stage.",
	}, []string{"stage"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall-clock duration of each stage.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
	}, []string{"stage"})

	projectsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "projects_in_flight",
		Help:      "Projects currently being processed.",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "cache_hits_total",
		Help:      "Projects rehydrated from a previous export.",
	})
)
