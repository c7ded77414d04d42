package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APICallsTotal tracks backend calls per endpoint and outcome.
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raicli_api_calls_total",
			Help: "Total number of backend API calls",
		},
		[]string{"endpoint", "status"},
	)

	// APILatency tracks backend call latency.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raicli_api_latency_seconds",
			Help:    "Backend API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// RetriesTotal tracks retry attempts per workflow step.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raicli_retries_total",
			Help: "Total number of retried operations",
		},
		[]string{"step"},
	)

	// StepDuration tracks wall-clock duration of workflow steps.
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raicli_step_duration_seconds",
			Help:    "Workflow step duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"step"},
	)

	// SagasTotal tracks completed sagas per terminal outcome.
	SagasTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raicli_sagas_total",
			Help: "Total number of document sagas by outcome",
		},
		[]string{"outcome"},
	)
)
