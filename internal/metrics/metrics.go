// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cityguide_queries_total",
			Help: "Total number of executed queries by result type",
		},
		[]string{"result_type"},
	)

	IntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cityguide_intents_total",
			Help: "Total number of classified intents",
		},
		[]string{"intent"},
	)

	ClarificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cityguide_clarifications_total",
			Help: "Total number of clarification questions asked",
		},
	)

	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cityguide_llm_calls_total",
			Help: "Total number of language model calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cityguide_llm_call_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ActiveConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cityguide_active_conversations",
			Help: "Number of conversations currently held in memory",
		},
	)
)
