// Package metrics provides Prometheus instrumentation for the fraud detector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AnalysesTotal counts analysis requests by outcome.
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frauddetector",
			Name:      "analyses_total",
			Help:      "Total transaction analyses by outcome.",
		},
		[]string{"outcome"},
	)

	// ScoringDuration observes scoring call latency.
	ScoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "frauddetector",
			Name:      "scoring_duration_seconds",
			Help:      "Scoring service call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ScoringFailuresTotal counts failed scoring calls.
	ScoringFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "frauddetector",
		Name:      "scoring_failures_total",
		Help:      "Total failed or timed-out scoring calls.",
	})

	// PublishFailuresTotal counts events that could not be written to the bus.
	// Each one is silent profile/audit drift, so operators must see it.
	PublishFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "frauddetector",
		Name:      "event_publish_failures_total",
		Help:      "Total transaction events that failed to publish to the bus.",
	})

	// PublishDroppedTotal counts events dropped because the outbound queue was full.
	PublishDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "frauddetector",
		Name:      "event_publish_dropped_total",
		Help:      "Total transaction events dropped on outbound queue overflow.",
	})

	// EventsProcessedTotal counts events applied by the profile updater.
	EventsProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "frauddetector",
		Name:      "profile_events_processed_total",
		Help:      "Total transaction events applied to user profiles.",
	})

	// EventsDeduplicatedTotal counts redelivered events skipped by the dedup window.
	EventsDeduplicatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "frauddetector",
		Name:      "profile_events_deduplicated_total",
		Help:      "Total redelivered transaction events skipped by deduplication.",
	})

	// EventsDiscardedTotal counts events discarded as invalid (absent or non-positive amount).
	EventsDiscardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "frauddetector",
		Name:      "profile_events_discarded_total",
		Help:      "Total transaction events discarded without mutating state.",
	})

	// ConsumerErrorsTotal counts write-path processing errors by consumer.
	ConsumerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "frauddetector",
			Name:      "consumer_errors_total",
			Help:      "Total event processing errors by consumer group.",
		},
		[]string{"consumer"},
	)

	// AuditRecordsTotal counts audit records appended.
	AuditRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "frauddetector",
		Name:      "audit_records_total",
		Help:      "Total audit records appended.",
	})
)

func init() {
	prometheus.MustRegister(
		AnalysesTotal,
		ScoringDuration,
		ScoringFailuresTotal,
		PublishFailuresTotal,
		PublishDroppedTotal,
		EventsProcessedTotal,
		EventsDeduplicatedTotal,
		EventsDiscardedTotal,
		ConsumerErrorsTotal,
		AuditRecordsTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
