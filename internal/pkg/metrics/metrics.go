// Package metrics provides Prometheus metrics definitions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reliabilityreporter"

var (
	// HTTPRequestDuration tracks API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status_code"},
	)

	// DBPoolConnections tracks database connection pool state.
	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Number of database connections by state",
		},
		[]string{"state"},
	)

	fetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Outbound status page requests by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "request_duration_seconds",
			Help:      "Duration of a single outbound request attempt",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	fetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Retried outbound requests by source",
		},
		[]string{"source"},
	)

	acquiredIncidents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "incidents_total",
			Help:      "Incidents returned per fallback tier before deduplication",
		},
		[]string{"company", "tier"},
	)

	acquisitionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "fallbacks_total",
			Help:      "Escalations to a lower fallback tier by reason",
		},
		[]string{"reason"},
	)

	schedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduled company acquisitions by outcome",
		},
		[]string{"outcome"},
	)

	alertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "triggered_total",
			Help:      "Alert rules that fired by type",
		},
		[]string{"type"},
	)
)

// RecordFetch records one request attempt against a source.
func RecordFetch(source, outcome string, duration time.Duration) {
	fetchRequests.WithLabelValues(source, outcome).Inc()
	fetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordRetry records a retried request.
func RecordRetry(source string) {
	fetchRetries.WithLabelValues(source).Inc()
}

// RecordTierIncidents records how many incidents a fallback tier returned.
func RecordTierIncidents(company, tier string, count int) {
	acquiredIncidents.WithLabelValues(company, tier).Add(float64(count))
}

// RecordFallback records an escalation to a weaker source.
func RecordFallback(reason string) {
	acquisitionFallbacks.WithLabelValues(reason).Inc()
}

// RecordSchedulerRun records the outcome of a scheduled company run.
func RecordSchedulerRun(outcome string) {
	schedulerRuns.WithLabelValues(outcome).Inc()
}

// RecordAlert records a triggered alert.
func RecordAlert(alertType string) {
	alertsTriggered.WithLabelValues(alertType).Inc()
}
