package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	ActionsProcessed *prometheus.CounterVec
	ActionsFailed    *prometheus.CounterVec
	ActionLatency    *prometheus.HistogramVec
	QueueDepth       prometheus.Gauge

	SubscriptionOutcomes *prometheus.CounterVec
	BatchPages           prometheus.Counter
	BatchUsersFound      prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActionsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_actions_processed_total",
			Help: "Total number of queued actions that completed without error.",
		}, []string{"action"}),

		ActionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_actions_failed_total",
			Help: "Total number of queued actions whose handler returned an error.",
		}, []string{"action"}),

		ActionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consent_action_processing_seconds",
			Help:    "Handler latency from dequeue to completion.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),

		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "consent_queue_depth",
			Help: "Number of actions waiting in the queue at the last snapshot.",
		}),

		SubscriptionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_subscription_outcomes_total",
			Help: "Per-user subscribe attempts by source and outcome.",
		}, []string{"source", "outcome"}),

		BatchPages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consent_batch_pages_total",
			Help: "Dispatch pages that found at least one eligible user.",
		}),

		BatchUsersFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consent_batch_users_found_total",
			Help: "Eligible users handed to worker actions.",
		}),
	}

	reg.MustRegister(
		m.ActionsProcessed,
		m.ActionsFailed,
		m.ActionLatency,
		m.QueueDepth,
		m.SubscriptionOutcomes,
		m.BatchPages,
		m.BatchUsersFound,
	)

	return m
}

// WorkerHooks returns the metric callback functions expected by worker.MetricHooks.
func (m *Metrics) WorkerHooks() (
	onDone func(action string, latency time.Duration),
	onFailed func(action string),
) {
	onDone = func(action string, latency time.Duration) {
		m.ActionsProcessed.WithLabelValues(action).Inc()
		m.ActionLatency.WithLabelValues(action).Observe(latency.Seconds())
	}
	onFailed = func(action string) {
		m.ActionsFailed.WithLabelValues(action).Inc()
	}
	return
}

// OutcomeHook counts subscription outcomes reported by the service.
func (m *Metrics) OutcomeHook() func(source, outcome string) {
	return func(source, outcome string) {
		m.SubscriptionOutcomes.WithLabelValues(source, outcome).Inc()
	}
}

// PageHook counts dispatch pages reported by the batch tool.
func (m *Metrics) PageHook() func(users int) {
	return func(users int) {
		m.BatchPages.Inc()
		m.BatchUsersFound.Add(float64(users))
	}
}
