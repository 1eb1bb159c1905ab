// Package observability defines the service's Prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	FeedTicks         prometheus.Counter
	FeedEntryErrors   prometheus.Counter
	WarningsCreated   prometheus.Counter
	WarningsUpdated   prometheus.Counter
	WarningsCancelled prometheus.Counter
	WarningsSkipped   prometheus.Counter

	JobsEnqueued  prometheus.Counter
	JobsSent      prometheus.Counter
	JobsFailed    prometheus.Counter
	JobsCancelled prometheus.Counter
	GatewayCalls  *prometheus.CounterVec

	InboundMessages *prometheus.CounterVec
}

// New registers all metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FeedTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_feed_ticks_total",
			Help: "Feed watcher ticks that ran to completion.",
		}),
		FeedEntryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_feed_entry_errors_total",
			Help: "Feed entries that failed to fetch or parse.",
		}),
		WarningsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_warnings_created_total",
			Help: "Warnings inserted from new alerts.",
		}),
		WarningsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_warnings_updated_total",
			Help: "Warnings rewritten by Update alerts.",
		}),
		WarningsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_warnings_cancelled_total",
			Help: "Warnings cancelled by Cancel alerts.",
		}),
		WarningsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_warnings_skipped_total",
			Help: "New alerts skipped because another warning was active.",
		}),
		JobsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_jobs_enqueued_total",
			Help: "Delivery jobs persisted by fan-out.",
		}),
		JobsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_jobs_sent_total",
			Help: "Delivery jobs marked sent.",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_jobs_failed_total",
			Help: "Delivery jobs that exhausted their retry budget.",
		}),
		JobsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "slipalert_jobs_cancelled_total",
			Help: "Delivery jobs cancelled before sending.",
		}),
		GatewayCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "slipalert_gateway_calls_total",
			Help: "Outbound gateway batch calls by outcome.",
		}, []string{"outcome"}),
		InboundMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "slipalert_inbound_messages_total",
			Help: "Inbound SMS commands by resulting status.",
		}, []string{"status"}),
	}
}

// NewNop returns metrics backed by a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
