package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the analytics sync pipeline.
type Metrics struct {
	PushTotal           *prometheus.CounterVec
	PushFailed          *prometheus.CounterVec
	SkippedUnconfigured *prometheus.CounterVec
	JobsDropped         prometheus.Counter
}

// New creates a Metrics instance with all sync metrics registered.
func New() *Metrics {
	return &Metrics{
		PushTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unify_sync_push_total",
			Help: "Profiles pushed to a downstream sink",
		}, []string{"sink"}),
		PushFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unify_sync_push_failed_total",
			Help: "Pushes that failed on transport or a non-2xx response",
		}, []string{"sink"}),
		SkippedUnconfigured: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unify_sync_skipped_unconfigured_total",
			Help: "Pushes skipped because the tenant has no sink config",
		}, []string{"sink"}),
		JobsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unify_sync_jobs_dropped_total",
			Help: "Sync jobs dropped because the dispatch queue was full",
		}),
	}
}

// RecordPush records a successful push to the named sink.
func (m *Metrics) RecordPush(sink string) {
	if m == nil {
		return
	}
	m.PushTotal.WithLabelValues(sink).Inc()
}

// RecordFailure records a failed push to the named sink.
func (m *Metrics) RecordFailure(sink string) {
	if m == nil {
		return
	}
	m.PushFailed.WithLabelValues(sink).Inc()
}

// RecordSkip records a push skipped for lack of tenant config.
func (m *Metrics) RecordSkip(sink string) {
	if m == nil {
		return
	}
	m.SkippedUnconfigured.WithLabelValues(sink).Inc()
}

// RecordDrop records a job dropped at dispatch.
func (m *Metrics) RecordDrop() {
	if m == nil {
		return
	}
	m.JobsDropped.Inc()
}
