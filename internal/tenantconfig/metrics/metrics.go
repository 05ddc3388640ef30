package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant configuration cache.
type Metrics struct {
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	RefreshFailures prometheus.Counter
}

// New creates a Metrics instance with all config cache metrics registered.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unify_config_cache_hits_total",
			Help: "Config cache lookups that found a cached entry",
		}, []string{"app_id"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "unify_config_cache_misses_total",
			Help: "Config cache lookups that found no cached entry",
		}, []string{"app_id"}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "unify_config_cache_refresh_duration_seconds",
			Help:    "Duration of bulk cache refresh operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RefreshFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "unify_config_cache_refresh_failures_total",
			Help: "Cache refreshes that failed reading the config store",
		}),
	}
}

// RecordHit records a cache lookup that found an entry.
func (m *Metrics) RecordHit(appID string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(appID).Inc()
}

// RecordMiss records a cache lookup that found nothing.
func (m *Metrics) RecordMiss(appID string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(appID).Inc()
}

// ObserveRefresh records the duration of a refresh.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRefresh(start time.Time) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(time.Since(start).Seconds())
}

// RecordRefreshFailure records a refresh aborted by a store read failure.
func (m *Metrics) RecordRefreshFailure() {
	if m == nil {
		return
	}
	m.RefreshFailures.Inc()
}
