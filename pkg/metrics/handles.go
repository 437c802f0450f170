package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HandleMetrics provides observability for filehandle operations.
//
// This interface is optional - if not provided to the path cache or the
// handle manager, operations proceed without metrics collection.
type HandleMetrics interface {
	// RecordCacheLookup records a path cache lookup and whether it hit.
	RecordCacheLookup(hit bool)

	// RecordCacheEviction records an entry displaced by the LRU policy.
	RecordCacheEviction()

	// RecordCacheInvalidation records an entry dropped because its path
	// no longer names the cached object.
	RecordCacheInvalidation()

	// SetCacheEntries updates the number of occupied path cache slots.
	SetCacheEntries(count int)

	// RecordSearch records an uncached tree search with its duration and
	// whether the object was found.
	RecordSearch(duration time.Duration, found bool)

	// RecordCompose records a compose or extend operation.
	//
	// Parameters:
	//   - operation: "compose", "extend", "lookup" or "create"
	//   - err: Error if the operation failed, nil if successful
	RecordCompose(operation string, err error)

	// RecordInvalidHandle records a handle rejected by validation.
	RecordInvalidHandle()

	// RecordThrottled records a search refused by the search rate limit.
	RecordThrottled()
}

// handleMetrics is the Prometheus implementation of HandleMetrics.
type handleMetrics struct {
	cacheLookups       *prometheus.CounterVec
	cacheEvictions     prometheus.Counter
	cacheInvalidations prometheus.Counter
	cacheEntries       prometheus.Gauge
	searchesTotal      *prometheus.CounterVec
	searchDuration     prometheus.Histogram
	composeTotal       *prometheus.CounterVec
	invalidHandles     prometheus.Counter
	throttled          prometheus.Counter
}

// NewHandleMetrics creates a Prometheus-backed HandleMetrics registered
// with the global registry.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewHandleMetrics() HandleMetrics {
	if !IsEnabled() {
		return &noopHandleMetrics{}
	}
	return newHandleMetrics(GetRegistry())
}

func newHandleMetrics(reg prometheus.Registerer) *handleMetrics {
	return &handleMetrics{
		cacheLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsfh_path_cache_lookups_total",
				Help: "Total number of path cache lookups by result",
			},
			[]string{"result"},
		),
		cacheEvictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nfsfh_path_cache_evictions_total",
				Help: "Total number of path cache entries evicted by the LRU policy",
			},
		),
		cacheInvalidations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nfsfh_path_cache_invalidations_total",
				Help: "Total number of path cache entries invalidated on lookup",
			},
		),
		cacheEntries: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "nfsfh_path_cache_entries",
				Help: "Current number of occupied path cache slots",
			},
		),
		searchesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsfh_searches_total",
				Help: "Total number of uncached handle searches by result",
			},
			[]string{"result"},
		),
		searchDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "nfsfh_search_duration_seconds",
				Help: "Duration of uncached handle searches in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.001,  // 1ms
					0.01,   // 10ms
					0.1,    // 100ms
					1.0,    // 1s
					10.0,   // 10s
				},
			},
		),
		composeTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsfh_handle_operations_total",
				Help: "Total number of handle compose and extend operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		invalidHandles: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nfsfh_invalid_handles_total",
				Help: "Total number of malformed or sentinel handles received",
			},
		),
		throttled: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nfsfh_searches_throttled_total",
				Help: "Total number of searches refused by the search rate limit",
			},
		),
	}
}

func (m *handleMetrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *handleMetrics) RecordCacheEviction() {
	m.cacheEvictions.Inc()
}

func (m *handleMetrics) RecordCacheInvalidation() {
	m.cacheInvalidations.Inc()
}

func (m *handleMetrics) SetCacheEntries(count int) {
	m.cacheEntries.Set(float64(count))
}

func (m *handleMetrics) RecordSearch(duration time.Duration, found bool) {
	result := "not_found"
	if found {
		result = "found"
	}
	m.searchesTotal.WithLabelValues(result).Inc()
	m.searchDuration.Observe(duration.Seconds())
}

func (m *handleMetrics) RecordCompose(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.composeTotal.WithLabelValues(operation, status).Inc()
}

func (m *handleMetrics) RecordInvalidHandle() {
	m.invalidHandles.Inc()
}

func (m *handleMetrics) RecordThrottled() {
	m.throttled.Inc()
}

// noopHandleMetrics is a no-op implementation of HandleMetrics with zero overhead.
type noopHandleMetrics struct{}

func (noopHandleMetrics) RecordCacheLookup(hit bool)                      {}
func (noopHandleMetrics) RecordCacheEviction()                            {}
func (noopHandleMetrics) RecordCacheInvalidation()                        {}
func (noopHandleMetrics) SetCacheEntries(count int)                       {}
func (noopHandleMetrics) RecordSearch(duration time.Duration, found bool) {}
func (noopHandleMetrics) RecordCompose(operation string, err error)       {}
func (noopHandleMetrics) RecordInvalidHandle()                            {}
func (noopHandleMetrics) RecordThrottled()                                {}

// OrNoop returns m, or a no-op implementation if m is nil.
func OrNoop(m HandleMetrics) HandleMetrics {
	if m == nil {
		return &noopHandleMetrics{}
	}
	return m
}
