// Package metrics exposes Prometheus collectors for the path cache, the
// handle manager and the MNT/LOOKUP handlers.
//
// Collectors are created against one process-wide registry. Until
// InitRegistry runs, every constructor hands back a no-op, and a nil
// collector passed to a component means the same thing:
//
//	metrics.InitRegistry()
//	hm := metrics.NewHandleMetrics()
//	cache := pathcache.New(4096, fsys, stats, hm)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry turns metrics on. Only the first call creates the registry.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the registry, or nil while metrics are off.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has run.
func IsEnabled() bool {
	return GetRegistry() != nil
}
