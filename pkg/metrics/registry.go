package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry creates the process-wide Prometheus registry and flips
// metrics collection on. Call once during startup, before constructing
// any of the Prometheus-backed collectors in pkg/metrics/prometheus.
// Calling it more than once replaces the registry — every collector
// built against the old one keeps working but stops being scraped.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called. Collector
// constructors check this and return nil so that every Record* method
// becomes a no-op when metrics are disabled.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the active registry, or nil if metrics are
// disabled. Collector constructors must check IsEnabled before relying
// on a non-nil result.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Reset disables metrics collection and drops the registry. Exposed for
// test teardown.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = nil
	enabled = false
}
