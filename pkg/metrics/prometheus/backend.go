package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ldapcore/ldapd/pkg/metrics"
)

// backendMetrics is the Prometheus implementation of metrics.BackendMetrics.
type backendMetrics struct {
	resolveDuration *prometheus.HistogramVec
	resolveErrors   *prometheus.CounterVec
	backendState    *prometheus.GaugeVec
	entryCount      *prometheus.GaugeVec
}

// NewBackendMetrics creates a new Prometheus-backed mapping-tree/storage
// metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewBackendMetrics() *backendMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &backendMetrics{
		resolveDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ldapd_backend_resolve_duration_seconds",
				Help:    "Mapping tree backend resolution latency by backend name",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		resolveErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ldapd_backend_resolve_errors_total",
				Help: "Total number of failed backend resolutions by backend name",
			},
			[]string{"backend"},
		),
		backendState: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ldapd_backend_state",
				Help: "Administrative state of a backend mount (1 if currently in that state, else 0)",
			},
			[]string{"backend", "state"},
		),
		entryCount: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ldapd_backend_entry_count",
				Help: "Approximate number of entries held by a backend",
			},
			[]string{"backend"},
		),
	}
}

func (m *backendMetrics) RecordResolution(backend string, duration time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.resolveDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if !ok {
		m.resolveErrors.WithLabelValues(backend).Inc()
	}
}

func (m *backendMetrics) RecordBackendStateChange(backend string, state string) {
	if m == nil {
		return
	}
	m.backendState.WithLabelValues(backend, state).Set(1)
}

func (m *backendMetrics) SetBackendEntryCount(backend string, count int64) {
	if m == nil {
		return
	}
	m.entryCount.WithLabelValues(backend).Set(float64(count))
}

var _ metrics.BackendMetrics = (*backendMetrics)(nil)
