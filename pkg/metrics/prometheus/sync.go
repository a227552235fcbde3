package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ldapcore/ldapd/pkg/metrics"
)

// syncMetrics is the Prometheus implementation of metrics.SyncMetrics.
type syncMetrics struct {
	activeSessions       prometheus.Gauge
	sessionsRejected     prometheus.Counter
	refreshEntries       prometheus.Histogram
	refreshDuration      prometheus.Histogram
	persistNotifications prometheus.Counter
}

// NewSyncMetrics creates a new Prometheus-backed content-sync metrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewSyncMetrics() *syncMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &syncMetrics{
		activeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "ldapd_sync_active_sessions",
				Help: "Number of currently open persistent-search sync sessions",
			},
		),
		sessionsRejected: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ldapd_sync_sessions_rejected_total",
				Help: "Total number of sync sessions rejected by the concurrency cap",
			},
		),
		refreshEntries: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ldapd_sync_refresh_entries",
				Help:    "Number of entries delivered by a single refresh phase",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		refreshDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ldapd_sync_refresh_duration_seconds",
				Help:    "Wall-clock duration of a refresh phase",
				Buckets: prometheus.DefBuckets,
			},
		),
		persistNotifications: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ldapd_sync_persist_notifications_total",
				Help: "Total number of change notifications delivered to persistent-search sessions",
			},
		),
	}
}

func (m *syncMetrics) SetActiveSessions(count int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(count))
}

func (m *syncMetrics) RecordSessionRejected() {
	if m == nil {
		return
	}
	m.sessionsRejected.Inc()
}

func (m *syncMetrics) RecordRefreshDelivered(entries int, duration time.Duration) {
	if m == nil {
		return
	}
	m.refreshEntries.Observe(float64(entries))
	m.refreshDuration.Observe(duration.Seconds())
}

func (m *syncMetrics) RecordPersistNotification() {
	if m == nil {
		return
	}
	m.persistNotifications.Inc()
}

var _ metrics.SyncMetrics = (*syncMetrics)(nil)
