// Package prometheus implements the pkg/metrics collector interfaces on
// top of github.com/prometheus/client_golang.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ldapcore/ldapd/pkg/metrics"
)

// operationMetrics is the Prometheus implementation of metrics.OperationMetrics.
type operationMetrics struct {
	opDuration    *prometheus.HistogramVec
	opsInFlight   *prometheus.GaugeVec
	opsTotal      *prometheus.CounterVec
	activeConns   prometheus.Gauge
	connsAccepted prometheus.Counter
	connsClosed   prometheus.Counter
	abandonsTotal prometheus.Counter
}

// NewOperationMetrics creates a new Prometheus-backed operation metrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewOperationMetrics() *operationMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &operationMetrics{
		opDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ldapd_operation_duration_seconds",
				Help:    "LDAP operation processing latency by operation type and backend",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op_type", "backend"},
		),
		opsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ldapd_operations_in_flight",
				Help: "Number of LDAP operations currently being processed, by operation type",
			},
			[]string{"op_type"},
		),
		opsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ldapd_operations_total",
				Help: "Total number of completed LDAP operations by type, backend, and result code",
			},
			[]string{"op_type", "backend", "result_code"},
		),
		activeConns: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "ldapd_active_connections",
				Help: "Number of currently open LDAP client connections",
			},
		),
		connsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ldapd_connections_accepted_total",
				Help: "Total number of accepted LDAP client connections",
			},
		),
		connsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ldapd_connections_closed_total",
				Help: "Total number of closed LDAP client connections",
			},
		),
		abandonsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "ldapd_abandon_operations_total",
				Help: "Total number of processed abandon requests",
			},
		),
	}
}

func (m *operationMetrics) RecordOperation(opType, backend string, duration time.Duration, resultCode int) {
	if m == nil {
		return
	}
	code := strconv.Itoa(resultCode)
	m.opDuration.WithLabelValues(opType, backend).Observe(duration.Seconds())
	m.opsTotal.WithLabelValues(opType, backend, code).Inc()
}

func (m *operationMetrics) RecordOperationStart(opType string) {
	if m == nil {
		return
	}
	m.opsInFlight.WithLabelValues(opType).Inc()
}

func (m *operationMetrics) RecordOperationEnd(opType string) {
	if m == nil {
		return
	}
	m.opsInFlight.WithLabelValues(opType).Dec()
}

func (m *operationMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeConns.Set(float64(count))
}

func (m *operationMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connsAccepted.Inc()
}

func (m *operationMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connsClosed.Inc()
}

func (m *operationMetrics) RecordAbandon() {
	if m == nil {
		return
	}
	m.abandonsTotal.Inc()
}

var _ metrics.OperationMetrics = (*operationMetrics)(nil)
