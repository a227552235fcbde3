// Package metrics defines the observability interfaces the connection,
// mapping-tree, and sync layers report through. Every interface is
// optional — passing nil disables collection with zero overhead, the
// same contract the teacher's metrics interfaces use.
package metrics

import "time"

// OperationMetrics observes LDAP operation processing in the connection
// core (spec §4.6).
type OperationMetrics interface {
	// RecordOperation records a completed operation with its type, the
	// target backend's name, how long it took, and its LDAP result code.
	RecordOperation(opType string, backend string, duration time.Duration, resultCode int)

	// RecordOperationStart/RecordOperationEnd track in-flight operations.
	RecordOperationStart(opType string)
	RecordOperationEnd(opType string)

	// SetActiveConnections updates the current connection gauge.
	SetActiveConnections(count int32)

	// RecordConnectionAccepted/RecordConnectionClosed track connection
	// lifecycle totals.
	RecordConnectionAccepted()
	RecordConnectionClosed()

	// RecordAbandon records a successfully processed abandon request.
	RecordAbandon()
}

// BackendMetrics observes the mapping tree's backend routing and the
// badger-backed storage engine (spec §4.5).
type BackendMetrics interface {
	// RecordResolution records how long one Resolve call took against a
	// named backend and whether it succeeded.
	RecordResolution(backend string, duration time.Duration, ok bool)

	// RecordBackendStateChange records a backend slot transitioning to a
	// new administrative state.
	RecordBackendStateChange(backend string, state string)

	// SetBackendEntryCount updates the current entry-count gauge for a
	// backend, when cheaply known.
	SetBackendEntryCount(backend string, count int64)
}

// SyncMetrics observes the content-sync refresh/persist engines (spec
// §4.7/§4.8).
type SyncMetrics interface {
	// SetActiveSessions updates the persistent-search session gauge.
	SetActiveSessions(count int)

	// RecordSessionRejected records a session refused by the
	// concurrency cap (ErrTooManySessions).
	RecordSessionRejected()

	// RecordRefreshDelivered records one completed refresh phase with
	// how many entries it delivered and how long it took.
	RecordRefreshDelivered(entries int, duration time.Duration)

	// RecordPersistNotification records one change delivered to a
	// persistent-search session.
	RecordPersistNotification()
}
