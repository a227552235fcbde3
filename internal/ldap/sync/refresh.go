package sync

import (
	"github.com/ldapcore/ldapd/internal/ldap/entry"
)

// EntryFetcher resolves a DN to its current entry, as the refresh engine
// needs to do for every Add/Modify action a delta refresh reduces to.
type EntryFetcher func(dn string) (*entry.Entry, error)

// DeltaOp is one reduced, resolved operation a delta refresh emits to the
// client (spec §4.7).
type DeltaOp struct {
	Action    Action
	EntryUUID string
	DN        string
	// Entry is populated for ActionAdd/ActionModify; nil for ActionDelete,
	// where DN/EntryUUID alone materialize the deleted-entry placeholder
	// (spec §4.7: "deleted entries are materialized as placeholders
	// carrying the original DN and nsuniqueid").
	Entry *entry.Entry
}

// CheckCookie validates client against the session's current signatures
// and change-info high-water mark (spec §3), returning ErrSyncRefreshRequired
// if it is not valid. It is the refresh engine's entry point: a sync
// request carrying an invalid cookie must be rejected with
// ResultSyncRefreshRequired instead of served a delta refresh (spec §4.7,
// §8).
func CheckCookie(client Cookie, serverSig, clientSig string, sessionChangeInfo int64) error {
	if !client.ValidAgainst(serverSig, clientSig, sessionChangeInfo) {
		return ErrSyncRefreshRequired
	}
	return nil
}

// ComputeDeltaRefresh reduces records (already scoped and ordered by
// change number) and fetches the current entry for every surviving
// Add/Modify action, in first-seen order (spec §4.7, delta-refresh step).
// Callers must validate the client's cookie with CheckCookie before calling
// ComputeDeltaRefresh.
func ComputeDeltaRefresh(records []ChangeRecord, fetch EntryFetcher) ([]DeltaOp, error) {
	order, actions, lastDN := Reduce(records)

	ops := make([]DeltaOp, 0, len(order))
	for _, uuid := range order {
		action := actions[uuid]
		dn := lastDN[uuid]
		op := DeltaOp{Action: action, EntryUUID: uuid, DN: dn}

		if action == ActionAdd || action == ActionModify {
			e, err := fetch(dn)
			if err != nil {
				return nil, err
			}
			op.Entry = e
		}

		ops = append(ops, op)
	}
	return ops, nil
}

// BatchDeletedUUIDs groups the entryUUIDs of every ActionDelete op in ops
// into batches of at most batchSize, preserving order, for delivery as
// successive syncInfo(syncIdSet) intermediate responses (spec §4.7: "≤50
// per intermediate response").
func BatchDeletedUUIDs(ops []DeltaOp, batchSize int) [][]string {
	var uuids []string
	for _, op := range ops {
		if op.Action == ActionDelete {
			uuids = append(uuids, op.EntryUUID)
		}
	}

	var batches [][]string
	for len(uuids) > 0 {
		n := batchSize
		if n > len(uuids) {
			n = len(uuids)
		}
		batches = append(batches, uuids[:n:n])
		uuids = uuids[n:]
	}
	return batches
}

// actionToSyncState maps a reduced Action to the syncStateControl value
// sent with the corresponding entry (spec §4.7/§6).
func actionToSyncState(a Action) SyncState {
	switch a {
	case ActionAdd:
		return SyncStateAdd
	case ActionModify:
		return SyncStateModify
	case ActionDelete:
		return SyncStateDelete
	default:
		return SyncStatePresent
	}
}

// EncodeDeltaOpControl builds the syncStateControl value that should
// accompany op's entry (or, for a Delete, its placeholder) in the reply
// stream, carrying cookie only when the caller decides this op is the
// batch's last (spec §4.7 delta-refresh step).
func EncodeDeltaOpControl(op DeltaOp, cookie *Cookie) ([]byte, error) {
	return EncodeSyncStateControl(actionToSyncState(op.Action), op.EntryUUID, cookie)
}
