package sync

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldapcore/ldapd/internal/ldap/entry"
)

func TestComputeDeltaRefreshFetchesAddAndModifyOnly(t *testing.T) {
	var fetched []string
	fetch := func(dn string) (*entry.Entry, error) {
		fetched = append(fetched, dn)
		return entry.New(dn)
	}

	ops, err := ComputeDeltaRefresh([]ChangeRecord{
		{ChangeNumber: 1, EntryUUID: "a", DN: "cn=a,o=x", Op: OpAdd},
		{ChangeNumber: 2, EntryUUID: "b", DN: "cn=b,o=x", Op: OpDelete},
	}, fetch)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, ActionAdd, ops[0].Action)
	assert.NotNil(t, ops[0].Entry)
	assert.Equal(t, ActionDelete, ops[1].Action)
	assert.Nil(t, ops[1].Entry, "delete actions must not fetch an entry")
	assert.Equal(t, []string{"cn=a,o=x"}, fetched)
}

func TestComputeDeltaRefreshPropagatesFetchError(t *testing.T) {
	fetch := func(dn string) (*entry.Entry, error) {
		return nil, fmt.Errorf("boom")
	}
	_, err := ComputeDeltaRefresh([]ChangeRecord{
		{ChangeNumber: 1, EntryUUID: "a", DN: "cn=a,o=x", Op: OpAdd},
	}, fetch)
	assert.Error(t, err)
}

func TestBatchDeletedUUIDsRespectsBatchSize(t *testing.T) {
	ops := make([]DeltaOp, 0, 5)
	for i := 0; i < 5; i++ {
		ops = append(ops, DeltaOp{Action: ActionDelete, EntryUUID: fmt.Sprintf("u%d", i)})
	}
	ops = append(ops, DeltaOp{Action: ActionAdd, EntryUUID: "ignored"})

	batches := BatchDeletedUUIDs(ops, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"u0", "u1"}, batches[0])
	assert.Equal(t, []string{"u2", "u3"}, batches[1])
	assert.Equal(t, []string{"u4"}, batches[2])
}

func TestEncodeDeltaOpControlCarriesActionState(t *testing.T) {
	buf, err := EncodeDeltaOpControl(DeltaOp{Action: ActionModify, EntryUUID: "u1"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, buf)
}

func TestEncodeSyncInfoSyncIdSetRejectsOversizedBatch(t *testing.T) {
	uuids := make([]string, 51)
	for i := range uuids {
		uuids[i] = fmt.Sprintf("u%d", i)
	}
	_, err := EncodeSyncInfoSyncIdSet(nil, true, uuids)
	assert.Error(t, err)
}
