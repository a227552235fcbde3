//go:build integration

package badger_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldapcore/ldapd/internal/ldap/backend"
	"github.com/ldapcore/ldapd/internal/ldap/backend/badger"
	"github.com/ldapcore/ldapd/internal/ldap/entry"
	"github.com/ldapcore/ldapd/internal/ldap/sync"
)

func openTestStore(t *testing.T) *badger.Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "ldap.db")
	store, err := badger.Open("test", dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	e, err := entry.New("cn=alice,ou=people,dc=example,dc=com")
	require.NoError(t, err)

	require.NoError(t, store.Add(ctx, e))

	got, err := store.Get(ctx, "cn=alice,ou=people,dc=example,dc=com")
	require.NoError(t, err)
	assert.Equal(t, e.UniqueID, got.UniqueID)
}

func TestAddRejectsDuplicateDN(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	e, err := entry.New("cn=bob,dc=example,dc=com")
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, e))

	err = store.Add(ctx, e)
	require.Error(t, err)
	var se *backend.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, backend.ErrAlreadyExists, se.Code)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Get(ctx, "cn=ghost,dc=example,dc=com")
	require.Error(t, err)
	assert.True(t, backend.IsNotFound(err))
}

func TestDeleteRejectsEntryWithChildren(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	parent, err := entry.New("ou=people,dc=example,dc=com")
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, parent))

	child, err := entry.New("cn=carol,ou=people,dc=example,dc=com")
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, child))

	err = store.Delete(ctx, "ou=people,dc=example,dc=com")
	require.Error(t, err)
	var se *backend.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, backend.ErrNotAllowedOnNonleaf, se.Code)

	require.NoError(t, store.Delete(ctx, "cn=carol,ou=people,dc=example,dc=com"))
	require.NoError(t, store.Delete(ctx, "ou=people,dc=example,dc=com"))
}

func TestSearchScopesFilterCandidates(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	dns := []string{
		"dc=example,dc=com",
		"ou=people,dc=example,dc=com",
		"cn=dave,ou=people,dc=example,dc=com",
		"cn=erin,ou=people,dc=example,dc=com",
	}
	for _, dn := range dns {
		e, err := entry.New(dn)
		require.NoError(t, err)
		require.NoError(t, store.Add(ctx, e))
	}

	var oneLevel []string
	err := store.Search(ctx, backend.SearchRequest{Base: "ou=people,dc=example,dc=com", Scope: backend.ScopeOneLevel}, func(e *entry.Entry) bool {
		oneLevel = append(oneLevel, e.Dn.Normalized())
		return true
	})
	require.NoError(t, err)
	assert.Len(t, oneLevel, 2)

	var subtree []string
	err = store.Search(ctx, backend.SearchRequest{Base: "dc=example,dc=com", Scope: backend.ScopeSubtree}, func(e *entry.Entry) bool {
		subtree = append(subtree, e.Dn.Normalized())
		return true
	})
	require.NoError(t, err)
	assert.Len(t, subtree, 4)

	var base []string
	err = store.Search(ctx, backend.SearchRequest{Base: "dc=example,dc=com", Scope: backend.ScopeBase}, func(e *entry.Entry) bool {
		base = append(base, e.Dn.Normalized())
		return true
	})
	require.NoError(t, err)
	assert.Len(t, base, 1)
}

func TestChangeLogOrderingAndLastChangeNumber(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for i := int64(1); i <= 3; i++ {
		rec := sync.ChangeRecord{ChangeNumber: i, EntryUUID: "u", DN: "cn=x,dc=example,dc=com", Op: sync.OpModify}
		require.NoError(t, store.AppendChangeRecord(ctx, rec))
	}

	last, err := store.LastChangeNumber(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, last)

	recs, err := store.ChangesSince(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.EqualValues(t, 2, recs[0].ChangeNumber)
	assert.EqualValues(t, 3, recs[1].ChangeNumber)
}
