// Package backend defines the pluggable storage interface a mapping-tree
// node routes to (spec §4.5/§1): the operations a concrete storage engine
// must provide to serve add/modify/delete/search and to let the sync
// engine (C7/C8) replay a change log for delta refresh.
package backend

import (
	"context"
	"fmt"

	"github.com/ldapcore/ldapd/internal/ldap/entry"
	"github.com/ldapcore/ldapd/internal/ldap/sync"
)

// StoreError is a domain error from a backend operation, distinguished by
// Code so callers (the connection/operation layer) can map it to the
// right LDAP result code without string-matching.
type StoreError struct {
	Code    ErrorCode
	Message string
	DN      string
}

func (e *StoreError) Error() string {
	if e.DN != "" {
		return fmt.Sprintf("backend: %s: %s", e.Message, e.DN)
	}
	return "backend: " + e.Message
}

// ErrorCode categorizes a StoreError.
type ErrorCode int

const (
	ErrNotFound ErrorCode = iota
	ErrAlreadyExists
	ErrNotAllowedOnRdn
	ErrNotAllowedOnNonleaf
	ErrInvalidDnSyntax
	ErrConstraintViolation
	ErrUnwillingToPerform
	ErrIOFailure
	// ErrSyncRefreshRequired mirrors sync.ResultSyncRefreshRequired
	// (0x1000, spec §6's surfaced-codes list) so a caller that only sees
	// a StoreError can still map a rejected sync request to the right
	// wire result code without importing the sync package directly.
	ErrSyncRefreshRequired
)

// NewSyncRefreshRequiredError returns a StoreError with Code
// ErrSyncRefreshRequired (it does not wrap sync.ErrSyncRefreshRequired),
// for callers that surface backend-layer errors uniformly
// (spec §4.7, §8: cookie invalid against session).
func NewSyncRefreshRequiredError() *StoreError {
	return &StoreError{Code: ErrSyncRefreshRequired, Message: "sync cookie invalid against session, refresh required"}
}

func NewNotFoundError(dn string) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: "no such entry", DN: dn}
}

func NewAlreadyExistsError(dn string) *StoreError {
	return &StoreError{Code: ErrAlreadyExists, Message: "entry already exists", DN: dn}
}

func NewNotAllowedOnNonleafError(dn string) *StoreError {
	return &StoreError{Code: ErrNotAllowedOnNonleaf, Message: "entry has children", DN: dn}
}

// IsNotFound reports whether err is a StoreError carrying ErrNotFound.
func IsNotFound(err error) bool {
	se, ok := err.(*StoreError)
	return ok && se.Code == ErrNotFound
}

// SearchScope mirrors the three LDAP search scopes a backend must support.
type SearchScope int

const (
	ScopeBase SearchScope = iota
	ScopeOneLevel
	ScopeSubtree
)

// SearchRequest is the subset of an LDAP search operation a backend needs
// to enumerate candidate entries; filter evaluation against VisitFunc's
// entries is left to the caller (the operation layer owns filter
// matching against the registered syntax/matching rules).
type SearchRequest struct {
	Base  string
	Scope SearchScope
}

// VisitFunc is called once per candidate entry a Search enumerates;
// returning false stops enumeration early (e.g. size-limit reached).
type VisitFunc func(e *entry.Entry) (cont bool)

// Backend is the storage engine a mapping-tree backend slot wraps,
// satisfying mappingtree.Backend (Name() string) and adding the
// entry-level CRUD and change-log replay operations spec §1 externalizes
// to "the configured storage collaborator".
type Backend interface {
	// Name identifies this backend instance among its siblings at a
	// mapping-tree node (satisfies mappingtree.Backend).
	Name() string

	// Get returns the entry at dn, or a StoreError{ErrNotFound}.
	Get(ctx context.Context, dn string) (*entry.Entry, error)

	// Add inserts e, returning StoreError{ErrAlreadyExists} if its DN is
	// already occupied.
	Add(ctx context.Context, e *entry.Entry) error

	// Replace overwrites the entry at e.Dn's normalized form with e,
	// used both by ordinary modify operations (after the caller applies
	// mods to a fetched copy) and by the sync engine's delta-refresh
	// apply step.
	Replace(ctx context.Context, e *entry.Entry) error

	// Delete removes the entry at dn. Backends that enforce the classic
	// "leaf only" DIT constraint return StoreError{ErrNotAllowedOnNonleaf}
	// when dn has children.
	Delete(ctx context.Context, dn string) error

	// Search enumerates every entry within req's base/scope, calling
	// visit for each until visit returns false or enumeration completes.
	Search(ctx context.Context, req SearchRequest, visit VisitFunc) error

	// AppendChangeRecord records one change-log entry, consulted by the
	// sync engine's delta-refresh path (spec §4.7).
	AppendChangeRecord(ctx context.Context, rec sync.ChangeRecord) error

	// ChangesSince returns every change-log record with ChangeNumber >
	// changeNumber, in ascending order, for delta-refresh reduction.
	ChangesSince(ctx context.Context, changeNumber int64) ([]sync.ChangeRecord, error)

	// LastChangeNumber returns the change log's current high-water mark,
	// used to build the server half of a fresh sync cookie.
	LastChangeNumber(ctx context.Context) (int64, error)

	// Close releases resources the backend holds open.
	Close() error
}
