// Package connection implements the per-connection operation table,
// abandon protocol, and plug-in hook dispatch tables of the LDAP core
// (spec §4.6, C6).
package connection

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"

	"github.com/ldapcore/ldapd/internal/logger"
)

// Status is the lifecycle state of an in-flight Operation (spec §4.6).
type Status int

const (
	Processing Status = iota
	Abandoned
	WillComplete
	ResultSent
)

func (s Status) String() string {
	switch s {
	case Processing:
		return "processing"
	case Abandoned:
		return "abandoned"
	case WillComplete:
		return "will-complete"
	case ResultSent:
		return "result-sent"
	default:
		return "unknown"
	}
}

// ResultHandler, EntryHandler, and ReferralHandler are the callback bag
// an Operation carries, invoked by the search/result machinery as it
// produces output for the client (spec §4.6).
type (
	ResultHandler   func(op *Operation) error
	EntryHandler    func(op *Operation, entryDN string) error
	ReferralHandler func(op *Operation, uris []string) error
)

// Operation is one in-flight request on a Connection, keyed by message ID
// (spec §4.6).
type Operation struct {
	MsgID    int32
	TargetDN string
	Status   Status

	ResultHandler   ResultHandler
	EntryHandler    EntryHandler
	ReferralHandler ReferralHandler

	// PersistWake, when set, is called after the operation transitions to
	// Abandoned to wake a blocked C8 persistent-search worker waiting on
	// its session condition variable. Ordinary operations leave this nil.
	PersistWake func()
}

// Connection holds one client connection's operation table and the two
// mutexes that bound its critical sections: the operation-table mutex
// and the PDU-write mutex that serializes replies onto the wire (spec
// §4.6; lock ordering in spec §5 places both beneath mt_lock/backend
// locks).
type Connection struct {
	mu    sync.Mutex // connection_mutex: guards ops/opsInitiated/opsCompleted
	ops   map[int32]*Operation
	opsInitiated uint64
	opsCompleted uint64

	writeMu sync.Mutex // conn_pdu_write_mutex: at most one reply in flight

	refcnt int32

	AuthzDN string
	SSF     int
}

// New returns an empty Connection.
func New() *Connection {
	return &Connection{ops: make(map[int32]*Operation)}
}

// Retain increments the connection's reference count.
func (c *Connection) Retain() { atomic.AddInt32(&c.refcnt, 1) }

// Release decrements the connection's reference count and reports
// whether it reached zero.
func (c *Connection) Release() bool {
	return atomic.AddInt32(&c.refcnt, -1) <= 0
}

// Refcnt returns the connection's current reference count.
func (c *Connection) Refcnt() int32 { return atomic.LoadInt32(&c.refcnt) }

// WithWriteLock runs fn while holding the PDU-write mutex, guaranteeing
// at most one reply is serialized onto the wire at a time.
func (c *Connection) WithWriteLock(fn func() error) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return fn()
}

// RegisterOperation adds op to the operation table, keyed by its message
// ID, and increments ops_initiated.
func (c *Connection) RegisterOperation(op *Operation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.ops[op.MsgID]; exists {
		return fmt.Errorf("connection: message id %d already in flight", op.MsgID)
	}
	c.ops[op.MsgID] = op
	c.opsInitiated++
	return nil
}

// CompleteOperation marks the operation's result as sent, removes it
// from the table, and increments ops_completed. A caller racing an
// Abandon for the same message id is resolved by lock ordering: whichever
// of CompleteOperation/Abandon takes connection_mutex first wins, and
// Abandon is then a no-op against a ResultSent operation (spec §4.6).
func (c *Connection) CompleteOperation(msgID int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.ops[msgID]
	if !ok {
		return
	}
	op.Status = ResultSent
	delete(c.ops, msgID)
	c.opsCompleted++
}

// Lookup returns the in-flight operation for msgID, or nil if none.
func (c *Connection) Lookup(msgID int32) *Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ops[msgID]
}

// Counts returns (ops_initiated, ops_completed).
func (c *Connection) Counts() (initiated, completed uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opsInitiated, c.opsCompleted
}

// Abandon implements the C6 abandon protocol (spec §4.6): find the
// operation with matching msgID other than abandonMsgID itself under the
// connection mutex, run pre-abandon hooks, flip its status to Abandoned
// unless it has already completed, run post-abandon hooks, and wake any
// blocked persistent-search worker. No LDAP response is ever produced for
// an abandon request — callers must not attempt to send one. Every call
// logs targetop=NOTFOUND or targetop=<id> (spec §4.6, §8; see
// original_source/ldap/servers/slapd/abandon.c's access-log line).
func (c *Connection) Abandon(abandonMsgID, targetMsgID int32, hooks *HookRegistry) {
	c.mu.Lock()
	op, ok := c.ops[targetMsgID]
	if !ok || targetMsgID == abandonMsgID {
		c.mu.Unlock()
		logger.Info("ABANDON", "msgid", abandonMsgID, "targetop", "NOTFOUND")
		return
	}

	if hooks != nil {
		hooks.Run(HookPreAbandon, op)
	}

	if op.Status != ResultSent {
		op.Status = Abandoned
	}

	if hooks != nil {
		hooks.Run(HookPostAbandon, op)
	}

	wake := op.PersistWake
	c.mu.Unlock()

	logger.Info("ABANDON", "msgid", abandonMsgID, "targetop", targetMsgID)

	if wake != nil {
		wake()
	}
}

// SimpleBindAuthenticator verifies a simple-bind password against a
// bcrypt-hashed userPassword value (recovered from
// original_source/ldap/servers/plugins/pwdstorage, not covered by the
// distilled spec; see SPEC_FULL.md §3).
type SimpleBindAuthenticator struct{}

// Authenticate reports whether password matches storedHash.
func (SimpleBindAuthenticator) Authenticate(storedHash, password []byte) error {
	return bcrypt.CompareHashAndPassword(storedHash, password)
}

// HashPassword produces a bcrypt hash suitable for storage as a
// userPassword value.
func (SimpleBindAuthenticator) HashPassword(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
}
