package connection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndCompleteOperation(t *testing.T) {
	c := New()
	op := &Operation{MsgID: 1, TargetDN: "o=x"}
	require.NoError(t, c.RegisterOperation(op))

	initiated, completed := c.Counts()
	assert.Equal(t, uint64(1), initiated)
	assert.Equal(t, uint64(0), completed)

	c.CompleteOperation(1)
	assert.Nil(t, c.Lookup(1))
	_, completed = c.Counts()
	assert.Equal(t, uint64(1), completed)
}

func TestRegisterOperationRejectsDuplicateMsgID(t *testing.T) {
	c := New()
	require.NoError(t, c.RegisterOperation(&Operation{MsgID: 1}))
	err := c.RegisterOperation(&Operation{MsgID: 1})
	assert.Error(t, err)
}

func TestAbandonSetsStatusAndRunsHooks(t *testing.T) {
	c := New()
	op := &Operation{MsgID: 5, Status: Processing}
	require.NoError(t, c.RegisterOperation(op))

	hooks := NewHookRegistry()
	var preRan, postRan bool
	hooks.Register(HookPreAbandon, func(o *Operation) bool { preRan = true; return true })
	hooks.Register(HookPostAbandon, func(o *Operation) bool { postRan = true; return true })

	var woken bool
	op.PersistWake = func() { woken = true }

	c.Abandon(99, 5, hooks)

	assert.True(t, preRan)
	assert.True(t, postRan)
	assert.True(t, woken)
	assert.Equal(t, Abandoned, op.Status)
}

func TestAbandonIgnoresSelfAndUnknownMsgID(t *testing.T) {
	c := New()
	op := &Operation{MsgID: 5, Status: Processing}
	require.NoError(t, c.RegisterOperation(op))

	c.Abandon(5, 5, nil) // self-abandon is a no-op
	assert.Equal(t, Processing, op.Status)

	c.Abandon(99, 404, nil) // unknown msgid is a no-op
	assert.Equal(t, Processing, op.Status)
}

func TestAbandonDoesNotReviveAlreadyCompletedOperation(t *testing.T) {
	c := New()
	op := &Operation{MsgID: 5, Status: Processing}
	require.NoError(t, c.RegisterOperation(op))

	op.Status = ResultSent // result already sent, but not yet removed from table
	c.ops[5] = op

	c.Abandon(99, 5, nil)
	assert.Equal(t, ResultSent, op.Status, "abandon must not override a result already sent")
}

// TestAbandonRaceAgainstComplete exercises the concurrency invariant of
// spec §4.6: a concurrent Abandon and CompleteOperation for the same
// message id must never leave the operation in an inconsistent state, and
// neither call may panic or deadlock. Whichever call takes the connection
// mutex first, CompleteOperation leaves the status at ResultSent: it
// overwrites Abandoned, or it has already removed the op so Abandon finds
// nothing.
func TestAbandonRaceAgainstComplete(t *testing.T) {
	for i := 0; i < 200; i++ {
		c := New()
		op := &Operation{MsgID: 1, Status: Processing}
		require.NoError(t, c.RegisterOperation(op))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); c.Abandon(99, 1, nil) }()
		go func() { defer wg.Done(); c.CompleteOperation(1) }()
		wg.Wait()

		assert.Contains(t, []Status{Abandoned, ResultSent}, op.Status)
	}
}

func TestHookChainStopsOnFalse(t *testing.T) {
	h := NewHookRegistry()
	var calls []int
	h.Register(HookPreSearch, func(op *Operation) bool { calls = append(calls, 1); return true })
	h.Register(HookPreSearch, func(op *Operation) bool { calls = append(calls, 2); return false })
	h.Register(HookPreSearch, func(op *Operation) bool { calls = append(calls, 3); return true })

	stopped := h.Run(HookPreSearch, &Operation{})
	assert.True(t, stopped)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestExtendedOpDispatchByOID(t *testing.T) {
	h := NewHookRegistry()
	var ran string
	h.RegisterExtendedOp("1.2.3", func(op *Operation) bool { ran = "matched"; return true })

	h.RunExtendedOp("1.2.3", &Operation{})
	assert.Equal(t, "matched", ran)

	ran = ""
	h.RunExtendedOp("9.9.9", &Operation{})
	assert.Equal(t, "", ran)
}

func TestSimpleBindAuthenticatorRoundTrip(t *testing.T) {
	var auth SimpleBindAuthenticator
	hash, err := auth.HashPassword([]byte("s3cret"))
	require.NoError(t, err)

	assert.NoError(t, auth.Authenticate(hash, []byte("s3cret")))
	assert.Error(t, auth.Authenticate(hash, []byte("wrong")))
}
