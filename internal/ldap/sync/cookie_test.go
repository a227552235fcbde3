package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieStringRoundTrip(t *testing.T) {
	c := Cookie{ServerSig: "srv1", ClientSig: "cli1", ChangeInfo: 42}
	got, err := ParseCookie(c.String())
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestInitialCookieHasNoChangeInfo(t *testing.T) {
	c := NewInitialCookie("srv1")
	assert.False(t, c.HasChangeInfo())

	got, err := ParseCookie(c.String())
	require.NoError(t, err)
	assert.False(t, got.HasChangeInfo())
}

func TestParseCookieRejectsMalformed(t *testing.T) {
	_, err := ParseCookie("onlyonefield")
	assert.ErrorIs(t, err, ErrMalformedCookie)

	_, err = ParseCookie("a#b#notanumber")
	assert.ErrorIs(t, err, ErrMalformedCookie)
}

func TestCookieValidAgainst(t *testing.T) {
	base := Cookie{ServerSig: "srv1", ClientSig: "cli1", ChangeInfo: 5}

	assert.True(t, base.ValidAgainst("srv1", "cli1", 5))
	assert.True(t, base.ValidAgainst("srv1", "cli1", 10), "client may lag behind session")
	assert.False(t, base.ValidAgainst("srv1", "cli1", 4), "client ahead of session")
	assert.False(t, base.ValidAgainst("other", "cli1", 5), "server-sig mismatch")
	assert.False(t, base.ValidAgainst("srv1", "other", 5), "client-sig mismatch")

	initial := NewInitialCookie("srv1")
	initial.ClientSig = "cli1"
	assert.True(t, initial.ValidAgainst("srv1", "cli1", 0), "noChangeInfo is always in range")
}

func TestCheckCookie(t *testing.T) {
	valid := Cookie{ServerSig: "srv1", ClientSig: "cli1", ChangeInfo: 3}
	assert.NoError(t, CheckCookie(valid, "srv1", "cli1", 3))

	stale := Cookie{ServerSig: "srv1", ClientSig: "cli1", ChangeInfo: 9}
	assert.ErrorIs(t, CheckCookie(stale, "srv1", "cli1", 3), ErrSyncRefreshRequired)
}
