package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestControlRoundTripWithCookieAndHint(t *testing.T) {
	cookie := Cookie{ServerSig: "srv1", ClientSig: "cli1", ChangeInfo: 7}
	req := Request{Mode: ModeRefreshAndPersist, Cookie: &cookie, ReloadHint: true}

	buf, err := EncodeRequestControl(req)
	require.NoError(t, err)

	got, err := ParseRequestControl(buf)
	require.NoError(t, err)
	assert.Equal(t, ModeRefreshAndPersist, got.Mode)
	require.NotNil(t, got.Cookie)
	assert.Equal(t, cookie, *got.Cookie)
	assert.True(t, got.ReloadHint)
}

func TestRequestControlRoundTripWithoutCookie(t *testing.T) {
	req := Request{Mode: ModeRefreshOnly}
	buf, err := EncodeRequestControl(req)
	require.NoError(t, err)

	got, err := ParseRequestControl(buf)
	require.NoError(t, err)
	assert.Equal(t, ModeRefreshOnly, got.Mode)
	assert.Nil(t, got.Cookie)
	assert.False(t, got.ReloadHint)
}

func TestParseRequestControlRejectsInvalidMode(t *testing.T) {
	req := Request{Mode: 2} // neither refreshOnly(1) nor refreshAndPersist(3)
	buf, err := EncodeRequestControl(req)
	require.NoError(t, err)

	_, err = ParseRequestControl(buf)
	assert.ErrorIs(t, err, ErrInvalidMode)
}
