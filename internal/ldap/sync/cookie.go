// Package sync implements the content-synchronization refresh and
// persist engines (spec §4.7/§4.8, C7/C8): RFC-4533-style sync-request
// handling, server cookies, change-log reduction, and the persistent
// search worker pool.
package sync

import (
	"fmt"
	"strconv"
	"strings"
)

// noChangeInfo is the change-info sentinel meaning "no change log
// position recorded" (an initial-content cookie, or one that predates
// change-log tracking). Recovered from original_source's cookie encoding,
// left unspecified by the distilled spec; see SPEC_FULL.md §5 / DESIGN.md's
// C7/C8 cookie-validity note.
const noChangeInfo = -1

// Cookie is the server-issued sync cookie (spec §3, §6): three
// '#'-separated fields.
type Cookie struct {
	ServerSig  string
	ClientSig  string
	ChangeInfo int64 // change-number high-water mark, or noChangeInfo
}

// NewInitialCookie returns a cookie with no change-log position, issued
// for initial-content refreshes.
func NewInitialCookie(serverSig string) Cookie {
	return Cookie{ServerSig: serverSig, ChangeInfo: noChangeInfo}
}

// String renders the cookie in its wire form, "server-sig#client-sig#change-info".
func (c Cookie) String() string {
	return fmt.Sprintf("%s#%s#%d", c.ServerSig, c.ClientSig, c.ChangeInfo)
}

// ErrMalformedCookie is returned by ParseCookie on any input that is not
// exactly three '#'-separated fields with an integer change-info.
var ErrMalformedCookie = fmt.Errorf("sync: malformed cookie")

// ParseCookie parses the wire form produced by Cookie.String.
func ParseCookie(s string) (Cookie, error) {
	parts := strings.SplitN(s, "#", 3)
	if len(parts) != 3 {
		return Cookie{}, ErrMalformedCookie
	}
	changeInfo, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Cookie{}, fmt.Errorf("%w: %v", ErrMalformedCookie, err)
	}
	return Cookie{ServerSig: parts[0], ClientSig: parts[1], ChangeInfo: changeInfo}, nil
}

// HasChangeInfo reports whether the cookie carries a change-log position
// suitable for a delta refresh, as opposed to an initial-content cookie.
func (c Cookie) HasChangeInfo() bool {
	return c.ChangeInfo != noChangeInfo
}

// ValidAgainst reports whether c is valid against a session whose current
// server/client signatures are serverSig/clientSig and whose change-info
// high-water mark is sessionChangeInfo (spec §3): both signatures must
// match, and c.ChangeInfo must fall in [-1, sessionChangeInfo].
func (c Cookie) ValidAgainst(serverSig, clientSig string, sessionChangeInfo int64) bool {
	if c.ServerSig != serverSig || c.ClientSig != clientSig {
		return false
	}
	return c.ChangeInfo >= noChangeInfo && c.ChangeInfo <= sessionChangeInfo
}

// ResultSyncRefreshRequired is RFC 4533's e-syncRefreshRequired result
// code (spec §4.7, §6, §8), returned to a client whose sync cookie fails
// ValidAgainst rather than served a delta refresh.
const ResultSyncRefreshRequired = 0x1000

// ErrSyncRefreshRequired signals that a client's sync cookie failed
// ValidAgainst against the current session and the caller must report
// ResultSyncRefreshRequired instead of continuing the refresh.
var ErrSyncRefreshRequired = fmt.Errorf("sync: cookie invalid against session, refresh required")
