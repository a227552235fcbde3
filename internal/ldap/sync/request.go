package sync

import (
	"bytes"
	"fmt"

	"github.com/ldapcore/ldapd/internal/ldap/bercodec"
)

// Mode is the sync-request control's mode field (spec §4.7, step 1).
type Mode int

const (
	ModeRefreshOnly       Mode = 1
	ModeRefreshAndPersist Mode = 3
)

// Request is the decoded sync-request control (spec §4.7: "{ mode
// ENUMERATED (refreshOnly=1, refreshAndPersist=3), cookie OPTIONAL,
// reloadHint BOOLEAN }").
type Request struct {
	Mode       Mode
	Cookie     *Cookie
	ReloadHint bool
}

// ErrInvalidMode is returned by ParseRequestControl when the mode field
// is neither refreshOnly nor refreshAndPersist.
var ErrInvalidMode = fmt.Errorf("sync: invalid sync-request mode")

// ParseRequestControl decodes the BER-encoded sync-request control value
// (spec §4.7, step 1), reusing the C2 BER primitives since the control's
// SEQUENCE{ENUMERATED, OPTIONAL OCTET STRING, OPTIONAL BOOLEAN} shape is
// the same TLV grammar the replicated-entry codec already implements.
func ParseRequestControl(buf []byte) (req *Request, err error) {
	defer func() {
		if r := recover(); r != nil {
			req, err = nil, fmt.Errorf("sync: malformed sync-request control: %v", r)
		}
	}()

	top := bercodec.NewReader(buf)
	seq, err := top.EnterConstructed(bercodec.TagSequence)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	modeVal, err := seq.ReadEnumerated()
	if err != nil {
		return nil, fmt.Errorf("sync: missing mode: %w", err)
	}
	mode := Mode(modeVal)
	if mode != ModeRefreshOnly && mode != ModeRefreshAndPersist {
		return nil, ErrInvalidMode
	}
	result := &Request{Mode: mode}

	if tag, err := seq.PeekTag(); err == nil && tag == bercodec.TagOctetStr {
		cookieBytes, err := seq.ReadOctetString()
		if err != nil {
			return nil, fmt.Errorf("sync: malformed cookie: %w", err)
		}
		if len(cookieBytes) > 0 {
			c, err := ParseCookie(string(cookieBytes))
			if err != nil {
				return nil, err
			}
			result.Cookie = &c
		}
	}

	if tag, err := seq.PeekTag(); err == nil && tag == bercodec.TagBoolean {
		hint, err := seq.ReadBoolean()
		if err != nil {
			return nil, fmt.Errorf("sync: malformed reloadHint: %w", err)
		}
		result.ReloadHint = hint
	}

	return result, nil
}

// EncodeRequestControl is the encoder counterpart of ParseRequestControl,
// used by tests and by any internal chaining replication path that needs
// to synthesize a sync-request.
func EncodeRequestControl(req Request) ([]byte, error) {
	var body bytes.Buffer
	if err := bercodec.WriteEnumerated(&body, int(req.Mode)); err != nil {
		return nil, err
	}
	if req.Cookie != nil {
		if err := bercodec.WriteOctetString(&body, []byte(req.Cookie.String())); err != nil {
			return nil, err
		}
	}
	if req.ReloadHint {
		if err := bercodec.WriteBoolean(&body, true); err != nil {
			return nil, err
		}
	}
	return bercodec.EncodeConstructed(bercodec.TagSequence, body.Bytes()), nil
}
