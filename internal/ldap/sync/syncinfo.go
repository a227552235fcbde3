package sync

import (
	"bytes"
	"fmt"

	"github.com/ldapcore/ldapd/internal/ldap/bercodec"
)

// RFC 4533 §2.5's syncStateValue enumeration, carried in the per-entry
// syncStateControl (spec §6, LDAP_CONTROL_SYNC_STATE).
type SyncState int

const (
	SyncStatePresent SyncState = iota
	SyncStateAdd
	SyncStateModify
	SyncStateDelete
)

// EncodeSyncStateControl builds the per-entry syncStateControl value:
// SEQUENCE{ state ENUMERATED, entryUUID OCTET STRING, cookie OPTIONAL
// OCTET STRING } (spec §4.7: "cookie omitted during refresh").
func EncodeSyncStateControl(state SyncState, entryUUID string, cookie *Cookie) ([]byte, error) {
	var body bytes.Buffer
	if err := bercodec.WriteEnumerated(&body, int(state)); err != nil {
		return nil, err
	}
	if err := bercodec.WriteOctetString(&body, []byte(entryUUID)); err != nil {
		return nil, err
	}
	if cookie != nil {
		if err := bercodec.WriteOctetString(&body, []byte(cookie.String())); err != nil {
			return nil, err
		}
	}
	return bercodec.EncodeConstructed(bercodec.TagSequence, body.Bytes()), nil
}

// EncodeSyncDoneControl builds the result syncDoneControl value:
// SEQUENCE{ cookie OPTIONAL OCTET STRING, refreshDeletes BOOLEAN DEFAULT
// FALSE } (spec §4.7: "a result with syncDoneControl{cookie,
// refreshDeletes=false}").
func EncodeSyncDoneControl(cookie Cookie, refreshDeletes bool) ([]byte, error) {
	var body bytes.Buffer
	if err := bercodec.WriteOctetString(&body, []byte(cookie.String())); err != nil {
		return nil, err
	}
	if refreshDeletes {
		if err := bercodec.WriteBoolean(&body, true); err != nil {
			return nil, err
		}
	}
	return bercodec.EncodeConstructed(bercodec.TagSequence, body.Bytes()), nil
}

// Context-specific constructed tags for the syncInfoValue CHOICE (spec
// §6: "syncInfo intermediate-response tags: refreshDelete,
// refreshPresent, syncIdSet, newCookie"). EncodeConstructed writes
// whichever tag byte it is given, so these reuse it even though
// newCookie's ASN.1 class/form differs from a SEQUENCE's.
const (
	tagNewCookie      = 0x80 // [0] OCTET STRING
	tagRefreshDelete  = 0xA1 // [1] SEQUENCE
	tagRefreshPresent = 0xA2 // [2] SEQUENCE
	tagSyncIdSet      = 0xA3 // [3] SEQUENCE
)

// EncodeSyncInfoNewCookie builds the [0] newCookie alternative.
func EncodeSyncInfoNewCookie(cookie Cookie) []byte {
	return bercodec.EncodeConstructed(tagNewCookie, []byte(cookie.String()))
}

// EncodeSyncInfoRefreshDelete builds the [1] refreshDelete alternative:
// SEQUENCE{ cookie OPTIONAL OCTET STRING, refreshDone BOOLEAN DEFAULT
// TRUE }.
func EncodeSyncInfoRefreshDelete(cookie *Cookie, refreshDone bool) ([]byte, error) {
	var body bytes.Buffer
	if cookie != nil {
		if err := bercodec.WriteOctetString(&body, []byte(cookie.String())); err != nil {
			return nil, err
		}
	}
	if !refreshDone {
		if err := bercodec.WriteBoolean(&body, false); err != nil {
			return nil, err
		}
	}
	return bercodec.EncodeConstructed(tagRefreshDelete, body.Bytes()), nil
}

// EncodeSyncInfoRefreshPresent builds the [2] refreshPresent alternative,
// same shape as refreshDelete.
func EncodeSyncInfoRefreshPresent(cookie *Cookie, refreshDone bool) ([]byte, error) {
	var body bytes.Buffer
	if cookie != nil {
		if err := bercodec.WriteOctetString(&body, []byte(cookie.String())); err != nil {
			return nil, err
		}
	}
	if !refreshDone {
		if err := bercodec.WriteBoolean(&body, false); err != nil {
			return nil, err
		}
	}
	return bercodec.EncodeConstructed(tagRefreshPresent, body.Bytes()), nil
}

// EncodeSyncInfoSyncIdSet builds the [3] syncIdSet alternative: SEQUENCE{
// cookie OPTIONAL OCTET STRING, refreshDeletes BOOLEAN DEFAULT FALSE,
// syncUUIDs SET OF OCTET STRING }. Callers must pre-batch uuids to at
// most 50 per call (spec §4.7: "deleted UUIDs are batched (≤50 per
// intermediate response)"); see BatchDeletedUUIDs.
func EncodeSyncInfoSyncIdSet(cookie *Cookie, refreshDeletes bool, uuids []string) ([]byte, error) {
	if len(uuids) > 50 {
		return nil, fmt.Errorf("sync: syncIdSet batch of %d exceeds the 50-uuid limit", len(uuids))
	}

	var body bytes.Buffer
	if cookie != nil {
		if err := bercodec.WriteOctetString(&body, []byte(cookie.String())); err != nil {
			return nil, err
		}
	}
	if refreshDeletes {
		if err := bercodec.WriteBoolean(&body, true); err != nil {
			return nil, err
		}
	}

	var setBody bytes.Buffer
	for _, u := range uuids {
		if err := bercodec.WriteOctetString(&setBody, []byte(u)); err != nil {
			return nil, err
		}
	}
	body.Write(bercodec.EncodeConstructed(bercodec.TagSet, setBody.Bytes()))

	return bercodec.EncodeConstructed(tagSyncIdSet, body.Bytes()), nil
}
