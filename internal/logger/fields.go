package logger

// Standard field keys used across the server. Using constants keeps log
// aggregation queries stable even as call sites are added.
const (
	KeyConnID    = "conn_id"
	KeyMsgID     = "msg_id"
	KeyBindDN    = "bind_dn"
	KeySuffix    = "suffix"
	KeyBackend   = "backend"
	KeyClientIP  = "client_ip"
	KeyOperation = "operation"

	KeyResultCode = "result_code"
	KeyDurationMS = "duration_ms"

	KeySessionID  = "sync_session_id"
	KeyCookie     = "sync_cookie"
	KeyChangeNo   = "change_number"
	KeyEntryUUID  = "entry_uuid"
	KeyChangeType = "change_type"

	KeySyntaxOID  = "syntax_oid"
	KeySyntaxName = "syntax_name"
	KeyMatchRule  = "matching_rule"

	KeyError = "error"
)
