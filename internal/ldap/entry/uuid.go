package entry

import (
	"fmt"

	"github.com/google/uuid"
)

// NewUniqueID generates a fresh nsuniqueid for a newly created entry
// (recovered from original_source/ldap/servers/slapd/uniqueid.c, not
// covered by the distilled spec; see SPEC_FULL.md §5). Generation uses
// google/uuid's time-based generator so ids are monotonic within one
// server process, the same property the original gives via its own
// time-and-node based generator.
func NewUniqueID() (string, error) {
	id, err := uuid.NewUUID()
	if err != nil {
		// NewUUID only fails if the system can't read a MAC address or
		// random bytes; fall back to a random v4 id rather than failing
		// entry creation outright.
		id = uuid.New()
	}
	return FormatUUID(id), nil
}

// FormatUUID renders id in the server's canonical 16-hex-byte, dashed form
// (spec §6): 36 characters, 8-4-4-4-12 hex digits, with '-' at offsets 8,
// 13, 18 and 23.
func FormatUUID(id uuid.UUID) string {
	return id.String()
}

// ParseUUID parses the dashed nsuniqueid string form, strict on dash
// positions (spec §6).
func ParseUUID(s string) (uuid.UUID, error) {
	if len(s) != 36 || s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return uuid.UUID{}, fmt.Errorf("entry: malformed uuid %q", s)
	}
	return uuid.Parse(s)
}
