package value

import "github.com/ldapcore/ldapd/internal/ldap/csn"

func mkCSN(tstamp uint64) csn.CSN {
	return csn.New(tstamp, 0, 1, 0)
}
