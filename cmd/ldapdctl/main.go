// Command ldapdctl is the admin client for ldapd's admin HTTP API:
// mapping-tree inspection, content-sync session inspection, and server
// status (SPEC_FULL.md §2.3, §3).
package main

import (
	"fmt"
	"os"

	"github.com/ldapcore/ldapd/cmd/ldapdctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
