// Command ldapd runs the directory server core: mapping tree, backends,
// content-sync engines, metrics, and the admin HTTP API (SPEC_FULL.md §2.3).
package main

import (
	"os"

	"github.com/ldapcore/ldapd/cmd/ldapd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
