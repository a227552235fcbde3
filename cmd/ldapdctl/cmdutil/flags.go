// Package cmdutil holds ldapdctl's global flag values, populated by the
// root command's PersistentPreRun and read by every subcommand.
package cmdutil

import (
	"fmt"

	"github.com/ldapcore/ldapd/internal/cli/output"
)

// GlobalFlags holds the persistent flags shared by every subcommand.
type GlobalFlags struct {
	ServerURL  string
	Token      string
	SigningKey string
	Output     string
	NoColor    bool
	Verbose    bool
}

// Flags is the package-level instance populated by the root command.
var Flags GlobalFlags

// GetOutputFormatParsed parses Flags.Output into an output.Format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// RequireServerURL returns Flags.ServerURL or an error if it is unset.
func RequireServerURL() (string, error) {
	if Flags.ServerURL == "" {
		return "", fmt.Errorf("no server configured: pass --server or set LDAPDCTL_SERVER")
	}
	return Flags.ServerURL, nil
}
