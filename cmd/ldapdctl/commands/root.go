// Package commands implements the CLI commands for the ldapdctl admin client.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ldapcore/ldapd/cmd/ldapdctl/cmdutil"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ldapdctl",
	Short: "ldapdctl - ldapd admin client",
	Long: `ldapdctl talks to ldapd's admin HTTP API: mapping-tree inspection,
content-sync session inspection, and server status.

Authentication is a single shared signing key, not a per-user login:
pass --signing-key (or LDAPDCTL_SIGNING_KEY) to mint a bearer token
locally, or pass a pre-minted token directly with --token.

Use "ldapdctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.SigningKey, _ = cmd.Flags().GetString("signing-key")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")

		if cmdutil.Flags.ServerURL == "" {
			cmdutil.Flags.ServerURL = os.Getenv("LDAPDCTL_SERVER")
		}
		if cmdutil.Flags.Token == "" {
			cmdutil.Flags.Token = os.Getenv("LDAPDCTL_TOKEN")
		}
		if cmdutil.Flags.SigningKey == "" {
			cmdutil.Flags.SigningKey = os.Getenv("LDAPDCTL_SIGNING_KEY")
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Admin API URL, e.g. http://localhost:9091 (env LDAPDCTL_SERVER)")
	rootCmd.PersistentFlags().String("token", "", "Pre-minted bearer token (env LDAPDCTL_TOKEN)")
	rootCmd.PersistentFlags().String("signing-key", "", "JWT signing key to mint a bearer token locally (env LDAPDCTL_SIGNING_KEY)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mappingTreeCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}
