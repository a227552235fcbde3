package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ldapcore/ldapd/cmd/ldapdctl/cmdutil"
	"github.com/ldapcore/ldapd/internal/cli/output"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect content-sync persistent-search sessions",
}

var syncSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show the number of active content-sync sessions",
	Long: `Report how many RFC 4533 persistent-search sessions are currently
registered with ldapd's content-sync session manager.

Examples:
  ldapdctl sync sessions --server http://localhost:9091 --signing-key secret`,
	RunE: runSyncSessions,
}

func init() {
	syncCmd.AddCommand(syncSessionsCmd)
}

func runSyncSessions(cmd *cobra.Command, args []string) error {
	client, err := newAuthedClient()
	if err != nil {
		return err
	}

	view, err := client.SyncSessions()
	if err != nil {
		return err
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, view)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, view)
	default:
		fmt.Printf("Active sync sessions: %d\n", view.ActiveSessions)
		return nil
	}
}
