package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ldapcore/ldapd/cmd/ldapdctl/cmdutil"
	"github.com/ldapcore/ldapd/internal/cli/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the status of the connected ldapd server.

This command checks the server's /healthz endpoint.

Examples:
  # Check status of connected server
  ldapdctl status --server http://localhost:9091

  # Output as JSON
  ldapdctl status --server http://localhost:9091 -o json`,
	RunE: runStatus,
}

// serverStatus represents the server status for display.
type serverStatus struct {
	Server  string `json:"server" yaml:"server"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	serverURL, err := cmdutil.RequireServerURL()
	if err != nil {
		return err
	}

	client, err := newAuthedClient()
	if err != nil {
		return err
	}

	status := serverStatus{Server: serverURL}

	data, err := client.Healthz()
	if err != nil {
		status.Error = err.Error()
	} else {
		status.Healthy = true
		status.Service = data["service"]
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}
	return nil
}

func printStatusTable(status serverStatus) {
	fmt.Println()
	fmt.Println("ldapd Server Status")
	fmt.Println("===================")
	fmt.Println()
	fmt.Printf("  Server:   %s\n", status.Server)
	if status.Healthy {
		fmt.Printf("  Status:   \033[32m● healthy\033[0m\n")
		fmt.Printf("  Service:  %s\n", status.Service)
	} else {
		fmt.Printf("  Status:   \033[31m○ unreachable\033[0m\n")
		fmt.Printf("  Error:    %s\n", status.Error)
	}
	fmt.Println()
}
