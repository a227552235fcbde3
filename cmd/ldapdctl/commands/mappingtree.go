package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ldapcore/ldapd/cmd/ldapdctl/cmdutil"
	"github.com/ldapcore/ldapd/internal/cli/output"
)

var mappingTreeCmd = &cobra.Command{
	Use:     "mapping-tree",
	Aliases: []string{"suffix", "tree"},
	Short:   "Inspect the mapping tree",
	Long: `List every suffix node in ldapd's mapping tree and the backends
mounted at each, along with each backend's on/offline/delete state.

Examples:
  ldapdctl mapping-tree --server http://localhost:9091 --signing-key secret`,
	RunE: runMappingTree,
}

func runMappingTree(cmd *cobra.Command, args []string) error {
	client, err := newAuthedClient()
	if err != nil {
		return err
	}

	nodes, err := client.MappingTree()
	if err != nil {
		return err
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, nodes)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, nodes)
	default:
		return output.PrintTable(os.Stdout, nodes)
	}
}
