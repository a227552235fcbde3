package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ldapcore/ldapd/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Write a default ldapd configuration file to the target location.

A backend mount must still be added by hand before the server can start;
the generated YAML file leaves the backend.backends list empty.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	cfg := config.GetDefaultConfig()
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	fmt.Printf("Configuration written to %s\n", path)
	fmt.Println("Add at least one entry under backend.backends before starting ldapd.")
	return nil
}
