package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ldapcore/ldapd/internal/logger"
	"github.com/ldapcore/ldapd/pkg/config"
	"github.com/ldapcore/ldapd/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ldapd server",
	Long: `Start ldapd: load the configured backends into the mapping tree,
start the admin/metrics HTTP API if enabled, and run until interrupted.

Examples:
  # Start with the default configuration file
  ldapd serve

  # Start with a custom configuration file
  ldapd serve --config /etc/ldapd/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("ldapd starting", "version", Version, "commit", Commit)

	srv := server.New(cfg)

	if err := srv.LoadMappingTree(cfg.Backend); err != nil {
		return fmt.Errorf("failed to load mapping tree: %w", err)
	}
	logger.Info("mapping tree loaded", "backends", len(cfg.Backend.Backends))

	reg := srv.InitMetrics()
	if reg != nil {
		logger.Info("metrics enabled")
	} else {
		logger.Info("metrics disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adminDone := make(chan error, 1)
	go func() {
		adminDone <- srv.StartAdminAPI(ctx, reg)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("ldapd is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-adminDone; err != nil {
			logger.Error("admin API shutdown error", "error", err)
		}
	case err := <-adminDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("admin API failed", "error", err)
		}
	}

	if err := srv.Close(); err != nil {
		logger.Error("error closing server", "error", err)
		return err
	}

	logger.Info("ldapd stopped gracefully")
	return nil
}
