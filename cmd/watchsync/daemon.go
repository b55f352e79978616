package main

import (
	"fmt"
	"path/filepath"

	"github.com/amaumene/watchsync/internal/config"
	"github.com/spf13/cobra"
)

func newDaemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled exports and serve status over HTTP",
		Long: `Runs an export with SYNC_WINDOW on the SYNC_SCHEDULE cron schedule and serves
/health, /status and /metrics on SERVER_PORT. Import is never scheduled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			app, cleanup, err := initializeApp(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer cleanup()

			logger := app.Logger
			logger.Info("Starting watchsync daemon")
			logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if err := app.Scheduler.Start(ctx); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer app.Scheduler.Stop()

			logger.Info("watchsync is running")
			if err := app.Server.Start(ctx); err != nil {
				return err
			}

			logger.Info("watchsync stopped")
			return nil
		},
	}
}
