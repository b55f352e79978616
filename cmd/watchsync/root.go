package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amaumene/watchsync/internal/config"
	"github.com/amaumene/watchsync/internal/controllers"
	"github.com/amaumene/watchsync/internal/models"
	"github.com/amaumene/watchsync/internal/utils"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var yes bool

	rootCmd := &cobra.Command{
		Use:   "watchsync [range | import]",
		Short: "Sync watched states between Plex and Shoko",
		Long: `Relays Plex watched states to Shoko for episodes watched within range
(for example 30m, 12h, 2d, 1w, 6mon, 1y; default everything), or with "import"
marks episodes Shoko has as watched as played in Plex.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return err
			}
			_, err := parseRunOptions(args)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseRunOptions(args)
			if err != nil {
				return err
			}
			return runSync(cmd.Context(), opts, yes)
		},
	}

	rootCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Import into every identity without asking")

	rootCmd.AddCommand(newDaemonCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}

// parseRunOptions maps the optional positional argument to a run mode
func parseRunOptions(args []string) (controllers.RunOptions, error) {
	var arg string
	if len(args) > 0 {
		arg = strings.TrimSpace(args[0])
	}

	if strings.EqualFold(arg, models.ImportToken) {
		return controllers.RunOptions{Mode: models.ModeImport}, nil
	}

	window, err := utils.ParseWindow(arg)
	if err != nil {
		return controllers.RunOptions{}, err
	}
	return controllers.RunOptions{Mode: models.ModeExport, Window: window}, nil
}

func runSync(ctx context.Context, opts controllers.RunOptions, yes bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	app, cleanup, err := initializeSync(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()

	app.Gate.SetAutoConfirm(yes)

	ctx, stop := signalContext(ctx)
	defer stop()

	run, err := app.Engine.Run(ctx, opts)
	if err != nil {
		return err
	}
	if run.Status == models.RunStatusAborted {
		return fmt.Errorf("import aborted: no answer on stdin (use --yes to skip prompts)")
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
