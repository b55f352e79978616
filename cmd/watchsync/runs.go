package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/amaumene/watchsync/internal/config"
	"github.com/amaumene/watchsync/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sync runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			db, err := models.NewDatabase(cfg.DatabaseFile)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.GetRecentRuns(limit)
			if err != nil {
				return fmt.Errorf("failed to read run journal: %w", err)
			}

			return writeRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func writeRuns(w io.Writer, runs []*models.SyncRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}

	_, err := fmt.Fprintln(w, renderRunsTable(runs))
	return err
}

func renderRunsTable(runs []*models.SyncRun) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", "Mode", "Window", "Status", "Started", "Duration", "Relayed", "Imported", "Synced", "Unmatched", "Failed"})

	for _, run := range runs {
		tw.AppendRow(table.Row{
			shortID(run.RunID),
			string(run.Mode),
			dash(run.Window),
			string(run.Status),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			duration(run),
			strconv.Itoa(run.Relayed),
			strconv.Itoa(run.Imported),
			strconv.Itoa(run.AlreadySynced),
			strconv.Itoa(run.Unmatched),
			strconv.Itoa(run.Failed),
		})
	}

	configs := []table.ColumnConfig{}
	for i := 7; i <= 11; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func duration(run *models.SyncRun) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
}
