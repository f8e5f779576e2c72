package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/skillsmcp/internal/output"
	"github.com/Aman-CERP/skillsmcp/internal/service"
	"github.com/Aman-CERP/skillsmcp/internal/telemetry"
)

// statsTopTerms bounds the term list read from the usage database.
const statsTopTerms = 20

func newStatsCmd() *cobra.Command {
	var jsonOutput bool
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show persisted usage statistics",
		Long: `Show tool call counts, skill loads, frequent query terms and recent
searches recorded by 'skillsmcp serve'.

Statistics are only written when telemetry.persist is enabled; the server
flushes them to telemetry.db_path on shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, jsonOutput, recent)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&recent, "recent", 0, "Number of recent searches to show (default from config)")

	return cmd
}

func runStats(cmd *cobra.Command, jsonOutput bool, recent int) error {
	out := output.New(cmd.OutOrStdout())

	_, cfg, err := resolveProject()
	if err != nil {
		return err
	}
	if recent <= 0 {
		recent = cfg.Telemetry.StatsRecent
	}

	if !fileExists(cfg.Telemetry.DBPath) {
		out.Warning("No usage statistics recorded yet")
		out.Statusf("📁", "Expected at: %s", cfg.Telemetry.DBPath)
		out.Status("💡", "Set telemetry.persist: true and run 'skillsmcp serve'")
		return nil
	}

	store, err := telemetry.OpenSQLiteStore(cfg.Telemetry.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open usage store: %w", err)
	}
	defer func() { _ = store.Close() }()

	snap, err := telemetry.LoadSnapshot(store, recent, statsTopTerms)
	if err != nil {
		return fmt.Errorf("failed to read usage statistics: %w", err)
	}

	st := &service.Stats{Snapshot: snap, Uptime: "n/a"}
	if jsonOutput {
		return out.JSON(st)
	}
	out.Stats(st)
	return nil
}
