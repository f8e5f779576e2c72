package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/skillsmcp/internal/logging"
	"github.com/Aman-CERP/skillsmcp/internal/output"
	"github.com/Aman-CERP/skillsmcp/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var jsonOutput bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment before connecting a client",
		Long: `Run environment checks: the skill directory exists and validates, the log
directory and usage database are writable, and disk space and file
descriptor limits are sufficient.

Exits non-zero when a required check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base, cfg, err := resolveProject()
			if err != nil {
				return err
			}

			rot, err := logRotation(cfg)
			if err != nil {
				return err
			}

			checker := preflight.New(
				preflight.WithOutput(cmd.OutOrStdout()),
				preflight.WithVerbose(verbose),
			)
			results := checker.RunAll(cmd.Context(), preflight.Target{
				SkillsDir: cfg.SkillsRoot(base),
				LogDir:    logging.DefaultLogDir(),
				DBPath:    cfg.Telemetry.DBPath,
				Persist:   cfg.Telemetry.Persist,

				LogRotation:  rot,
				IndexWorkers: cfg.Performance.IndexWorkers,
				Fsnotify:     cfg.Watch.Fsnotify,
			})

			if jsonOutput {
				if err := output.New(cmd.OutOrStdout()).JSON(map[string]any{
					"status": checker.SummaryStatus(results),
					"checks": results,
				}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return fmt.Errorf("system check failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show details for each check")

	return cmd
}
