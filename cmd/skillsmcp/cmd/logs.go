package cmd

import (
	"fmt"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/skillsmcp/internal/logging"
	"github.com/Aman-CERP/skillsmcp/internal/output"
)

func newLogsCmd() *cobra.Command {
	var (
		lines   int
		follow  bool
		level   string
		pattern string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View server logs",
		Long: `Print the last lines of the server log, optionally following new entries.

The MCP server cannot write to the terminal, so this is the way to watch
it while a client is connected.`,
		Example: `  skillsmcp logs
  skillsmcp logs -f --level warn
  skillsmcp logs --grep "search_skills"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return err
			}

			cfg := logging.ViewerConfig{
				Level:   level,
				NoColor: !output.IsTTY(cmd.OutOrStdout()) || output.DetectNoColor(),
			}
			if pattern != "" {
				re, err := regexp.Compile(pattern)
				if err != nil {
					return fmt.Errorf("invalid --grep pattern: %w", err)
				}
				cfg.Pattern = re
			}
			viewer := logging.NewViewer(cfg, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ch := make(chan logging.Entry)
			errCh := make(chan error, 1)
			go func() {
				errCh <- viewer.Follow(ctx, path, ch)
				close(ch)
			}()
			for entry := range ch {
				viewer.Print([]logging.Entry{entry})
			}
			return <-errCh
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow new entries")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&pattern, "grep", "", "Only show lines matching this regular expression")
	cmd.Flags().StringVar(&file, "file", "", "Log file (default: ~/.skillsmcp/logs/server.log)")

	return cmd
}
