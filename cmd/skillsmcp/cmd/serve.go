package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/skillsmcp/internal/logging"
	"github.com/Aman-CERP/skillsmcp/internal/mcp"
	"github.com/Aman-CERP/skillsmcp/internal/service"
	"github.com/Aman-CERP/skillsmcp/pkg/version"
)

func newServeCmd() *cobra.Command {
	var transport string
	var logFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol server.

The server speaks JSON-RPC on stdin/stdout. Nothing else is written to
stdout; logs go to ~/.skillsmcp/logs/server.log. Use 'skillsmcp logs -f'
in another terminal to watch them.

With watch.enabled the skill directory is polled and the index reloads
automatically when files change.`,
		Example: `  # Claude Desktop / Claude Code configuration
  {"command": "skillsmcp", "args": ["serve", "--skills-dir", "/path/to/skills"]}`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), transport, logFile)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport type: stdio (default from config)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: ~/.skillsmcp/logs/server.log)")

	return cmd
}

// runServe starts the MCP server and blocks until the client disconnects or
// the process is signaled. Stdout is reserved for the protocol.
func runServe(ctx context.Context, transport, logFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base, cfg, err := resolveProject()
	if err != nil {
		return err
	}
	if transport == "" {
		transport = cfg.Server.Transport
	}

	rotation, err := logRotation(cfg)
	if err != nil {
		return err
	}
	cleanup, err := logging.SetupServeMode(logLevel(cfg), logFile, rotation)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	svcCfg := service.FromConfig(cfg, base)
	slog.Info("starting skillsmcp",
		slog.String("version", version.Version),
		slog.String("project", base),
		slog.String("skills_dir", svcCfg.Root),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.Bool("persist_usage", svcCfg.Persist))

	svc, err := service.New(svcCfg, service.WithLogger(slog.Default()))
	if err != nil {
		slog.Error("failed to create service", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Warn("failed to flush usage statistics", slog.String("error", err.Error()))
		}
	}()

	if cfg.Watch.Enabled {
		if err := svc.StartRefresher(ctx); err != nil {
			// Polling continues; the next request retries the load.
			slog.Warn("initial index load failed", slog.String("error", err.Error()))
		}
	}

	srv, err := mcp.NewServer(svc, slog.Default())
	if err != nil {
		return err
	}
	return srv.Serve(ctx, transport)
}
