// Package cmd provides the CLI commands for skillsmcp.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/skillsmcp/internal/config"
	skerrors "github.com/Aman-CERP/skillsmcp/internal/errors"
	"github.com/Aman-CERP/skillsmcp/internal/logging"
	"github.com/Aman-CERP/skillsmcp/internal/profiling"
	"github.com/Aman-CERP/skillsmcp/internal/service"
	"github.com/Aman-CERP/skillsmcp/pkg/version"
)

// Global flags
var (
	debugMode  bool
	projectDir string
	skillsDir  string
)

// Profiling flags
var (
	profileCfg profiling.Config
	profiler   *profiling.Session
)

// NewRootCmd creates the root command for skillsmcp CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skillsmcp",
		Short: "MCP server for on-demand skill documents",
		Long: `skillsmcp indexes a directory of skill documents and serves them to AI
coding assistants over the Model Context Protocol.

Each skill domain is a directory holding a _meta.json file, a SKILL.md
overview and optional sub-skill documents. Assistants list, search and
load only the documents they need.

Run 'skillsmcp' with no arguments to start the MCP server on stdio.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runServe(cmd.Context(), "", "")
		},
	}

	cmd.SetVersionTemplate("skillsmcp version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "Project directory (default: nearest dir with .skillsmcp.yaml or .git)")
	cmd.PersistentFlags().StringVarP(&skillsDir, "skills-dir", "d", "", "Skill store directory (overrides skills.dir)")

	cmd.PersistentFlags().StringVar(&profileCfg.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileCfg.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileCfg.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfiling
	cmd.PersistentPostRunE = stopProfiling

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSearchContentCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfiling starts the profiles requested by the --profile-* flags.
func startProfiling(_ *cobra.Command, _ []string) error {
	if !profileCfg.Enabled() {
		return nil
	}
	s, err := profiling.Start(profileCfg)
	if err != nil {
		return err
	}
	profiler = s
	return nil
}

// stopProfiling flushes profiles, writing the heap profile last.
func stopProfiling(_ *cobra.Command, _ []string) error {
	err := profiler.Stop()
	profiler = nil
	return err
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		printError(cmd, err)
	}
	return err
}

// resolveProject returns the project directory and its merged configuration.
func resolveProject() (string, *config.Config, error) {
	base := projectDir
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		base, err = config.FindProjectRoot(cwd)
		if err != nil {
			base = cwd
		}
	}

	cfg, err := config.Load(base)
	if err != nil {
		return "", nil, skerrors.ConfigError(err.Error(), err).
			WithSuggestion("Run 'skillsmcp config show' to inspect the effective configuration.")
	}
	if skillsDir != "" {
		cfg.Skills.Dir = skillsDir
	}
	return base, cfg, nil
}

// logLevel returns the effective log level for cfg.
func logLevel(cfg *config.Config) string {
	if debugMode {
		return "debug"
	}
	return cfg.Server.LogLevel
}

// logRotation maps the server log settings onto the rotating writer.
func logRotation(cfg *config.Config) (logging.Rotation, error) {
	policy, err := logging.ParseSyncPolicy(cfg.Server.LogSync)
	if err != nil {
		return logging.Rotation{}, skerrors.ConfigError(err.Error(), err)
	}
	return logging.Rotation{
		MaxSizeMB: cfg.Server.LogMaxSizeMB,
		MaxFiles:  cfg.Server.LogMaxFiles,
		Sync:      policy,
	}, nil
}

// openService builds a service for one-shot commands. Usage is never
// persisted from the CLI so that server statistics stay meaningful.
func openService(cmd *cobra.Command) (*service.Service, error) {
	base, cfg, err := resolveProject()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if debugMode {
		level = "debug"
	}
	logger := logging.SetupCLI(level)

	svcCfg := service.FromConfig(cfg, base)
	svcCfg.Persist = false
	if !dirExists(svcCfg.Root) {
		return nil, skerrors.ConfigError(fmt.Sprintf("Skills directory not found: %s", svcCfg.Root), nil).
			WithSuggestion("Set skills.dir in .skillsmcp.yaml or pass --skills-dir.")
	}

	logger.Debug("cli service opened",
		slog.String("command", cmd.Name()),
		slog.String("root", svcCfg.Root))
	return service.New(svcCfg, service.WithLogger(logger))
}

// withService runs fn against a freshly opened service and closes it.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, svc)
}

// printError writes err to stderr, with hint and code for SkillErrors.
func printError(cmd *cobra.Command, err error) {
	var se *skerrors.SkillError
	if errors.As(err, &se) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), skerrors.FormatForCLI(se))
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
