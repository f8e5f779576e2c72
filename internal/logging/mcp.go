package logging

import (
	"log/slog"
)

// SetupServeMode installs the default logger for the stdio MCP server.
//
// Records go to the rotating log file only. Stdout belongs to JSON-RPC and
// any stray write there corrupts the protocol stream, so stderr is left
// untouched too. Empty or zero arguments keep DefaultConfig values.
func SetupServeMode(level, path string, rot Rotation) (func(), error) {
	cfg := DefaultConfig()
	cfg.WriteToStderr = false
	if level != "" {
		cfg.Level = level
	}
	if path != "" {
		cfg.FilePath = path
	}
	if rot.MaxSizeMB > 0 {
		cfg.Rotation = rot
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("serve mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level),
		slog.Int("max_size_mb", cfg.Rotation.MaxSizeMB),
		slog.Int("max_files", cfg.Rotation.MaxFiles),
		slog.String("sync", string(cfg.Rotation.Sync)))

	return cleanup, nil
}
