// Package config loads skillsmcp configuration from defaults, YAML files and
// SKILLSMCP_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfigName is the per-project configuration file.
const ProjectConfigName = ".skillsmcp.yaml"

// Config represents the complete skillsmcp configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Skills      SkillsConfig      `yaml:"skills" json:"skills"`
	Watch       WatchConfig       `yaml:"watch" json:"watch"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" json:"telemetry"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
	Server      ServerConfig      `yaml:"server" json:"server"`
}

// SkillsConfig locates the skill store.
type SkillsConfig struct {
	// Dir is the store root. Relative paths resolve against the project dir.
	Dir string `yaml:"dir" json:"dir"`
}

// WatchConfig configures background change detection.
type WatchConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// PollInterval is a Go duration string, e.g. "5s".
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`

	// Fsnotify wakes the poller early on file system events.
	Fsnotify bool `yaml:"fsnotify" json:"fsnotify"`
}

// SearchConfig configures query limits and snippet windows.
type SearchConfig struct {
	DefaultSkillLimit   int `yaml:"default_skill_limit" json:"default_skill_limit"`
	DefaultContentLimit int `yaml:"default_content_limit" json:"default_content_limit"`
	MaxQueryLength      int `yaml:"max_query_length" json:"max_query_length"`
	MaxQueryTerms       int `yaml:"max_query_terms" json:"max_query_terms"`
	SnippetBefore       int `yaml:"snippet_before" json:"snippet_before"`
	SnippetAfter        int `yaml:"snippet_after" json:"snippet_after"`
}

// TelemetryConfig configures usage statistics.
type TelemetryConfig struct {
	// RecentSearches bounds the in-memory recent search buffer.
	RecentSearches int `yaml:"recent_searches" json:"recent_searches"`

	// StatsRecent is how many recent searches get_stats returns.
	StatsRecent int `yaml:"stats_recent" json:"stats_recent"`

	// Persist flushes counters to a SQLite file on shutdown.
	Persist bool `yaml:"persist" json:"persist"`

	// DBPath is the SQLite file used when Persist is set.
	DBPath string `yaml:"db_path" json:"db_path"`
}

// PerformanceConfig configures indexing parallelism.
type PerformanceConfig struct {
	IndexWorkers int `yaml:"index_workers" json:"index_workers"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`

	// LogMaxSizeMB and LogMaxFiles bound the rotating server log.
	LogMaxSizeMB int `yaml:"log_max_size_mb" json:"log_max_size_mb"`
	LogMaxFiles  int `yaml:"log_max_files" json:"log_max_files"`

	// LogSync is "record" (flush every record) or "rotate".
	LogSync string `yaml:"log_sync" json:"log_sync"`
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Skills: SkillsConfig{
			Dir: "skills",
		},
		Watch: WatchConfig{
			Enabled:      true,
			PollInterval: "5s",
			Fsnotify:     false,
		},
		Search: SearchConfig{
			DefaultSkillLimit:   5,
			DefaultContentLimit: 10,
			MaxQueryLength:      1000,
			MaxQueryTerms:       100,
			SnippetBefore:       50,
			SnippetAfter:        150,
		},
		Telemetry: TelemetryConfig{
			RecentSearches: 100,
			StatsRecent:    10,
			Persist:        false,
			DBPath:         defaultTelemetryPath(),
		},
		Performance: PerformanceConfig{
			IndexWorkers: runtime.NumCPU(),
		},
		Server: ServerConfig{
			Transport:    "stdio",
			LogLevel:     "info",
			LogMaxSizeMB: 10,
			LogMaxFiles:  5,
			LogSync:      "record",
		},
	}
}

// defaultTelemetryPath returns ~/.skillsmcp/usage.db.
func defaultTelemetryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".skillsmcp", "usage.db")
	}
	return filepath.Join(home, ".skillsmcp", "usage.db")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/skillsmcp/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/skillsmcp/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "skillsmcp", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "skillsmcp", "config.yaml")
	}
	return filepath.Join(home, ".config", "skillsmcp", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/skillsmcp/config.yaml)
//  3. Project config (.skillsmcp.yaml in dir)
//  4. Environment variables (SKILLSMCP_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads .skillsmcp.yaml, falling back to .skillsmcp.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ProjectConfigName)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".skillsmcp.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML decodes path over the current values. Keys absent from the file
// keep their previous value, so an explicit false or 0 still overrides.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	parsed := *c
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	*c = parsed
	return nil
}

// applyEnvOverrides applies SKILLSMCP_* environment variable overrides.
// Malformed values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SKILLSMCP_SKILLS_DIR"); v != "" {
		c.Skills.Dir = v
	}

	if v := os.Getenv("SKILLSMCP_WATCH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Watch.Enabled = b
		}
	}
	if v := os.Getenv("SKILLSMCP_POLL_INTERVAL"); v != "" {
		c.Watch.PollInterval = v
	}
	if v := os.Getenv("SKILLSMCP_FSNOTIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Watch.Fsnotify = b
		}
	}

	if v := os.Getenv("SKILLSMCP_TELEMETRY_PERSIST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Telemetry.Persist = b
		}
	}
	if v := os.Getenv("SKILLSMCP_TELEMETRY_DB"); v != "" {
		c.Telemetry.DBPath = v
	}

	if v := os.Getenv("SKILLSMCP_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Performance.IndexWorkers = n
		}
	}

	if v := os.Getenv("SKILLSMCP_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("SKILLSMCP_LOG_SYNC"); v != "" {
		c.Server.LogSync = v
	}
	if v := os.Getenv("SKILLSMCP_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

// PollDuration returns the parsed poll interval.
// Callers should run Validate first; an unparseable value yields 5s.
func (c *Config) PollDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.PollInterval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// SkillsRoot resolves the skill store root against base when it is relative.
func (c *Config) SkillsRoot(base string) string {
	dir := c.Skills.Dir
	if strings.HasPrefix(dir, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	return filepath.Clean(dir)
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Skills.Dir) == "" {
		return fmt.Errorf("skills.dir must not be empty")
	}

	d, err := time.ParseDuration(c.Watch.PollInterval)
	if err != nil {
		return fmt.Errorf("watch.poll_interval must be a duration like \"5s\", got %q", c.Watch.PollInterval)
	}
	if d < 100*time.Millisecond {
		return fmt.Errorf("watch.poll_interval must be at least 100ms, got %s", d)
	}

	positive := []struct {
		key string
		val int
	}{
		{"search.default_skill_limit", c.Search.DefaultSkillLimit},
		{"search.default_content_limit", c.Search.DefaultContentLimit},
		{"search.max_query_length", c.Search.MaxQueryLength},
		{"search.max_query_terms", c.Search.MaxQueryTerms},
		{"telemetry.recent_searches", c.Telemetry.RecentSearches},
		{"performance.index_workers", c.Performance.IndexWorkers},
		{"server.log_max_size_mb", c.Server.LogMaxSizeMB},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.key, p.val)
		}
	}

	if c.Search.DefaultSkillLimit > 100 || c.Search.DefaultContentLimit > 100 {
		return fmt.Errorf("search default limits must not exceed 100")
	}
	if c.Search.SnippetBefore < 0 || c.Search.SnippetAfter < 0 {
		return fmt.Errorf("search snippet windows must be non-negative")
	}
	if c.Telemetry.StatsRecent < 0 || c.Telemetry.StatsRecent > c.Telemetry.RecentSearches {
		return fmt.Errorf("telemetry.stats_recent must be between 0 and telemetry.recent_searches (%d), got %d",
			c.Telemetry.RecentSearches, c.Telemetry.StatsRecent)
	}
	if c.Telemetry.Persist && c.Telemetry.DBPath == "" {
		return fmt.Errorf("telemetry.db_path is required when telemetry.persist is true")
	}

	if strings.ToLower(c.Server.Transport) != "stdio" {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	if c.Server.LogMaxFiles < 0 {
		return fmt.Errorf("server.log_max_files must not be negative, got %d", c.Server.LogMaxFiles)
	}
	switch strings.ToLower(c.Server.LogSync) {
	case "", "record", "rotate":
	default:
		return fmt.Errorf("server.log_sync must be 'record' or 'rotate', got %s", c.Server.LogSync)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file, creating parent dirs.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindProjectRoot walks up from startDir looking for a .skillsmcp.yaml or a
// .git directory and returns the first directory holding either. When
// neither is found the absolute startDir is returned.
func FindProjectRoot(startDir string) (string, error) {
	if startDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		startDir = wd
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}
	if !dirExists(abs) {
		return "", fmt.Errorf("directory does not exist: %s", abs)
	}

	for dir := abs; ; {
		if fileExists(filepath.Join(dir, ProjectConfigName)) || dirExists(filepath.Join(dir, ".git")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
