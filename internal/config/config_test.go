package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config lookup at an empty temp dir and clears env.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		"SKILLSMCP_SKILLS_DIR", "SKILLSMCP_WATCH_ENABLED", "SKILLSMCP_POLL_INTERVAL",
		"SKILLSMCP_FSNOTIFY", "SKILLSMCP_TELEMETRY_PERSIST", "SKILLSMCP_TELEMETRY_DB",
		"SKILLSMCP_INDEX_WORKERS", "SKILLSMCP_LOG_LEVEL", "SKILLSMCP_TRANSPORT",
	} {
		t.Setenv(k, "")
	}
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, "skills", cfg.Skills.Dir)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, "5s", cfg.Watch.PollInterval)
	assert.False(t, cfg.Watch.Fsnotify)

	assert.Equal(t, 5, cfg.Search.DefaultSkillLimit)
	assert.Equal(t, 10, cfg.Search.DefaultContentLimit)
	assert.Equal(t, 1000, cfg.Search.MaxQueryLength)
	assert.Equal(t, 100, cfg.Search.MaxQueryTerms)
	assert.Equal(t, 50, cfg.Search.SnippetBefore)
	assert.Equal(t, 150, cfg.Search.SnippetAfter)

	assert.Equal(t, 100, cfg.Telemetry.RecentSearches)
	assert.Equal(t, 10, cfg.Telemetry.StatsRecent)
	assert.False(t, cfg.Telemetry.Persist)
	assert.Equal(t, "usage.db", filepath.Base(cfg.Telemetry.DBPath))

	assert.Equal(t, runtime.NumCPU(), cfg.Performance.IndexWorkers)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 10, cfg.Server.LogMaxSizeMB)
	assert.Equal(t, 5, cfg.Server.LogMaxFiles)
	assert.Equal(t, "record", cfg.Server.LogSync)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.PollDuration())
}

func TestLoad_NoFiles_ReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
}

func TestLoad_ProjectConfig_OverridesDefaults(t *testing.T) {
	isolate(t)

	// Given: a project config that disables watching and changes limits
	dir := t.TempDir()
	content := `
skills:
  dir: ./docs/skills
watch:
  enabled: false
  poll_interval: 2s
search:
  default_skill_limit: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".skillsmcp.yaml"), []byte(content), 0o644))

	// When: loading
	cfg, err := Load(dir)

	// Then: explicit values win, including an explicit false
	require.NoError(t, err)
	assert.Equal(t, "./docs/skills", cfg.Skills.Dir)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, 2*time.Second, cfg.PollDuration())
	assert.Equal(t, 8, cfg.Search.DefaultSkillLimit)
	assert.Equal(t, 10, cfg.Search.DefaultContentLimit, "unset keys keep defaults")
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".skillsmcp.yml"), []byte("server:\n  log_level: debug\n"), 0o644))

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
}

func TestLoad_Precedence_UserThenProjectThenEnv(t *testing.T) {
	isolate(t)

	// Given: user config, project config and env all set different values
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	userPath := filepath.Join(xdg, "skillsmcp", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
	require.NoError(t, os.WriteFile(userPath, []byte("search:\n  default_content_limit: 20\n  default_skill_limit: 7\nserver:\n  log_level: warn\n"), 0o644))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".skillsmcp.yaml"), []byte("search:\n  default_skill_limit: 9\n"), 0o644))

	t.Setenv("SKILLSMCP_LOG_LEVEL", "error")
	t.Setenv("SKILLSMCP_INDEX_WORKERS", "3")

	// When: loading
	cfg, err := Load(dir)

	// Then: each layer overrides the one before it
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Search.DefaultContentLimit, "from user config")
	assert.Equal(t, 9, cfg.Search.DefaultSkillLimit, "project beats user")
	assert.Equal(t, "error", cfg.Server.LogLevel, "env beats files")
	assert.Equal(t, 3, cfg.Performance.IndexWorkers)
}

func TestLoad_EnvOverrides_IgnoreMalformedValues(t *testing.T) {
	isolate(t)
	t.Setenv("SKILLSMCP_WATCH_ENABLED", "maybe")
	t.Setenv("SKILLSMCP_INDEX_WORKERS", "-2")
	t.Setenv("SKILLSMCP_FSNOTIFY", "true")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, runtime.NumCPU(), cfg.Performance.IndexWorkers)
	assert.True(t, cfg.Watch.Fsnotify)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".skillsmcp.yaml"), []byte("search: [unclosed"), 0o644))

	_, err := Load(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty skills dir", func(c *Config) { c.Skills.Dir = " " }, "skills.dir"},
		{"bad poll interval", func(c *Config) { c.Watch.PollInterval = "soon" }, "watch.poll_interval"},
		{"tiny poll interval", func(c *Config) { c.Watch.PollInterval = "1ms" }, "at least 100ms"},
		{"zero skill limit", func(c *Config) { c.Search.DefaultSkillLimit = 0 }, "search.default_skill_limit"},
		{"limit over 100", func(c *Config) { c.Search.DefaultContentLimit = 101 }, "must not exceed 100"},
		{"negative snippet", func(c *Config) { c.Search.SnippetBefore = -1 }, "snippet"},
		{"stats above buffer", func(c *Config) { c.Telemetry.StatsRecent = 101 }, "telemetry.stats_recent"},
		{"persist without path", func(c *Config) { c.Telemetry.Persist = true; c.Telemetry.DBPath = "" }, "telemetry.db_path"},
		{"sse transport", func(c *Config) { c.Server.Transport = "sse" }, "server.transport"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }, "server.log_level"},
		{"zero log size", func(c *Config) { c.Server.LogMaxSizeMB = 0 }, "server.log_max_size_mb"},
		{"negative log files", func(c *Config) { c.Server.LogMaxFiles = -1 }, "server.log_max_files"},
		{"bad log sync", func(c *Config) { c.Server.LogSync = "always" }, "server.log_sync"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSkillsRoot_ResolvesRelativeToBase(t *testing.T) {
	cfg := NewConfig()
	base := t.TempDir()

	assert.Equal(t, filepath.Join(base, "skills"), cfg.SkillsRoot(base))

	abs := filepath.Join(t.TempDir(), "store")
	cfg.Skills.Dir = abs
	assert.Equal(t, abs, cfg.SkillsRoot(base))
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	isolate(t)

	// Given: a modified config written as the project file
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Search.SnippetAfter = 200
	cfg.Telemetry.Persist = true
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".skillsmcp.yaml")))

	// When: loading it back
	loaded, err := Load(dir)

	// Then: values survive
	require.NoError(t, err)
	assert.Equal(t, 200, loaded.Search.SnippetAfter)
	assert.True(t, loaded.Telemetry.Persist)
}

func TestFindProjectRoot(t *testing.T) {
	// Given: a nested directory under a root holding .skillsmcp.yaml
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigName), []byte("version: 1\n"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	// When: searching from the nested dir
	got, err := FindProjectRoot(nested)

	// Then: the config-holding root is found
	require.NoError(t, err)
	wantRoot, _ := filepath.EvalSymlinks(root)
	gotRoot, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, wantRoot, gotRoot)

	_, err = FindProjectRoot(filepath.Join(root, "missing"))
	assert.Error(t, err)
}
