package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/skillsmcp/internal/config"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	// Given: root command
	cmd := NewRootCmd()

	// When: finding config command
	configCmd, _, err := cmd.Find([]string{"config"})
	require.NoError(t, err)

	// Then: init, show and path exist
	names := make(map[string]bool)
	for _, sc := range configCmd.Commands() {
		names[sc.Name()] = true
	}
	assert.True(t, names["init"])
	assert.True(t, names["show"])
	assert.True(t, names["path"])
}

func TestConfigPathCmd_OutputsPath(t *testing.T) {
	home := isolateEnv(t)

	out, err := run(t, "config", "path")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "skillsmcp", "config.yaml"), strings.TrimSpace(out))
}

func TestConfigInitCmd_CreatesUserConfig(t *testing.T) {
	isolateEnv(t)

	out, err := run(t, "config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "Created configuration")
	assert.True(t, config.UserConfigExists())
}

func TestConfigInitCmd_ExistingWithoutForce(t *testing.T) {
	isolateEnv(t)
	path := config.GetUserConfigPath()
	writeFile(t, path, "skills:\n  dir: custom\n")

	out, err := run(t, "config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "skills:\n  dir: custom\n", string(data))
}

func TestConfigInitCmd_ForceKeepsBackup(t *testing.T) {
	isolateEnv(t)
	path := config.GetUserConfigPath()
	writeFile(t, path, "skills:\n  dir: custom\n")

	out, err := run(t, "config", "init", "--force")

	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")
	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "custom")
}

func TestConfigInitCmd_Project(t *testing.T) {
	isolateEnv(t)
	project := t.TempDir()

	_, err := run(t, "config", "init", "--project", "-p", project)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(project, config.ProjectConfigName))
}

func TestConfigShowCmd(t *testing.T) {
	isolateEnv(t)
	project := t.TempDir()
	writeFile(t, filepath.Join(project, config.ProjectConfigName), "search:\n  default_skill_limit: 7\n")

	t.Run("merged JSON reflects project file", func(t *testing.T) {
		out, err := run(t, "config", "show", "--json", "-p", project)
		require.NoError(t, err)

		var got config.Config
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 7, got.Search.DefaultSkillLimit)
	})

	t.Run("defaults ignore project file", func(t *testing.T) {
		out, err := run(t, "config", "show", "--source", "defaults", "-p", project)
		require.NoError(t, err)

		assert.Contains(t, out, "default_skill_limit: 5")
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := run(t, "config", "show", "--source", "user")
		assert.Error(t, err)
	})
}
