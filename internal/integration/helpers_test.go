package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Integration Tests - These exercise config loading, indexing, refresh,
// search and usage persistence together through the service facade.

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// addDomain writes a domain with one sub-skill whose trigger is trigger.
func addDomain(t *testing.T, root, name, trigger, body string) {
	t.Helper()
	writeFile(t, filepath.Join(root, name, "_meta.json"), fmt.Sprintf(`{
		"name": %q,
		"description": "%s skill",
		"tags": [%q],
		"sub_skills": [{"name": "guide", "file": "references/guide.md", "triggers": [%q]}]
	}`, name, name, name, trigger))
	writeFile(t, filepath.Join(root, name, "SKILL.md"), "# "+name+"\n")
	writeFile(t, filepath.Join(root, name, "references", "guide.md"), body)
}

// isolateUserConfig keeps the developer's own config out of Load.
func isolateUserConfig(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
}
