package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupFile_MissingIsNoop(t *testing.T) {
	path, err := BackupFile(filepath.Join(t.TempDir(), "config.yaml"))

	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupFile_CopiesAndPrunes(t *testing.T) {
	// Given: an existing config file
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	// When: backing it up more times than MaxBackups
	var last string
	for i := 0; i < MaxBackups+2; i++ {
		b, err := BackupFile(path)
		require.NoError(t, err)
		last = b
		time.Sleep(5 * time.Millisecond)
	}

	// Then: the newest backup holds the content and old ones are pruned
	data, err := os.ReadFile(last)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))

	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Equal(t, last, backups[0])
}
