package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nneessen/commissionTracker-sub026/internal/config"
	"github.com/nneessen/commissionTracker-sub026/internal/types"
)

// withConfig installs a config for the duration of one test and restores
// the previous one afterwards.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestOpenDirectoryMemory(t *testing.T) {
	snapshot := `
agents:
  - id: owner
    roles: [admin]
    email: owner@example.com
    is_active: true
  - id: a1
    upline_id: owner
    email: a1@example.com
    is_active: true
`
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o644))

	c := config.DefaultConfig()
	c.Directory.Backend = "memory"
	c.Directory.SnapshotPath = path
	withConfig(t, c)

	dir, refs, closer, err := openDirectory(context.Background())
	require.NoError(t, err)
	defer closer()

	assert.NotNil(t, refs, "memory backend doubles as the reference directory")

	agent, err := dir.GetByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, types.ID("owner"), agent.UplineID)
}

func TestOpenDirectorySQLite(t *testing.T) {
	c := config.DefaultConfig()
	c.Directory.Backend = "sqlite"
	c.Directory.SQLite = config.SQLiteConfig{
		Path:            filepath.Join(t.TempDir(), "directory.db"),
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		BusyTimeout:     time.Second,
	}
	withConfig(t, c)

	dir, refs, closer, err := openDirectory(context.Background())
	require.NoError(t, err)
	defer closer()

	assert.NotNil(t, dir)
	assert.NotNil(t, refs, "sqlite backend doubles as the reference directory")
}

func TestOpenDirectoryUnknownBackend(t *testing.T) {
	c := config.DefaultConfig()
	c.Directory.Backend = "postgres"
	withConfig(t, c)

	_, _, _, err := openDirectory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
