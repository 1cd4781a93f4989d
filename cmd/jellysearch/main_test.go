package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellysearch/jellysearch/internal/config"
	"github.com/jellysearch/jellysearch/internal/database"
	"github.com/jellysearch/jellysearch/internal/indexsync"
)

func TestConfigCommandMasksSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jellyfin:
  url: http://jellyfin:8096
  token: super-secret-token
search:
  api_key: meili-master-key
`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "--config", path})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "url: http://jellyfin:8096")
	assert.Contains(t, out.String(), "********")
	assert.NotContains(t, out.String(), "super-secret-token")
	assert.NotContains(t, out.String(), "meili-master-key")
}

func TestRunIndex_NoSourceStore(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Search.Engine = config.EngineEmbedded
	cfg.Jellyfin.ConfigDir = filepath.Join(dir, "jellyfin")
	cfg.Database.Path = filepath.Join(dir, "data", "jellysearch.db")

	_, err := runIndex(context.Background(), cfg)
	require.ErrorIs(t, err, indexsync.ErrNoSourceStore)

	db, err := database.New(context.Background(), cfg.Database.Path)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, indexsync.TriggerCLI, runs[0].Trigger)
	assert.False(t, runs[0].Succeeded())
}
