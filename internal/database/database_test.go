package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := New(ctx, filepath.Join(t.TempDir(), "state", "jellysearch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestMigrate(t *testing.T) {
	db := newTestDB(t)

	version, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Re-running is a no-op
	require.NoError(t, db.Migrate(context.Background()))
}

func TestRecordAndListRuns(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)

	_, err := db.RecordRun(ctx, SyncRun{
		Trigger: "schedule", Source: "jellyfin.db",
		StartedAt: base, FinishedAt: base.Add(time.Minute),
		Indexed: 100, Failed: 1, Pruned: 2,
	})
	require.NoError(t, err)

	id, err := db.RecordRun(ctx, SyncRun{
		Trigger: "manual", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour),
		Error: "no Jellyfin library database found",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	runs, err := db.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "manual", runs[0].Trigger)
	assert.False(t, runs[0].Succeeded())
	assert.Equal(t, "schedule", runs[1].Trigger)
	assert.Equal(t, 100, runs[1].Indexed)
	assert.Equal(t, 1, runs[1].Failed)
	assert.Equal(t, 2, runs[1].Pruned)
	assert.True(t, runs[1].StartedAt.Equal(base))

	limited, err := db.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	last, err := db.LastSuccessfulRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "jellyfin.db", last.Source)
}

func TestLastSuccessfulRun_Empty(t *testing.T) {
	db := newTestDB(t)

	last, err := db.LastSuccessfulRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}
