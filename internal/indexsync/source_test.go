package indexsync

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSource_NoneFound(t *testing.T) {
	dir := t.TempDir()

	_, candidates, err := DetectSource(dir)

	require.ErrorIs(t, err, ErrNoSourceStore)
	require.Len(t, candidates, 2)
	assert.Equal(t, filepath.Join(dir, "data", "library.db"), candidates[0].Path)
	assert.Equal(t, filepath.Join(dir, "data", "jellyfin.db"), candidates[1].Path)
	assert.False(t, candidates[0].Exists)
	assert.False(t, candidates[1].Exists)
}

func TestDetectSource_CurrentOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeStore(t, dir, CurrentSchema, nil)

	source, _, err := DetectSource(dir)

	require.NoError(t, err)
	assert.Equal(t, path, source.Path)
	assert.Equal(t, CurrentSchema, source.Schema)
}

func TestDetectSource_PrefersLegacy(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, CurrentSchema, nil)
	legacy := writeStore(t, dir, LegacySchema, nil)

	source, candidates, err := DetectSource(dir)

	require.NoError(t, err)
	assert.Equal(t, legacy, source.Path)
	assert.Equal(t, LegacySchema, source.Schema)
	assert.True(t, candidates[0].Exists)
	assert.True(t, candidates[1].Exists)
}
