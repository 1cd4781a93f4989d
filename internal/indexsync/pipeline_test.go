package indexsync

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellysearch/jellysearch/internal/database"
	"github.com/jellysearch/jellysearch/internal/search"
	"github.com/jellysearch/jellysearch/internal/search/embedded"
	"github.com/jellysearch/jellysearch/internal/testutil"
)

type fakeIndexer struct {
	mu        sync.Mutex
	settings  []search.IndexSettings
	docs      map[string]search.Item
	upserts   int
	deleted   []string
	upsertErr error
	block     chan struct{}
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{docs: make(map[string]search.Item)}
}

func (f *fakeIndexer) ConfigureIndex(ctx context.Context, s search.IndexSettings) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = append(f.settings, s)
	return nil
}

func (f *fakeIndexer) Upsert(_ context.Context, items []search.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, it := range items {
		f.docs[it.ID] = it
	}
	return nil
}

func (f *fakeIndexer) DocumentIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.docs))
	for id := range f.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeIndexer) Delete(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.docs, id)
	}
	f.deleted = append(f.deleted, ids...)
	return nil
}

type fakeRecorder struct {
	runs []database.SyncRun
}

func (f *fakeRecorder) RecordRun(_ context.Context, run database.SyncRun) (int64, error) {
	f.runs = append(f.runs, run)
	return int64(len(f.runs)), nil
}

var fixtureIDs = []string{
	"0f8fad5bd9cb469fa16570867728950e",
	"7c9e6679742540de944be07fc1f90ae7",
	"a656b907eb3a73532e40e44b968d0225",
	"7e64e319657a9516ec78490da03edccb",
	"e9d5075a858c4b8b9bfce1a4e21d1c2a",
}

func fiveMovies() []fixtureRow {
	rows := make([]fixtureRow, len(fixtureIDs))
	for i, id := range fixtureIDs {
		rows[i] = movieRow(id, "Movie "+string(rune('A'+i)))
	}
	return rows
}

func newTestPipeline(indexer search.Indexer, recorder RunRecorder, dir string, batchSize int) *Pipeline {
	return NewPipeline(indexer, recorder, Config{
		ConfigDir:  dir,
		BatchSize:  batchSize,
		Workers:    2,
		PruneStale: true,
	}, zerolog.Nop())
}

func TestRun_IndexesEveryRow(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, CurrentSchema, fiveMovies())
	indexer := newFakeIndexer()
	recorder := &fakeRecorder{}

	result, err := newTestPipeline(indexer, recorder, dir, 2).Run(context.Background(), TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Indexed)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 3, indexer.upserts, "five rows in batches of two")
	require.Len(t, indexer.settings, 1)
	assert.Equal(t, search.DefaultIndexSettings(), indexer.settings[0])

	doc := indexer.docs[fixtureIDs[0]]
	require.NotNil(t, doc.TopParentID)
	assert.Equal(t, "f137a2dd21bbc1b99aa5c0f6bf02a805", *doc.TopParentID)

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, TriggerManual, recorder.runs[0].Trigger)
	assert.Equal(t, 5, recorder.runs[0].Indexed)
	assert.True(t, recorder.runs[0].Succeeded())
}

func TestRun_MalformedRowIsSkipped(t *testing.T) {
	dir := t.TempDir()
	rows := fiveMovies()
	rows[2]["key"] = "not-a-guid"
	writeStore(t, dir, CurrentSchema, rows)
	indexer := newFakeIndexer()

	result, err := newTestPipeline(indexer, nil, dir, 5000).Run(context.Background(), TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Indexed)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, indexer.docs, 4)
	assert.NotContains(t, indexer.docs, fixtureIDs[2])
}

func TestRun_LegacyBlobStore(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, LegacySchema, []fixtureRow{{
		"key":  []byte{0x04, 0x03, 0x02, 0x01, 0x06, 0x05, 0x08, 0x07, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		"type": "MediaBrowser.Controller.Entities.Audio.MusicArtist",
		"Name": "Queen",
	}})
	indexer := newFakeIndexer()

	result, err := newTestPipeline(indexer, nil, dir, 5000).Run(context.Background(), TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Indexed)
	assert.Contains(t, indexer.docs, "0102030405060708090a0b0c0d0e0f10")
}

func TestRun_PrunesStaleDocuments(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, CurrentSchema, fiveMovies())
	indexer := newFakeIndexer()
	indexer.docs["ffffffffffffffffffffffffffffffff"] = search.Item{ID: "ffffffffffffffffffffffffffffffff"}

	result, err := newTestPipeline(indexer, nil, dir, 5000).Run(context.Background(), TriggerSchedule)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pruned)
	assert.Equal(t, []string{"ffffffffffffffffffffffffffffffff"}, indexer.deleted)
	assert.Len(t, indexer.docs, 5)
}

func TestRun_FailedRowWithKnownIDIsNotPruned(t *testing.T) {
	dir := t.TempDir()
	rows := fiveMovies()
	rows[1]["CommunityRating"] = "great"
	writeStore(t, dir, CurrentSchema, rows)

	indexer := newFakeIndexer()
	indexer.docs[fixtureIDs[1]] = search.Item{ID: fixtureIDs[1]}

	result, err := newTestPipeline(indexer, nil, dir, 5000).Run(context.Background(), TriggerSchedule)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Pruned)
	assert.Contains(t, indexer.docs, fixtureIDs[1])
}

func TestRun_UpsertFailureSkipsPrune(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, CurrentSchema, fiveMovies())
	indexer := newFakeIndexer()
	indexer.docs["ffffffffffffffffffffffffffffffff"] = search.Item{ID: "ffffffffffffffffffffffffffffffff"}
	indexer.upsertErr = errors.New("payload too large")
	recorder := &fakeRecorder{}

	result, err := newTestPipeline(indexer, recorder, dir, 5000).Run(context.Background(), TriggerSchedule)
	require.Error(t, err)

	assert.Zero(t, result.Indexed)
	assert.Empty(t, indexer.deleted)
	require.Len(t, recorder.runs, 1)
	assert.Contains(t, recorder.runs[0].Error, "payload too large")
}

func TestRun_NoSourceStore(t *testing.T) {
	recorder := &fakeRecorder{}

	_, err := newTestPipeline(newFakeIndexer(), recorder, t.TempDir(), 5000).Run(context.Background(), TriggerManual)

	require.ErrorIs(t, err, ErrNoSourceStore)
	require.Len(t, recorder.runs, 1)
	assert.False(t, recorder.runs[0].Succeeded())
}

func TestRun_MissingTable(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, CurrentSchema, nil)
	// library.db exists but holds the wrong table
	writeStoreAs(t, dir, LegacySchema.File, CurrentSchema)

	_, err := newTestPipeline(newFakeIndexer(), nil, dir, 5000).Run(context.Background(), TriggerManual)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TypedBaseItems")
}

func writeStoreAs(t *testing.T, dir, file string, schema Schema) {
	t.Helper()
	schema.File = file
	writeStore(t, dir, schema, nil)
}

func TestRun_RejectsOverlappingRuns(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, CurrentSchema, fiveMovies())
	indexer := newFakeIndexer()
	indexer.block = make(chan struct{})
	p := newTestPipeline(indexer, nil, dir, 5000)

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), TriggerSchedule)
		done <- err
	}()

	require.Eventually(t, p.Running, time.Second, 5*time.Millisecond)

	_, err := p.Run(context.Background(), TriggerManual)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(indexer.block)
	require.NoError(t, <-done)
	assert.False(t, p.Running())
}

func TestRun_GalaxyQuestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, CurrentSchema, []fixtureRow{
		movieRow("0F8FAD5B-D9CB-469F-A165-70867728950E", "Galaxy Quest"),
		movieRow("7c9e6679-7425-40de-944b-e07fc1f90ae7", "Free Guy"),
	})

	engine, err := embedded.Open("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	_, err = newTestPipeline(engine, nil, dir, 5000).Run(context.Background(), TriggerManual)
	require.NoError(t, err)

	hits, err := engine.Search(context.Background(), search.Query{
		Term:   "Galaxy",
		Filter: search.Eq{Field: search.FieldType, Value: "MediaBrowser.Controller.Entities.Movies.Movie"},
		Limit:  15,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "0f8fad5bd9cb469fa16570867728950e", hits[0].ID)
}

func TestRun_RecordsHistoryInDatabase(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, CurrentSchema, fiveMovies())
	db := testutil.NewTestDB(t)

	p := NewPipeline(newFakeIndexer(), db, Config{ConfigDir: dir}, testutil.NewTestLogger(t))
	_, err := p.Run(context.Background(), TriggerSchedule)
	require.NoError(t, err)

	last, err := db.LastSuccessfulRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, TriggerSchedule, last.Trigger)
	assert.Equal(t, 5, last.Indexed)
	assert.Contains(t, last.Source, CurrentSchema.File)
}
