package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func record(id, file, chunkType string, vector ...float32) Record {
	return Record{
		ID:       id,
		File:     file,
		Type:     chunkType,
		Name:     id,
		Text:     "text of " + id,
		Vector:   vector,
		Provider: "local",
		Model:    "test",
	}
}

func seed(t *testing.T, store *SQLiteStore) {
	t.Helper()
	require.NoError(t, store.Upsert(context.Background(), []Record{
		record("a.go::Parse", "a.go", "function", 1, 0, 0),
		record("a.go::Load", "a.go", "function", 0.9, 0.1, 0),
		record("a.go::imports", "a.go", "import", 0, 1, 0),
		record("pkg/b.go::Server", "pkg/b.go", "class", 0.7, 0, 0.7),
		record("pkg/b.go::summary", "pkg/b.go", "summary", 0, 0, 1),
	}))
}

func TestSQLiteStore_UpsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seed(t, store)

	got, err := store.GetChunk(ctx, "a.go::Parse")
	require.NoError(t, err)
	assert.Equal(t, "a.go", got.File)
	assert.Equal(t, "function", got.Type)
	assert.Equal(t, []float32{1, 0, 0}, got.Vector)

	updated := record("a.go::Parse", "a.go", "function", 0, 0, 1)
	updated.Text = "new text"
	require.NoError(t, store.Upsert(ctx, []Record{updated}))

	got, err = store.GetChunk(ctx, "a.go::Parse")
	require.NoError(t, err)
	assert.Equal(t, "new text", got.Text)
	assert.Equal(t, []float32{0, 0, 1}, got.Vector)

	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_UpsertRejectsInvalid(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  Record
	}{
		{"no id", record("", "a.go", "function", 1)},
		{"no file", record("x", "", "function", 1)},
		{"no vector", record("x", "a.go", "function")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.Upsert(ctx, []Record{tt.rec}), ErrInvalidRecord)
		})
	}

	assert.NoError(t, store.Upsert(ctx, nil))
}

func TestSQLiteStore_Query(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seed(t, store)

	tests := []struct {
		name    string
		topK    int
		filter  *Filter
		wantIDs []string
	}{
		{
			name:    "ranked by similarity",
			topK:    3,
			wantIDs: []string{"a.go::Parse", "a.go::Load", "pkg/b.go::Server"},
		},
		{
			name:    "type filter",
			topK:    10,
			filter:  &Filter{Types: []string{"class", "summary"}},
			wantIDs: []string{"pkg/b.go::Server", "pkg/b.go::summary"},
		},
		{
			name:    "file pattern",
			topK:    10,
			filter:  &Filter{FilePattern: "pkg/**/*.go"},
			wantIDs: []string{"pkg/b.go::Server", "pkg/b.go::summary"},
		},
		{
			name:    "min score",
			topK:    10,
			filter:  &Filter{MinScore: 0.9},
			wantIDs: []string{"a.go::Parse", "a.go::Load"},
		},
		{
			name:    "zero topK",
			topK:    0,
			wantIDs: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := store.Query(ctx, []float32{1, 0, 0}, tt.topK, tt.filter)
			require.NoError(t, err)
			ids := make([]string, len(matches))
			for i, m := range matches {
				ids[i] = m.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSQLiteStore_QueryScores(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seed(t, store)

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-5)
	assert.Equal(t, "text of a.go::Parse", matches[0].Text)
}

func TestSQLiteStore_QuerySkipsOtherDimensions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seed(t, store)
	require.NoError(t, store.Upsert(ctx, []Record{record("c.go::Wide", "c.go", "function", 1, 0, 0, 0)}))

	matches, err := store.Query(ctx, []float32{1, 0, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "c.go::Wide", matches[0].ID)
}

func TestSQLiteStore_QueryInvalid(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Query(ctx, nil, 5, nil)
	assert.Error(t, err)

	_, err = store.Query(ctx, []float32{1}, 5, &Filter{FilePattern: "[unclosed"})
	assert.Error(t, err)
}

func TestSQLiteStore_FileHashes(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetFileHash(ctx, "a.go")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetFileHash(ctx, "b.go", "h1"))
	require.NoError(t, store.SetFileHash(ctx, "a.go", "h2"))
	require.NoError(t, store.SetFileHash(ctx, "b.go", "h3"))

	hash, err := store.GetFileHash(ctx, "b.go")
	require.NoError(t, err)
	assert.Equal(t, "h3", hash)

	files, err := store.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.go"}, files)
}

func TestSQLiteStore_DeleteFile(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seed(t, store)
	require.NoError(t, store.SetFileHash(ctx, "a.go", "h"))

	require.NoError(t, store.DeleteFile(ctx, "a.go"))

	_, err := store.GetChunk(ctx, "a.go::Parse")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetFileHash(ctx, "a.go")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetChunk(ctx, "pkg/b.go::Server")
	assert.NoError(t, err)
}

func TestSQLiteStore_Stats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seed(t, store)
	require.NoError(t, store.SetFileHash(ctx, "a.go", "h1"))
	require.NoError(t, store.SetFileHash(ctx, "pkg/b.go", "h2"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 5, stats.Chunks)
	assert.Equal(t, map[string]int{"function": 2, "import": 1, "class": 1, "summary": 1}, stats.ChunksByType)
	assert.Equal(t, []string{"local/test"}, stats.Providers)
	assert.Equal(t, BuildMode, stats.BuildMode)
	assert.Greater(t, stats.IndexSizeMB, 0.0)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []Record{record("x.go::X", "x.go", "function", 1)}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.GetChunk(ctx, "x.go::X")
	require.NoError(t, err)
	assert.Equal(t, "x.go", got.File)
}
