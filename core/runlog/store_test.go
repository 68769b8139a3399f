package runlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tradeflow/core/model"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "plain", "runlog.jsonl"))
	require.NoError(t, err)
	rotating, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "runlog.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "runlog.db"))
	require.NoError(t, err)
	stores := map[string]Store{"jsonl": jsonl, "rotating": rotating, "sqlite": sqlite}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStores_AppendAndQuery(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []Record{
		{RunID: "a", Year: 1990, Status: model.StatusAllocated, Records: 4, Time: base},
		{RunID: "a", Year: 1991, Status: model.StatusSkippedEmpty, Time: base.Add(time.Minute)},
		{RunID: "b", Year: 1990, Status: model.StatusFailed, Error: "invalid", Time: base.Add(time.Hour)},
	}
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range recs {
				require.NoError(t, s.Append(ctx, r))
			}

			all, err := s.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, 4, all[0].Records)

			byRun, err := s.Query(ctx, Query{RunID: "a"})
			require.NoError(t, err)
			assert.Len(t, byRun, 2)

			byYear, err := s.Query(ctx, Query{Year: 1990, Status: model.StatusFailed})
			require.NoError(t, err)
			require.Len(t, byYear, 1)
			assert.Equal(t, "invalid", byYear[0].Error)

			window, err := s.Query(ctx, Query{Start: base.Add(time.Second), End: base.Add(2 * time.Minute)})
			require.NoError(t, err)
			require.Len(t, window, 1)
			assert.Equal(t, 1991, window[0].Year)
		})
	}
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runlog.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	pad := make([]byte, 300*1024)
	for i := range pad {
		pad[i] = 'x'
	}
	rec := Record{RunID: "r", Year: 2000, Error: string(pad)}
	for i := 0; i < 8; i++ {
		require.NoError(t, store.Append(context.Background(), rec))
	}
	backups, _ := filepath.Glob(filepath.Join(dir, "runlog-*.jsonl"))
	assert.NotEmpty(t, backups, "expected rotated files")

	out, err := store.Query(context.Background(), Query{RunID: "r"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestJSONLStore_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runlog.jsonl")
	s, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), Record{Year: 1995}))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, _ = f.WriteString("not json\n")
	require.NoError(t, f.Close())

	out, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{Path: filepath.Join(dir, "a.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	s, err = New(Config{Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 5})
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, s)
	_ = s.Close()

	s, err = New(Config{Backend: "sqlite", Path: filepath.Join(dir, "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	_ = s.Close()

	s, err = New(Config{Backend: "none"})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	_, err = New(Config{Backend: "kafka"})
	assert.Error(t, err)
}
