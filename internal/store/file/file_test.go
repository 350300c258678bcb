package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketbot/golink/internal/domain"
	"github.com/bucketbot/golink/internal/store"
)

func testSnapshot(t *testing.T) *domain.DirectorySnapshot {
	t.Helper()
	fetchedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	snapshot, collisions := domain.NewSnapshot([]domain.LinkEntry{
		{Shortcut: "hr", Target: "https://hr.example.com", UpdatedAt: fetchedAt},
		{Shortcut: "wiki", Target: "https://wiki.example.com", UpdatedAt: fetchedAt},
	}, fetchedAt, "v1")
	require.Empty(t, collisions)
	return snapshot
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "directory.json")
	s := New(path)

	require.NoError(t, s.Save(context.Background(), testSnapshot(t)))

	record, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, 2, record.Snapshot.Len())
	assert.Equal(t, "v1", record.Snapshot.SourceVersion)
	assert.False(t, record.StoredAt.IsZero())

	entry, ok := record.Snapshot.Lookup("hr")
	require.True(t, ok)
	assert.Equal(t, "https://hr.example.com", entry.Target)
}

func TestLoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.json"))

	record, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestLoadCorruptRecord(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "not json at all"},
		{"unknown format version", `{"format_version":7,"links":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "directory.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			record, err := New(path).Load(context.Background())
			assert.Nil(t, record)
			assert.ErrorIs(t, err, store.ErrCacheCorrupt)
		})
	}
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	s := New(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testSnapshot(t)))

	later := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	replacement, _ := domain.NewSnapshot([]domain.LinkEntry{
		{Shortcut: "docs", Target: "https://docs.example.com", UpdatedAt: later},
	}, later, "v2")
	require.NoError(t, s.Save(ctx, replacement))

	record, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 1, record.Snapshot.Len())
	assert.Equal(t, "v2", record.Snapshot.SourceVersion)

	// no stray temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveLeavesNoTempFileOnRenameTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "directory.json")

	// Pre-existing file gets replaced atomically.
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, New(path).Save(context.Background(), testSnapshot(t)))

	record, err := New(path).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 2, record.Snapshot.Len())
}
