// Package file implements the default cache store backend: a single
// versioned JSON record on local disk. Writes are atomic using a temp file
// and rename so a concurrent reader never observes a half-written cache;
// the last writer wins.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bucketbot/golink/internal/domain"
	"github.com/bucketbot/golink/internal/store"
)

// Store persists the directory snapshot in a single file.
type Store struct {
	path string
	now  func() time.Time
}

// New creates a file store writing to the given path.
func New(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
	}
}

// Load reads the persisted record. A missing file is a plain miss; a corrupt
// or version-mismatched record is reported with ErrCacheCorrupt but is
// equally treated as a miss by callers.
func (s *Store) Load(_ context.Context) (*store.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", store.ErrCacheCorrupt, s.path, err)
	}

	record, err := store.DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return record, nil
}

// Save atomically replaces the cache file with a record for the snapshot.
func (s *Store) Save(_ context.Context, snapshot *domain.DirectorySnapshot) error {
	data, err := store.EncodeRecord(snapshot, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrCacheUnwritable, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", store.ErrCacheUnwritable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".golink-cache-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", store.ErrCacheUnwritable, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w: writing temp file: %v", store.ErrCacheUnwritable, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: syncing temp file: %v", store.ErrCacheUnwritable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %v", store.ErrCacheUnwritable, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: renaming into place: %v", store.ErrCacheUnwritable, err)
	}

	success = true
	return nil
}
