// Package store defines the cache store contract and the versioned record
// envelope shared by its backends. The cached snapshot is a disposable
// derived artifact: a missing or corrupt record is never fatal, the caller
// simply re-fetches from the directory service.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bucketbot/golink/internal/domain"
)

// FormatVersion tags the on-disk record so incompatible old records are
// detected and discarded instead of misparsed.
const FormatVersion = 1

var (
	// ErrCacheCorrupt marks a record that could not be decoded or carries an
	// unknown format version. Callers treat it as a cache miss.
	ErrCacheCorrupt = errors.New("cache record corrupt")

	// ErrCacheUnwritable marks a failed save. It never aborts resolution.
	ErrCacheUnwritable = errors.New("cache unwritable")
)

// Record is a loaded cache record: the snapshot plus when it was stored.
type Record struct {
	Snapshot *domain.DirectorySnapshot
	StoredAt time.Time
}

// Store persists the most recent directory snapshot.
type Store interface {
	// Load returns the persisted record, or (nil, nil) when no usable record
	// exists. Decode failures are reported with an error wrapping
	// ErrCacheCorrupt so callers can log them, but they are equivalent to a
	// miss.
	Load(ctx context.Context) (*Record, error)

	// Save atomically replaces the persisted record with the given snapshot.
	Save(ctx context.Context, snapshot *domain.DirectorySnapshot) error
}

// IsStale reports whether a record stored at storedAt has exceeded maxAge.
func IsStale(storedAt time.Time, maxAge time.Duration, now time.Time) bool {
	return now.Sub(storedAt) > maxAge
}

// wire types for the record envelope

type recordEnvelope struct {
	FormatVersion int          `json:"format_version"`
	StoredAt      time.Time    `json:"stored_at"`
	FetchedAt     time.Time    `json:"fetched_at"`
	SourceVersion string       `json:"source_version,omitempty"`
	Links         []linkRecord `json:"links"`
}

type linkRecord struct {
	Shortcut    string    `json:"shortcut"`
	Target      string    `json:"target"`
	Owner       string    `json:"owner,omitempty"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EncodeRecord serializes a snapshot into the versioned record envelope.
func EncodeRecord(snapshot *domain.DirectorySnapshot, storedAt time.Time) ([]byte, error) {
	entries := snapshot.Entries()
	links := make([]linkRecord, 0, len(entries))
	for _, entry := range entries {
		links = append(links, linkRecord{
			Shortcut:    entry.Shortcut,
			Target:      entry.Target,
			Owner:       entry.Owner,
			Description: entry.Description,
			UpdatedAt:   entry.UpdatedAt,
		})
	}

	data, err := json.Marshal(recordEnvelope{
		FormatVersion: FormatVersion,
		StoredAt:      storedAt,
		FetchedAt:     snapshot.FetchedAt,
		SourceVersion: snapshot.SourceVersion,
		Links:         links,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding cache record: %w", err)
	}
	return data, nil
}

// DecodeRecord parses a record envelope. Unknown format versions and decode
// failures are reported as ErrCacheCorrupt.
func DecodeRecord(data []byte) (*Record, error) {
	var envelope recordEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	if envelope.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: unknown format version %d", ErrCacheCorrupt, envelope.FormatVersion)
	}

	entries := make([]domain.LinkEntry, 0, len(envelope.Links))
	for _, link := range envelope.Links {
		entries = append(entries, domain.LinkEntry{
			Shortcut:    link.Shortcut,
			Target:      link.Target,
			Owner:       link.Owner,
			Description: link.Description,
			UpdatedAt:   link.UpdatedAt,
		})
	}

	snapshot, _ := domain.NewSnapshot(entries, envelope.FetchedAt, envelope.SourceVersion)
	return &Record{
		Snapshot: snapshot,
		StoredAt: envelope.StoredAt,
	}, nil
}
