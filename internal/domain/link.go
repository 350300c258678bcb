package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// LinkEntry is one shortcut -> target mapping from the directory service.
type LinkEntry struct {
	// Shortcut is the short identifier a user types (without the go/ prefix).
	// Unique within a snapshot under case-insensitive normalization.
	Shortcut string

	// Target is the canonical URL the shortcut resolves to.
	// Always a syntactically valid absolute URL.
	Target string

	// Owner and Description are free-text metadata. They never affect
	// matching correctness, only display and ranking tie-breaks.
	Owner       string
	Description string

	// UpdatedAt is the last upstream edit, used for tie-breaking and
	// duplicate resolution.
	UpdatedAt time.Time
}

// Collision records a duplicate shortcut found while building a snapshot.
// The entry with the latest UpdatedAt wins; the loser is kept here as a
// diagnostic so duplicates are never silently dropped.
type Collision struct {
	Shortcut string
	Kept     LinkEntry
	Dropped  LinkEntry
}

// DirectorySnapshot is an immutable point-in-time copy of the directory.
// It is created by the fetcher, persisted by the cache store, and superseded
// (never mutated) by a newer snapshot.
type DirectorySnapshot struct {
	// FetchedAt is when the snapshot was retrieved from the directory service.
	FetchedAt time.Time

	// SourceVersion is the opaque version token returned by the directory
	// service, empty when the service did not provide one.
	SourceVersion string

	entries map[string]LinkEntry // normalized shortcut -> entry
}

// NewSnapshot builds a snapshot from raw directory entries.
// Shortcuts are normalized case-insensitively; on duplicates the entry with
// the most recent UpdatedAt wins and the collision is reported back.
func NewSnapshot(entries []LinkEntry, fetchedAt time.Time, sourceVersion string) (*DirectorySnapshot, []Collision) {
	byShortcut := make(map[string]LinkEntry, len(entries))
	var collisions []Collision

	for _, entry := range entries {
		key := NormalizeShortcut(entry.Shortcut)
		if key == "" {
			continue
		}

		existing, ok := byShortcut[key]
		if !ok {
			byShortcut[key] = entry
			continue
		}

		kept, dropped := existing, entry
		if entry.UpdatedAt.After(existing.UpdatedAt) {
			kept, dropped = entry, existing
		}
		byShortcut[key] = kept
		collisions = append(collisions, Collision{
			Shortcut: key,
			Kept:     kept,
			Dropped:  dropped,
		})
	}

	return &DirectorySnapshot{
		FetchedAt:     fetchedAt,
		SourceVersion: sourceVersion,
		entries:       byShortcut,
	}, collisions
}

// Lookup returns the entry for a shortcut under case-insensitive normalization.
func (s *DirectorySnapshot) Lookup(shortcut string) (LinkEntry, bool) {
	entry, ok := s.entries[NormalizeShortcut(shortcut)]
	return entry, ok
}

// Entries returns all entries ordered by normalized shortcut.
// The returned slice is a copy; the snapshot itself never changes.
func (s *DirectorySnapshot) Entries() []LinkEntry {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]LinkEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, s.entries[key])
	}
	return entries
}

// Len returns the number of entries in the snapshot.
func (s *DirectorySnapshot) Len() int {
	return len(s.entries)
}

// NormalizeShortcut lowers and trims a shortcut for case-insensitive
// comparison. A leading "go/" prefix is stripped so "go/payroll" and
// "payroll" refer to the same entry.
func NormalizeShortcut(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "go/")
	return strings.TrimSpace(s)
}

// ValidateTarget checks that a target is a syntactically valid absolute URL.
func ValidateTarget(target string) error {
	parsed, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid target URL %q: %w", target, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("target URL %q is not absolute", target)
	}
	return nil
}
