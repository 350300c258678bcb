// Package index builds a disposable in-memory lookup structure over one
// directory snapshot. An Index is immutable after construction and is
// rebuilt whenever the snapshot changes; it owns no data of its own.
package index

import (
	"sort"

	"github.com/bucketbot/golink/internal/domain"
)

// Match pairs an entry with how (and how well) it matched a query.
type Match struct {
	Entry domain.LinkEntry
	Kind  domain.MatchKind
	Score float64
}

// Index provides exact, prefix and fuzzy lookup over a snapshot's entries.
type Index struct {
	exact   map[string]domain.LinkEntry // normalized shortcut -> entry
	entries []domain.LinkEntry          // sorted by normalized shortcut
}

// Build constructs an Index in O(n) over the snapshot's entries.
func Build(snapshot *domain.DirectorySnapshot) *Index {
	entries := snapshot.Entries()
	exact := make(map[string]domain.LinkEntry, len(entries))
	for _, entry := range entries {
		exact[domain.NormalizeShortcut(entry.Shortcut)] = entry
	}
	return &Index{
		exact:   exact,
		entries: entries,
	}
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Lookup returns the entry whose normalized shortcut matches exactly.
func (idx *Index) Lookup(query string) (domain.LinkEntry, bool) {
	entry, ok := idx.exact[domain.NormalizeShortcut(query)]
	return entry, ok
}

// Query returns the fully materialized, deterministically ordered candidate
// list for a query: the exact match first, then prefix matches ordered by
// shortcut length (shorter = more specific) then lexicographically, then
// fuzzy matches by descending score with ties broken by most-recent
// UpdatedAt then lexicographically. Repeated calls with the same input
// yield the same result.
func (idx *Index) Query(text string) []Match {
	query := domain.NormalizeShortcut(text)
	if query == "" {
		return nil
	}

	var exact []Match
	var prefix []Match
	var fuzzy []Match

	for _, entry := range idx.entries {
		kind, score := domain.Score(query, entry)
		match := Match{Entry: entry, Kind: kind, Score: score}
		switch kind {
		case domain.MatchExact:
			exact = append(exact, match)
		case domain.MatchPrefix:
			prefix = append(prefix, match)
		case domain.MatchFuzzy:
			fuzzy = append(fuzzy, match)
		}
	}

	sort.SliceStable(prefix, func(i, j int) bool {
		a, b := prefix[i].Entry.Shortcut, prefix[j].Entry.Shortcut
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})

	sort.SliceStable(fuzzy, func(i, j int) bool {
		if fuzzy[i].Score != fuzzy[j].Score {
			return fuzzy[i].Score > fuzzy[j].Score
		}
		if !fuzzy[i].Entry.UpdatedAt.Equal(fuzzy[j].Entry.UpdatedAt) {
			return fuzzy[i].Entry.UpdatedAt.After(fuzzy[j].Entry.UpdatedAt)
		}
		return fuzzy[i].Entry.Shortcut < fuzzy[j].Entry.Shortcut
	})

	matches := make([]Match, 0, len(exact)+len(prefix)+len(fuzzy))
	matches = append(matches, exact...)
	matches = append(matches, prefix...)
	matches = append(matches, fuzzy...)
	return matches
}
