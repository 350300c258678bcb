// Package resolver turns a raw user query into a single confident answer or
// an explicit ambiguous/not-found outcome, managing the fetch/cache refresh
// policy transparently to callers.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bucketbot/golink/internal/directory"
	"github.com/bucketbot/golink/internal/domain"
	"github.com/bucketbot/golink/internal/index"
	"github.com/bucketbot/golink/internal/logger"
	"github.com/bucketbot/golink/internal/store"
)

// ErrNoDirectory is the terminal failure: no cached snapshot exists and the
// directory service could not be reached.
var ErrNoDirectory = errors.New("no directory available (no cache and no successful fetch)")

// Status is the terminal outcome of one resolution call.
type Status int

const (
	// StatusResolved is a confident single match, safe to act on.
	StatusResolved Status = iota
	// StatusAmbiguous means several candidates were too close to call.
	StatusAmbiguous
	// StatusNotFound means no candidate cleared the confidence threshold.
	StatusNotFound
	// StatusFailed means no directory data was available at all.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusAmbiguous:
		return "ambiguous"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is what a resolution call returns to the caller. The caller
// renders it as text, JSON or a browser launch; raw transport errors never
// leak through as anything but StatusFailed.
type Outcome struct {
	Status Status

	// Entry is the confident match, valid when Status is StatusResolved.
	Entry domain.LinkEntry

	// Candidates is the ranked list attached to Ambiguous and NotFound
	// outcomes so the caller can present alternatives instead of guessing.
	Candidates []index.Match

	// Stale is set when the match ran against a stale snapshot because the
	// refresh failed. Warning carries the fetch error in that case.
	Stale   bool
	Warning error

	// Err is the terminal error, set only when Status is StatusFailed.
	Err error
}

// Fetcher retrieves a fresh snapshot from the directory service. An
// implementation returns directory.ErrUnchanged when the supplied version
// token still matches upstream.
type Fetcher interface {
	Fetch(ctx context.Context, previousVersion string) (*domain.DirectorySnapshot, []domain.Collision, error)
}

// Options are the tunables of the matching policy. Zero values fall back to
// the defaults below.
type Options struct {
	// CacheMaxAge is how old a cached snapshot may be before a refresh is
	// attempted. Default 12h.
	CacheMaxAge time.Duration

	// MinConfidence is the minimum score a lone top candidate needs to be
	// returned without confirmation. Default 50 (substring tier and up).
	MinConfidence float64

	// AmbiguityMargin is how close a runner-up may score before the result
	// is ambiguous. Default 10.
	AmbiguityMargin float64

	// MaxCandidates caps the candidate list attached to ambiguous and
	// not-found outcomes. Default 5, 0 keeps the default.
	MaxCandidates int
}

// DefaultOptions returns the default matching policy.
func DefaultOptions() Options {
	return Options{
		CacheMaxAge:     12 * time.Hour,
		MinConfidence:   50,
		AmbiguityMargin: 10,
		MaxCandidates:   5,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.CacheMaxAge <= 0 {
		o.CacheMaxAge = def.CacheMaxAge
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = def.MinConfidence
	}
	if o.AmbiguityMargin <= 0 {
		o.AmbiguityMargin = def.AmbiguityMargin
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = def.MaxCandidates
	}
	return o
}

// Resolver resolves queries against the cached directory, refreshing through
// the fetcher when the cache is absent or stale. It holds no state across
// calls beyond the cache it shares with the store and a reusable index over
// the current snapshot.
type Resolver struct {
	store   store.Store
	fetcher Fetcher
	log     logger.Logger
	opts    Options
	now     func() time.Time

	mu        sync.Mutex
	indexed   *domain.DirectorySnapshot
	lastIndex *index.Index
}

// New creates a resolver with explicit collaborators. No ambient globals:
// tests inject fake stores and fetchers.
func New(s store.Store, f Fetcher, log logger.Logger, opts Options) *Resolver {
	return &Resolver{
		store:   s,
		fetcher: f,
		log:     log,
		opts:    opts.withDefaults(),
		now:     time.Now,
	}
}

// Resolve runs one query through the acquire/refresh/match state machine.
func (r *Resolver) Resolve(ctx context.Context, query string) Outcome {
	snapshot, stale, warning, err := r.acquire(ctx, false)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: err}
	}
	outcome := r.match(snapshot, query)
	outcome.Stale = stale
	outcome.Warning = warning
	return outcome
}

// Refresh forces a fetch and cache update regardless of staleness. Used by
// the --refresh flag and the serve-mode scheduler.
func (r *Resolver) Refresh(ctx context.Context) error {
	snapshot, _, warning, err := r.acquire(ctx, true)
	if err != nil {
		return err
	}
	// Index eagerly so queries (and DirectoryInfo) see the new snapshot
	// without paying the build on their own path.
	r.indexFor(snapshot)
	return warning
}

// acquire implements the AcquireSnapshot/Refresh states: load the cache,
// refresh when absent, stale or forced, and degrade gracefully to a stale
// snapshot when the fetch fails.
func (r *Resolver) acquire(ctx context.Context, force bool) (snapshot *domain.DirectorySnapshot, stale bool, warning error, err error) {
	record, loadErr := r.store.Load(ctx)
	if loadErr != nil {
		// Corrupt or unreadable cache: proceed as if absent, a fresh
		// fetch repairs it.
		r.log.Warn("cache unusable, refetching", logger.Error(loadErr))
		record = nil
	}

	fresh := record != nil && !store.IsStale(record.StoredAt, r.opts.CacheMaxAge, r.now())
	if fresh && !force {
		return record.Snapshot, false, nil, nil
	}

	previousVersion := ""
	if record != nil {
		previousVersion = record.Snapshot.SourceVersion
	}

	fetched, collisions, fetchErr := r.fetcher.Fetch(ctx, previousVersion)
	switch {
	case fetchErr == nil:
		for _, c := range collisions {
			r.log.Warn("duplicate shortcut in directory, keeping latest",
				logger.String("shortcut", c.Shortcut),
				logger.String("kept_target", c.Kept.Target),
				logger.String("dropped_target", c.Dropped.Target))
		}
		r.persist(ctx, fetched)
		return fetched, false, nil, nil

	case errors.Is(fetchErr, directory.ErrUnchanged) && record != nil:
		// Same content upstream: reuse the cached snapshot and reset its
		// staleness clock.
		r.persist(ctx, record.Snapshot)
		return record.Snapshot, false, nil, nil

	case record != nil:
		// Graceful degradation: the old snapshot stays usable as a
		// fallback, the fetch error surfaces as a soft warning.
		r.log.Warn("directory fetch failed, using stale cache",
			logger.Duration("age", r.now().Sub(record.StoredAt)),
			logger.Error(fetchErr))
		return record.Snapshot, true, fetchErr, nil

	default:
		return nil, false, nil, fmt.Errorf("%w: %w", ErrNoDirectory, fetchErr)
	}
}

// persist saves the snapshot back through the store. A write failure never
// aborts resolution, the snapshot is a disposable derived artifact.
func (r *Resolver) persist(ctx context.Context, snapshot *domain.DirectorySnapshot) {
	if err := r.store.Save(ctx, snapshot); err != nil {
		r.log.Warn("failed to persist snapshot", logger.Error(err))
	}
}

// match implements the Match state against the chosen snapshot.
func (r *Resolver) match(snapshot *domain.DirectorySnapshot, query string) Outcome {
	idx := r.indexFor(snapshot)

	matches := idx.Query(query)
	if len(matches) == 0 {
		return Outcome{Status: StatusNotFound}
	}

	top := matches[0]
	if top.Kind == domain.MatchExact {
		return Outcome{Status: StatusResolved, Entry: top.Entry, Candidates: r.cap(matches)}
	}

	if top.Score >= r.opts.MinConfidence {
		contested := len(matches) > 1 && top.Score-matches[1].Score <= r.opts.AmbiguityMargin
		if !contested {
			return Outcome{Status: StatusResolved, Entry: top.Entry, Candidates: r.cap(matches)}
		}
		return Outcome{Status: StatusAmbiguous, Candidates: r.cap(matches)}
	}

	return Outcome{Status: StatusNotFound, Candidates: r.cap(matches)}
}

// DirectoryInfo reports the snapshot currently being served: entry count and
// when it was fetched. ok is false until the first resolve or refresh has
// indexed a snapshot. Used by the healthz endpoint.
func (r *Resolver) DirectoryInfo() (entries int, fetchedAt time.Time, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed == nil {
		return 0, time.Time{}, false
	}
	return r.indexed.Len(), r.indexed.FetchedAt, true
}

// indexFor reuses the index while the snapshot is unchanged. Snapshots are
// immutable, so pointer identity is enough.
func (r *Resolver) indexFor(snapshot *domain.DirectorySnapshot) *index.Index {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed != snapshot {
		r.lastIndex = index.Build(snapshot)
		r.indexed = snapshot
	}
	return r.lastIndex
}

func (r *Resolver) cap(matches []index.Match) []index.Match {
	if len(matches) > r.opts.MaxCandidates {
		return matches[:r.opts.MaxCandidates]
	}
	return matches
}
