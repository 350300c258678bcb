// Package redis implements an optional shared cache store backend. It keeps
// the same versioned record envelope as the file backend in a single Redis
// key, so multiple machines can share one directory snapshot.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bucketbot/golink/internal/domain"
	"github.com/bucketbot/golink/internal/store"
)

// DefaultRecordTTL bounds how long an untouched snapshot survives in Redis.
// It is deliberately much larger than any sane cache max age: staleness is
// decided by the record's stored_at, the TTL only reclaims abandoned keys.
const DefaultRecordTTL = 7 * 24 * time.Hour

// Store persists the directory snapshot in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a Redis-backed cache store. A non-positive ttl falls back
// to DefaultRecordTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultRecordTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Load reads the persisted record. A missing key is a plain miss; an
// unreachable server or an undecodable record is reported with
// ErrCacheCorrupt and treated as a miss by callers.
func (s *Store) Load(ctx context.Context) (*store.Record, error) {
	data, err := s.client.Get(ctx, SnapshotKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", store.ErrCacheCorrupt, SnapshotKey(), err)
	}

	record, err := store.DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", SnapshotKey(), err)
	}
	return record, nil
}

// Save replaces the persisted record. Redis SET is atomic, so readers only
// ever observe the previous or the new record.
func (s *Store) Save(ctx context.Context, snapshot *domain.DirectorySnapshot) error {
	data, err := store.EncodeRecord(snapshot, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrCacheUnwritable, err)
	}

	if err := s.client.Set(ctx, SnapshotKey(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: writing %s: %v", store.ErrCacheUnwritable, SnapshotKey(), err)
	}
	return nil
}
