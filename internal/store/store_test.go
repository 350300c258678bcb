package store

import (
	"errors"
	"testing"
	"time"

	"github.com/bucketbot/golink/internal/domain"
)

func TestIsStale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	maxAge := 12 * time.Hour

	tests := []struct {
		name     string
		storedAt time.Time
		want     bool
	}{
		{"fresh", now.Add(-time.Minute), false},
		{"exactly at max age", now.Add(-maxAge), false},
		{"one second over", now.Add(-maxAge - time.Second), true},
		{"one second under", now.Add(-maxAge + time.Second), false},
		{"far in the past", now.Add(-30 * 24 * time.Hour), true},
		{"clock skew into the future", now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(tt.storedAt, maxAge, now); got != tt.want {
				t.Errorf("IsStale(%v) = %v, want %v", tt.storedAt, got, tt.want)
			}
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	fetchedAt := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	storedAt := fetchedAt.Add(time.Minute)

	snapshot, _ := domain.NewSnapshot([]domain.LinkEntry{
		{Shortcut: "hr", Target: "https://hr.example.com", Owner: "people-ops", UpdatedAt: fetchedAt},
		{Shortcut: "wiki", Target: "https://wiki.example.com", Description: "team wiki", UpdatedAt: fetchedAt},
	}, fetchedAt, "v42")

	data, err := EncodeRecord(snapshot, storedAt)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	record, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}

	if !record.StoredAt.Equal(storedAt) {
		t.Errorf("StoredAt = %v, want %v", record.StoredAt, storedAt)
	}
	if !record.Snapshot.FetchedAt.Equal(fetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", record.Snapshot.FetchedAt, fetchedAt)
	}
	if record.Snapshot.SourceVersion != "v42" {
		t.Errorf("SourceVersion = %q, want %q", record.Snapshot.SourceVersion, "v42")
	}
	if record.Snapshot.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", record.Snapshot.Len())
	}

	entry, ok := record.Snapshot.Lookup("wiki")
	if !ok {
		t.Fatal("decoded snapshot missing wiki entry")
	}
	if entry.Description != "team wiki" {
		t.Errorf("Description = %q, want %q", entry.Description, "team wiki")
	}
}

func TestDecodeRecordCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"truncated json", `{"format_version":1,"links":[`},
		{"not json", "ETag: xyz"},
		{"unknown format version", `{"format_version":99,"links":[]}`},
		{"zero format version", `{"links":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord([]byte(tt.data))
			if !errors.Is(err, ErrCacheCorrupt) {
				t.Errorf("DecodeRecord error = %v, want ErrCacheCorrupt", err)
			}
		})
	}
}
