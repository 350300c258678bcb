package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linksBody = `{
	"version": "v7",
	"links": [
		{"name": "hr", "url": "https://hr.example.com", "owner": "people-ops", "updated_at": "2026-03-01T10:00:00Z"},
		{"name": "wiki", "url": "https://wiki.example.com", "description": "team wiki", "updated_at": "2026-03-01T10:00:00Z"}
	]
}`

func TestFetchSuccess(t *testing.T) {
	var gotAuth, gotIfNoneMatch string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/go/links", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotIfNoneMatch = r.Header.Get("If-None-Match")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(linksBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token")
	snapshot, collisions, err := client.Fetch(context.Background(), "v6")
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "v6", gotIfNoneMatch)
	assert.Empty(t, collisions)
	assert.Equal(t, "v7", snapshot.SourceVersion)
	assert.Equal(t, 2, snapshot.Len())

	entry, ok := snapshot.Lookup("hr")
	require.True(t, ok)
	assert.Equal(t, "https://hr.example.com", entry.Target)
	assert.Equal(t, "people-ops", entry.Owner)
}

func TestFetchVersionFromETag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("ETag", `"abc123"`)
		_, _ = w.Write([]byte(`{"links": [{"name": "hr", "url": "https://hr.example.com"}]}`))
	}))
	defer server.Close()

	snapshot, _, err := NewClient(server.URL, "tok").Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "abc123", snapshot.SourceVersion)
}

func TestFetchNotModified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	snapshot, _, err := NewClient(server.URL, "tok").Fetch(context.Background(), "v7")
	assert.Nil(t, snapshot)
	assert.ErrorIs(t, err, ErrUnchanged)
}

func TestFetchAuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		_, _, err := NewClient(server.URL, "bad-token").Fetch(context.Background(), "")
		assert.ErrorIs(t, err, ErrUnauthorized, "status %d", status)
		server.Close()
	}
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, _, err := NewClient(server.URL, "tok").Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
}

func TestFetchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // nothing listening anymore

	_, _, err := NewClient(server.URL, "tok").Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
}

func TestFetchMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"links": [`},
		{"empty link name", `{"links": [{"name": "", "url": "https://example.com"}]}`},
		{"relative target url", `{"links": [{"name": "hr", "url": "/hr"}]}`},
		{"target without scheme", `{"links": [{"name": "hr", "url": "example.com/hr"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			snapshot, _, err := NewClient(server.URL, "tok").Fetch(context.Background(), "")
			assert.Nil(t, snapshot)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestFetchUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	_, _, err := NewClient(server.URL, "tok").Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, "tok", WithTimeout(50*time.Millisecond))
	_, _, err := client.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFetchReportsCollisions(t *testing.T) {
	body := `{"links": [
		{"name": "hr", "url": "https://old.example.com", "updated_at": "2026-01-01T00:00:00Z"},
		{"name": "hr", "url": "https://new.example.com", "updated_at": "2026-02-01T00:00:00Z"}
	]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	snapshot, collisions, err := NewClient(server.URL, "tok").Fetch(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, collisions, 1)
	assert.Equal(t, "hr", collisions[0].Shortcut)

	entry, ok := snapshot.Lookup("hr")
	require.True(t, ok)
	assert.Equal(t, "https://new.example.com", entry.Target)
}
