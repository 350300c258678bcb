package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bucketbot/golink/internal/httpserver/deps"
)

type healthzDirectory struct {
	Entries   int       `json:"entries"`
	FetchedAt time.Time `json:"fetched_at"`
}

type healthzResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Version       string            `json:"version,omitempty"`
	Commit        string            `json:"commit,omitempty"`
	BuildDate     string            `json:"build_date,omitempty"`
	GoVersion     string            `json:"go_version,omitempty"`
	Directory     *healthzDirectory `json:"directory,omitempty"`
}

// Healthz reports liveness plus the state of the directory snapshot being
// served. The directory block is absent until the first successful index.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: time.Since(start).Seconds(),
		}
		if d.Resolver != nil {
			if entries, fetchedAt, ok := d.Resolver.DirectoryInfo(); ok {
				resp.Directory = &healthzDirectory{Entries: entries, FetchedAt: fetchedAt}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
