package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bucketbot/golink/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready   bool   `json:"ready"`
	Entries int    `json:"entries,omitempty"`
	Version string `json:"version,omitempty"`
}

// Readyz reports 200 once a directory snapshot has been indexed and 503
// before that, so a launcher can wait for the daemon to become useful.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, _, ok := d.Resolver.DirectoryInfo()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(readyzResponse{Ready: false})
			return
		}
		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready:   true,
			Entries: entries,
			Version: d.Version,
		})
	}
}
