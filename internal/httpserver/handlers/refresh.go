package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bucketbot/golink/internal/httpserver/deps"
)

type refreshResponse struct {
	Triggered bool   `json:"triggered"`
	Reason    string `json:"reason,omitempty"`
}

// Refresh serves POST /api/refresh: it nudges the background refresher to
// fetch a fresh directory snapshot. Non-blocking; if a refresh is already
// pending the request is a no-op.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		select {
		case d.RefreshTrigger <- struct{}{}:
			d.Logger.Info("manual directory refresh triggered")
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(refreshResponse{Triggered: true})
		default:
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(refreshResponse{
				Triggered: false,
				Reason:    "refresh already pending",
			})
		}
	}
}
