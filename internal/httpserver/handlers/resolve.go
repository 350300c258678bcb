package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bucketbot/golink/internal/domain"
	"github.com/bucketbot/golink/internal/httpserver/deps"
	"github.com/bucketbot/golink/internal/index"
	"github.com/bucketbot/golink/internal/logger"
	"github.com/bucketbot/golink/internal/resolver"
)

type resolveEntry struct {
	Shortcut    string `json:"shortcut"`
	Target      string `json:"target"`
	Owner       string `json:"owner,omitempty"`
	Description string `json:"description,omitempty"`
}

type resolveCandidate struct {
	resolveEntry
	Kind  string  `json:"kind"`
	Score float64 `json:"score"`
}

type resolveResponse struct {
	Status     string             `json:"status"`
	Entry      *resolveEntry      `json:"entry,omitempty"`
	Candidates []resolveCandidate `json:"candidates,omitempty"`
	Stale      bool               `json:"stale,omitempty"`
	Warning    string             `json:"warning,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Resolve serves GET /api/resolve?q=<query> and renders the resolution
// outcome as JSON. Transport errors from the directory service never leak:
// the status field is always one of the four terminal outcomes.
func Resolve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			http.Error(w, `missing "q" parameter`, http.StatusBadRequest)
			return
		}

		outcome := d.Resolver.Resolve(r.Context(), query)
		d.Logger.Info("resolve request",
			logger.String("query", query),
			logger.String("status", outcome.Status.String()))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode(outcome.Status))
		_ = json.NewEncoder(w).Encode(toResponse(outcome))
	}
}

func statusCode(s resolver.Status) int {
	switch s {
	case resolver.StatusResolved, resolver.StatusAmbiguous:
		return http.StatusOK
	case resolver.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func toResponse(outcome resolver.Outcome) resolveResponse {
	resp := resolveResponse{
		Status: outcome.Status.String(),
		Stale:  outcome.Stale,
	}
	if outcome.Warning != nil {
		resp.Warning = outcome.Warning.Error()
	}
	if outcome.Err != nil {
		resp.Error = outcome.Err.Error()
	}
	if outcome.Status == resolver.StatusResolved {
		entry := toEntry(outcome.Entry)
		resp.Entry = &entry
	}
	for _, m := range outcome.Candidates {
		resp.Candidates = append(resp.Candidates, toCandidate(m))
	}
	return resp
}

func toEntry(e domain.LinkEntry) resolveEntry {
	return resolveEntry{
		Shortcut:    e.Shortcut,
		Target:      e.Target,
		Owner:       e.Owner,
		Description: e.Description,
	}
}

func toCandidate(m index.Match) resolveCandidate {
	return resolveCandidate{
		resolveEntry: toEntry(m.Entry),
		Kind:         m.Kind.String(),
		Score:        m.Score,
	}
}
