package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bucketbot/golink/internal/browser"
	"github.com/bucketbot/golink/internal/index"
	"github.com/bucketbot/golink/internal/resolver"
)

// JSON view of an outcome for the --json flag.

type jsonEntry struct {
	Shortcut    string `json:"shortcut"`
	Target      string `json:"target"`
	Owner       string `json:"owner,omitempty"`
	Description string `json:"description,omitempty"`
}

type jsonCandidate struct {
	jsonEntry
	Kind  string  `json:"kind"`
	Score float64 `json:"score"`
}

type jsonOutcome struct {
	Query      string          `json:"query"`
	Status     string          `json:"status"`
	Entry      *jsonEntry      `json:"entry,omitempty"`
	Candidates []jsonCandidate `json:"candidates,omitempty"`
	Stale      bool            `json:"stale,omitempty"`
	Warning    string          `json:"warning,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// render prints the outcome and returns the exit code: 0 resolved,
// 1 not found or failed, 2 ambiguous.
func (a *App) render(query string, outcome resolver.Outcome, opts ResolveOptions) int {
	if opts.JSON {
		return a.renderJSON(query, outcome)
	}

	if outcome.Stale && outcome.Warning != nil {
		fmt.Fprintf(os.Stderr, "warning: directory refresh failed, using cached data (%v)\n", outcome.Warning)
	}

	switch outcome.Status {
	case resolver.StatusResolved:
		a.emitTarget(outcome.Entry.Target, opts)
		return ExitResolved

	case resolver.StatusAmbiguous:
		fmt.Fprintf(os.Stderr, "%q is ambiguous:\n", query)
		printCandidates(outcome.Candidates)
		return ExitAmbiguous

	case resolver.StatusNotFound:
		fmt.Fprintln(os.Stderr, "No links found")
		printCandidates(outcome.Candidates)
		return ExitNotFound

	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", outcome.Err)
		return ExitNotFound
	}
}

// emitTarget opens the URL, or prints it with --print. If the browser fails
// to launch the URL is printed so the result is never lost.
func (a *App) emitTarget(target string, opts ResolveOptions) {
	if opts.Print {
		fmt.Println(target)
		return
	}
	if err := browser.Open(target); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open browser: %v\n", err)
		fmt.Println(target)
	}
}

func printCandidates(candidates []index.Match) {
	for _, c := range candidates {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", c.Entry.Shortcut, c.Entry.Target)
	}
}

func (a *App) renderJSON(query string, outcome resolver.Outcome) int {
	view := jsonOutcome{
		Query:  query,
		Status: outcome.Status.String(),
		Stale:  outcome.Stale,
	}
	if outcome.Warning != nil {
		view.Warning = outcome.Warning.Error()
	}
	if outcome.Err != nil {
		view.Error = outcome.Err.Error()
	}
	if outcome.Status == resolver.StatusResolved {
		entry := jsonEntry{
			Shortcut:    outcome.Entry.Shortcut,
			Target:      outcome.Entry.Target,
			Owner:       outcome.Entry.Owner,
			Description: outcome.Entry.Description,
		}
		view.Entry = &entry
	}
	for _, c := range outcome.Candidates {
		view.Candidates = append(view.Candidates, jsonCandidate{
			jsonEntry: jsonEntry{
				Shortcut:    c.Entry.Shortcut,
				Target:      c.Entry.Target,
				Owner:       c.Entry.Owner,
				Description: c.Entry.Description,
			},
			Kind:  c.Kind.String(),
			Score: c.Score,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		fmt.Fprintf(os.Stderr, "Error: writing JSON: %v\n", err)
		return ExitNotFound
	}

	switch outcome.Status {
	case resolver.StatusResolved:
		return ExitResolved
	case resolver.StatusAmbiguous:
		return ExitAmbiguous
	default:
		return ExitNotFound
	}
}
