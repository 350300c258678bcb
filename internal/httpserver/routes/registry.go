// Package routes wires handlers onto the router. Each route file registers
// its binder from init() so adding an endpoint never touches the server
// setup.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bucketbot/golink/internal/httpserver/deps"
)

// Binder attaches one group of routes to the router.
type Binder func(r chi.Router, d deps.Deps)

type binding struct {
	bind Binder
	mws  []func(http.Handler) http.Handler
}

var bindings []binding

// Register queues a binder, optionally scoped to extra middlewares.
func Register(b Binder, mws ...func(http.Handler) http.Handler) {
	bindings = append(bindings, binding{bind: b, mws: mws})
}

// Mount attaches every registered binder. Called once while building the
// server.
func Mount(r chi.Router, d deps.Deps) {
	for _, b := range bindings {
		target := r
		if len(b.mws) > 0 {
			target = r.With(b.mws...)
		}
		b.bind(target, d)
	}
}
