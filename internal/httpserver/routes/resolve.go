package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/bucketbot/golink/internal/httpserver/deps"
	"github.com/bucketbot/golink/internal/httpserver/handlers"
)

func init() { Register(registerResolve) }

func registerResolve(r chi.Router, d deps.Deps) {
	r.Get("/api/resolve", handlers.Resolve(d))
	r.Post("/api/refresh", handlers.Refresh(d))
}
