// internal/app/features/tenders/routes.go
package tenders

import (
	"github.com/dalemusser/tenderhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the tender subrouter. It is mounted at /tenders and
// /api/tenders. Role checks happen in the lifecycle policy, so every route
// only requires a signed-in principal.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeTender)
		r.Put("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)
		r.Patch("/status", h.HandleStatus)
		r.Delete("/documents/{docID}", h.HandleDeleteDocument)
	})

	return r
}
