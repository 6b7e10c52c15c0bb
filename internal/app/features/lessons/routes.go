// internal/app/features/lessons/routes.go
package lessons

import (
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the lesson catalog.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeCatalog)
	r.Get("/{id}", h.ServeGet)
	r.Post("/{id}/complete", h.ServeComplete)

	return r
}
