// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the signed-in learner's profile.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeGet)
	r.Put("/", h.ServeUpdate)

	return r
}
