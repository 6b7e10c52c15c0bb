// internal/app/features/partners/routes.go
package partners

import (
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the partnering endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Post("/requests", h.ServeSubmit)
	r.Delete("/requests/{id}", h.ServeWithdraw)
	r.Post("/requests/{id}/respond", h.ServeRespond)
	r.Get("/requests/incoming", h.ServeIncoming)
	r.Get("/requests/sent", h.ServeSent)

	r.Get("/directory", h.ServeDirectory)
	r.Get("/group", h.ServeGroup)
	r.Get("/ws", h.ServeWS)

	return r
}
