// internal/app/features/leaders/routes.go
package leaders

import (
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for leaderboard endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeLeaderboard)

	return r
}
