// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the router for account and session endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/orgs", h.ServeOrgs)
	r.Post("/register", h.ServeRegister)
	r.Post("/login", h.ServeLogin)
	r.Post("/logout", h.ServeLogout)

	return r
}
