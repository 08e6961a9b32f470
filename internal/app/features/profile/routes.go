// internal/app/features/profile/routes.go
package profile

import (
	"github.com/go-chi/chi/v5"
	"github.com/moimlabs/moim/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.HandleView)
		pr.Put("/", h.HandleUpdate)

		pr.Post("/block", h.HandleBlock)
		pr.Post("/unblock", h.HandleUnblock)

		pr.Post("/subscription", h.HandleSubscription)
		pr.Post("/withdraw", h.HandleWithdraw)
	})

	return r
}
