// internal/app/features/chat/routes.go
package chat

import (
	"github.com/go-chi/chi/v5"
	"github.com/moimlabs/moim/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/ws", h.HandleStream)
		pr.Get("/meetings/{id}/messages", h.HandleListMessages)
		pr.Post("/meetings/{id}/messages", h.HandlePostMessage)
	})

	return r
}
