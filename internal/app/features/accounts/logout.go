// internal/app/features/accounts/logout.go
package accounts

import (
	"net/http"

	"go.uber.org/zap"
)

// HandleLogout clears the session cookie. Always succeeds from the
// client's point of view.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Warn("sign out", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
