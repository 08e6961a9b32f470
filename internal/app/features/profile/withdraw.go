// internal/app/features/profile/withdraw.go
package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/moimlabs/moim/internal/app/features/shared"
	"github.com/moimlabs/moim/internal/app/system/identity"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleWithdraw runs the account-removal saga and ends the session.
//
// If the identity provider wants a fresh login, the saga has already
// deleted the user's data; the client is signed out and told to
// re-authenticate, after which a retried withdraw finishes the job.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Saga())
	defer cancel()

	err := h.Lifecycle.Withdraw(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrRequiresRecentLogin) {
			if soErr := h.Sessions.SignOut(w, r); soErr != nil {
				h.Log.Warn("sign out after aborted withdraw", zap.Error(soErr))
			}
			shared.Error(w, http.StatusUnauthorized, "please sign in again to finish deleting your account")
			return
		}
		h.Log.Warn("withdraw", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "withdraw failed; it is safe to retry")
		return
	}

	if err := h.Sessions.SignOut(w, r); err != nil {
		h.Log.Warn("sign out after withdraw", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
