// internal/app/features/profile/subscription.go
package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/moimlabs/moim/internal/app/features/shared"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type subscriptionRequest struct {
	Subscribed bool `json:"subscribed"`
}

// HandleSubscription records the payment collaborator's confirmation.
// The payment flow itself lives outside this service; by the time this
// endpoint is called the money side is already settled.
func (h *Handler) HandleSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req subscriptionRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := userstore.New(h.DB).SetSubscribed(ctx, userID, req.Subscribed); err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			shared.Error(w, http.StatusNotFound, "account not found")
			return
		}
		h.Log.Warn("set subscription", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
