// internal/app/features/profile/block.go
package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/moimlabs/moim/internal/app/features/shared"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type blockRequest struct {
	UserID string `json:"user_id"`
}

// HandleBlock hides another member from every view the caller sees.
// Nothing of the blocked member's data is deleted; unblocking restores
// visibility instantly.
func (h *Handler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	h.handleBlockChange(w, r, true)
}

// HandleUnblock removes a member from the caller's block set.
func (h *Handler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	h.handleBlockChange(w, r, false)
}

func (h *Handler) handleBlockChange(w http.ResponseWriter, r *http.Request, block bool) {
	userID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req blockRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "bad user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users := userstore.New(h.DB)
	if block {
		err = users.Block(ctx, userID, targetID)
	} else {
		err = users.Unblock(ctx, userID, targetID)
	}
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, userstore.ErrSelfBlock):
		shared.Error(w, http.StatusBadRequest, "you cannot block yourself")
	case errors.Is(err, userstore.ErrUserNotFound):
		shared.Error(w, http.StatusNotFound, "account not found")
	default:
		h.Log.Warn("block change", zap.Bool("block", block), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update block list")
	}
}
