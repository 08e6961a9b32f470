// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/moimlabs/moim/internal/app/features/shared"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	"github.com/moimlabs/moim/internal/app/system/sanitize"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleView serves the signed-in user's own profile.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			shared.Error(w, http.StatusNotFound, "account not found")
			return
		}
		h.Log.Warn("load profile", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load profile")
		return
	}
	shared.JSON(w, http.StatusOK, viewOf(u))
}

type updateRequest struct {
	Nickname  string   `json:"nickname"`
	Bio       string   `json:"bio"`
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
}

// HandleUpdate edits the member-editable profile fields.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req updateRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users := userstore.New(h.DB)
	if err := users.UpdateProfile(ctx, userID, userstore.ProfileUpdate{
		Nickname:  req.Nickname,
		Bio:       sanitize.Text(req.Bio),
		Location:  req.Location,
		Interests: req.Interests,
	}); err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			shared.Error(w, http.StatusNotFound, "account not found")
			return
		}
		h.Log.Warn("update profile", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update profile")
		return
	}

	u, err := users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Warn("reload profile", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update profile")
		return
	}
	shared.JSON(w, http.StatusOK, viewOf(u))
}
