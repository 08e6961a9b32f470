// internal/app/features/accounts/signup.go
package accounts

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/moimlabs/moim/internal/app/features/shared"
	"github.com/moimlabs/moim/internal/app/policy/rejoinpolicy"
	restrictionstore "github.com/moimlabs/moim/internal/app/store/restrictions"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	"github.com/moimlabs/moim/internal/app/system/auth"
	"github.com/moimlabs/moim/internal/app/system/identity"
	"github.com/moimlabs/moim/internal/app/system/normalize"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.uber.org/zap"
)

const minPasswordLen = 8

type signupRequest struct {
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type signupDeniedResponse struct {
	Error         string `json:"error"`
	RemainingDays int    `json:"remaining_days"`
}

// HandleSignup registers a new phone-keyed account. A phone that
// withdrew inside the rejoin window is refused with the days it has
// left to wait; the restriction is checked before anything is written.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	nickname := normalize.Name(req.Nickname)
	phone := normalize.Phone(req.Phone)
	switch {
	case nickname == "":
		shared.Error(w, http.StatusBadRequest, "nickname is required")
		return
	case phone == "":
		shared.Error(w, http.StatusBadRequest, "phone is required")
		return
	case len(req.Password) < minPasswordLen:
		shared.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	restriction, err := restrictionstore.New(h.DB).Get(ctx, phone)
	if err != nil {
		h.Log.Warn("rejoin restriction lookup", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "signup failed")
		return
	}
	if d := rejoinpolicy.Check(restriction, time.Now().UTC(), h.RejoinWindow); !d.Allowed {
		shared.JSON(w, http.StatusForbidden, signupDeniedResponse{
			Error:         "this phone number withdrew recently and cannot re-register yet",
			RemainingDays: d.RemainingDays,
		})
		return
	}

	users := userstore.New(h.DB)
	u, err := users.Create(ctx, models.User{Nickname: nickname, Phone: phone})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicatePhone) {
			shared.Error(w, http.StatusConflict, "an account already exists for this phone number")
			return
		}
		h.Log.Warn("create user", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "signup failed")
		return
	}

	if err := identity.New(h.DB).Register(ctx, phone, req.Password, u.ID); err != nil {
		// Keep user docs and identities paired: back the user doc out.
		if _, delErr := users.Delete(ctx, u.ID); delErr != nil {
			h.Log.Warn("user cleanup after failed register", zap.Error(delErr))
		}
		if errors.Is(err, identity.ErrPhoneTaken) {
			shared.Error(w, http.StatusConflict, "an account already exists for this phone number")
			return
		}
		h.Log.Warn("register identity", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "signup failed")
		return
	}

	if err := h.Sessions.SignIn(w, r, auth.SessionUser{
		ID:       u.ID.Hex(),
		Nickname: u.Nickname,
		Phone:    u.Phone,
	}); err != nil {
		h.Log.Warn("sign in after signup", zap.Error(err))
	}

	shared.JSON(w, http.StatusCreated, map[string]string{
		"id":       u.ID.Hex(),
		"nickname": u.Nickname,
	})
}
