// internal/app/features/accounts/login.go
package accounts

import (
	"context"
	"errors"
	"net/http"

	"github.com/moimlabs/moim/internal/app/features/shared"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	"github.com/moimlabs/moim/internal/app/system/auth"
	"github.com/moimlabs/moim/internal/app/system/identity"
	"github.com/moimlabs/moim/internal/app/system/normalize"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// HandleLogin authenticates a phone/password pair. Failures are uniform
// so callers cannot probe which phones have accounts.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	phone := normalize.Phone(req.Phone)
	if phone == "" || req.Password == "" {
		shared.Error(w, http.StatusBadRequest, "phone and password are required")
		return
	}

	if ok, reason := h.LoginLimiter.Check(r, phone); !ok {
		shared.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ident, err := identity.New(h.DB).Authenticate(ctx, phone, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrBadCredentials) {
			shared.Error(w, http.StatusUnauthorized, "phone or password is incorrect")
			return
		}
		h.Log.Warn("authenticate", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	u, err := userstore.New(h.DB).GetByID(ctx, ident.UserID)
	if err != nil {
		h.Log.Warn("load user for login", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.LoginLimiter.ResetPhone(phone)

	if err := h.Sessions.SignIn(w, r, auth.SessionUser{
		ID:       u.ID.Hex(),
		Nickname: u.Nickname,
		Phone:    u.Phone,
	}); err != nil {
		h.Log.Warn("sign in", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	shared.JSON(w, http.StatusOK, map[string]string{
		"id":       u.ID.Hex(),
		"nickname": u.Nickname,
	})
}
