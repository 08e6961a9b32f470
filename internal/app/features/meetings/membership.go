// internal/app/features/meetings/membership.go
package meetings

// Join, leave, kick and delete all route through the lifecycle service;
// these handlers only translate HTTP to lifecycle calls and lifecycle
// errors back to statuses.

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moimlabs/moim/internal/app/features/shared"
	"github.com/moimlabs/moim/internal/app/lifecycle"
	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleJoin admits the caller into the meeting.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	meetingID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "bad meeting id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.Join(ctx, userID, meetingID); err != nil {
		h.writeLifecycleError(w, "join", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLeave removes the caller's own participation.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	meetingID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "bad meeting id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.Leave(ctx, userID, meetingID); err != nil {
		h.writeLifecycleError(w, "leave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type kickRequest struct {
	UserIDs []string `json:"user_ids"`
}

// HandleKick removes the listed members from the meeting. Host only.
func (h *Handler) HandleKick(w http.ResponseWriter, r *http.Request) {
	hostID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	meetingID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "bad meeting id")
		return
	}

	var req kickRequest
	if err := shared.Decode(r, &req); err != nil || len(req.UserIDs) == 0 {
		shared.Error(w, http.StatusBadRequest, "user_ids is required")
		return
	}
	userIDs := make([]primitive.ObjectID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			shared.Error(w, http.StatusBadRequest, "bad user id")
			return
		}
		if id == hostID {
			shared.Error(w, http.StatusBadRequest, "the host cannot kick themselves")
			return
		}
		userIDs = append(userIDs, id)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.Kick(ctx, hostID, meetingID, userIDs); err != nil {
		h.writeLifecycleError(w, "kick", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete tears the meeting down. Host only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	hostID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	meetingID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "bad meeting id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lifecycle.DeleteMeeting(ctx, hostID, meetingID); err != nil {
		h.writeLifecycleError(w, "delete meeting", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeLifecycleError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, meetingstore.ErrMeetingNotFound):
		shared.Error(w, http.StatusNotFound, "meeting not found")
	case errors.Is(err, meetingstore.ErrCapacityFull):
		shared.Error(w, http.StatusConflict, "this meeting is full")
	case errors.Is(err, lifecycle.ErrNotSubscribed):
		shared.Error(w, http.StatusForbidden, "subscription required to join meetings")
	case errors.Is(err, lifecycle.ErrCertificationRequired):
		shared.Error(w, http.StatusForbidden, "this meeting is restricted to certified members")
	case errors.Is(err, lifecycle.ErrNotHost):
		shared.Error(w, http.StatusForbidden, "only the meeting host may do this")
	default:
		h.Log.Warn(op, zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, op+" failed")
	}
}
