// internal/app/features/chat/messages.go
package chat

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moimlabs/moim/internal/app/features/shared"
	"github.com/moimlabs/moim/internal/app/policy/blockpolicy"
	"github.com/moimlabs/moim/internal/app/realtime"
	messagestore "github.com/moimlabs/moim/internal/app/store/messages"
	participationstore "github.com/moimlabs/moim/internal/app/store/participations"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	"github.com/moimlabs/moim/internal/app/system/sanitize"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleListMessages serves a meeting's recent history, oldest first.
// Only participants can read a meeting's chat, and messages from senders
// the viewer blocked are dropped without being deleted.
func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := shared.UserID(r)
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

	joined, err := participationstore.New(h.DB).Exists(ctx, viewerID, meetingID)
	if err != nil {
		h.Log.Warn("participation check", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load messages")
		return
	}
	if !joined {
		shared.Error(w, http.StatusForbidden, "join the meeting to read its chat")
		return
	}

	viewer, err := userstore.New(h.DB).GetByID(ctx, viewerID)
	if err != nil {
		h.Log.Warn("load viewer", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load messages")
		return
	}

	msgs, err := messagestore.New(h.DB).ListByMeeting(ctx, meetingID, h.HistoryLimit)
	if err != nil {
		h.Log.Warn("list messages", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load messages")
		return
	}

	visible := blockpolicy.For(viewer).Messages(msgs)
	out := make([]messageView, 0, len(visible))
	for _, m := range visible {
		out = append(out, viewOf(m))
	}
	shared.JSON(w, http.StatusOK, map[string]any{"messages": out})
}

type postRequest struct {
	Text string `json:"text"`
}

// HandlePostMessage appends a message and fans it out to every connected
// participant except the sender, who already has it from the response.
func (h *Handler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	senderID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	meetingID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "bad meeting id")
		return
	}

	var req postRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := sanitize.Text(req.Text)
	if text == "" {
		shared.Error(w, http.StatusBadRequest, "message text is empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	joined, err := participationstore.New(h.DB).Exists(ctx, senderID, meetingID)
	if err != nil {
		h.Log.Warn("participation check", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not send message")
		return
	}
	if !joined {
		shared.Error(w, http.StatusForbidden, "join the meeting to chat")
		return
	}

	sender, err := userstore.New(h.DB).GetByID(ctx, senderID)
	if err != nil {
		h.Log.Warn("load sender", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not send message")
		return
	}

	msg, err := messagestore.New(h.DB).Append(ctx, meetingID, senderID, sender.Nickname, text)
	if err != nil {
		h.Log.Warn("append message", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not send message")
		return
	}

	// Pushed messages obey the same visibility rule as history reads:
	// a viewer who blocked the sender never sees them.
	skip := map[primitive.ObjectID]struct{}{senderID: {}}
	if blockers, err := userstore.New(h.DB).ListBlockers(ctx, senderID); err != nil {
		h.Log.Warn("list blockers for fan-out", zap.Error(err))
	} else {
		for _, id := range blockers {
			skip[id] = struct{}{}
		}
	}
	h.Hub.Broadcast(meetingID, realtime.MessageEvent(msg), skip)

	shared.JSON(w, http.StatusCreated, viewOf(msg))
}
