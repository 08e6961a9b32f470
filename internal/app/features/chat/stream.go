// internal/app/features/chat/stream.go
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/moimlabs/moim/internal/app/features/shared"
	"github.com/moimlabs/moim/internal/app/realtime"
	messagestore "github.com/moimlabs/moim/internal/app/store/messages"
	participationstore "github.com/moimlabs/moim/internal/app/store/participations"
	"github.com/moimlabs/moim/internal/app/system/timeouts"
	"github.com/moimlabs/moim/internal/app/unread"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	pongWait       = 60 * time.Second
	maxInboundSize = 512
)

// clientCommand is what the browser sends on the stream: which chat is
// open ("active"/"inactive") and when the joined-meeting set changed
// ("refresh", after a join or leave).
type clientCommand struct {
	Type      string `json:"type"`
	MeetingID string `json:"meeting_id,omitempty"`
}

// HandleStream upgrades to a websocket and holds it for the session:
// chat messages for the user's meetings and unread snapshots flow out,
// activity hints flow in. One stream per user; a second connection
// replaces the first.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade", zap.Error(err))
		return
	}

	conn := realtime.NewConnection(userID, ws)
	h.Hub.Attach(conn)
	defer h.Hub.Detach(conn)
	defer conn.Close(websocket.CloseNormalClosure, "bye")

	tracker := unread.NewTracker(userID, messagestore.New(h.DB), h.Log, func(snap []primitive.ObjectID) {
		h.Hub.NotifyUser(userID, realtime.UnreadEvent(snap))
	})
	defer tracker.Close()

	rooms := make(map[primitive.ObjectID]struct{})
	refresh := func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer cancel()
		parts, err := participationstore.New(h.DB).ListByUser(ctx, userID)
		if err != nil {
			h.Log.Warn("stream refresh", zap.Error(err))
			return
		}
		desired := make(map[primitive.ObjectID]struct{}, len(parts))
		ids := make([]primitive.ObjectID, 0, len(parts))
		for _, p := range parts {
			desired[p.MeetingID] = struct{}{}
			ids = append(ids, p.MeetingID)
		}
		for id := range rooms {
			if _, keep := desired[id]; !keep {
				h.Hub.LeaveRoom(id, conn)
				delete(rooms, id)
			}
		}
		for id := range desired {
			if _, have := rooms[id]; !have {
				h.Hub.JoinRoom(id, conn)
				rooms[id] = struct{}{}
			}
		}
		tracker.SetMeetings(ids)
	}

	refresh()
	_ = conn.Send(realtime.UnreadEvent(tracker.Unseen()))

	ws.SetReadLimit(maxInboundSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var cmd clientCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			continue
		}
		switch cmd.Type {
		case "active":
			if id, err := primitive.ObjectIDFromHex(cmd.MeetingID); err == nil {
				tracker.SetActive(id)
			}
		case "inactive":
			tracker.ClearActive()
		case "refresh":
			refresh()
		}
	}
}
