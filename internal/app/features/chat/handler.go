// internal/app/features/chat/handler.go
package chat

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/moimlabs/moim/internal/app/realtime"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for meeting chat: message
// history, posting, and the per-user websocket stream.
type Handler struct {
	DB           *mongo.Database
	Log          *zap.Logger
	Hub          *realtime.Hub
	HistoryLimit int64
	upgrader     websocket.Upgrader
}

func NewHandler(db *mongo.Database, logger *zap.Logger, hub *realtime.Hub, historyLimit int) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		Hub:          hub,
		HistoryLimit: int64(historyLimit),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Session cookie auth happens before the upgrade; the origin
			// check is the browser's job for a same-site app.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type messageView struct {
	ID         string    `json:"id"`
	MeetingID  string    `json:"meeting_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
}

func viewOf(msg models.ChatMessage) messageView {
	return messageView{
		ID:         msg.ID.Hex(),
		MeetingID:  msg.MeetingID.Hex(),
		SenderID:   msg.SenderID.Hex(),
		SenderName: msg.SenderName,
		Text:       msg.Text,
		SentAt:     msg.SentAt,
	}
}
