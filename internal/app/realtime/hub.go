// internal/app/realtime/hub.go

package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is the wire envelope pushed to clients.
type Event struct {
	Type      string    `json:"type"` // "message" or "unread"
	MeetingID string    `json:"meeting_id,omitempty"`
	SenderID  string    `json:"sender_id,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Text      string    `json:"text,omitempty"`
	SentAt    time.Time `json:"sent_at,omitempty"`
	Unread    []string  `json:"unread,omitempty"`
}

// MessageEvent encodes a chat message for fan-out.
func MessageEvent(msg models.ChatMessage) []byte {
	b, _ := json.Marshal(Event{
		Type:      "message",
		MeetingID: msg.MeetingID.Hex(),
		SenderID:  msg.SenderID.Hex(),
		Sender:    msg.SenderName,
		Text:      msg.Text,
		SentAt:    msg.SentAt,
	})
	return b
}

// UnreadEvent encodes an unread-state snapshot for one user.
func UnreadEvent(meetingIDs []primitive.ObjectID) []byte {
	unread := make([]string, 0, len(meetingIDs))
	for _, id := range meetingIDs {
		unread = append(unread, id.Hex())
	}
	b, _ := json.Marshal(Event{Type: "unread", Unread: unread})
	return b
}

// Hub tracks one active connection per user and the meeting rooms each
// connection is watching, fanning chat messages out per room and unread
// snapshots out per user.
type Hub struct {
	mu        sync.RWMutex
	sessions  map[string]*Connection                          // session id -> connection
	userConns map[primitive.ObjectID]string                   // user id -> session id
	rooms     map[primitive.ObjectID]map[string]*Connection   // meeting id -> session id -> connection
	connRooms map[string]map[primitive.ObjectID]struct{}      // session id -> meeting ids
}

func NewHub() *Hub {
	return &Hub{
		sessions:  make(map[string]*Connection),
		userConns: make(map[primitive.ObjectID]string),
		rooms:     make(map[primitive.ObjectID]map[string]*Connection),
		connRooms: make(map[string]map[primitive.ObjectID]struct{}),
	}
}

// Attach registers a connection for its user. A previous session for the
// same user is closed after the swap; one socket per user.
func (h *Hub) Attach(conn *Connection) {
	var previous *Connection

	h.mu.Lock()
	if existingID, ok := h.userConns[conn.UserID]; ok {
		if existing := h.sessions[existingID]; existing != nil {
			previous = existing
			h.detachLocked(existingID)
		}
	}
	h.sessions[conn.ID] = conn
	h.userConns[conn.UserID] = conn.ID
	h.connRooms[conn.ID] = make(map[primitive.ObjectID]struct{})
	h.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Detach removes a connection if it is still tracked.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	h.detachLocked(conn.ID)
	h.mu.Unlock()
}

// JoinRoom adds the connection to a meeting's fan-out set.
func (h *Hub) JoinRoom(meetingID primitive.ObjectID, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[conn.ID]; !ok {
		return
	}
	room := h.rooms[meetingID]
	if room == nil {
		room = make(map[string]*Connection)
		h.rooms[meetingID] = room
	}
	room[conn.ID] = conn
	h.connRooms[conn.ID][meetingID] = struct{}{}
}

// LeaveRoom removes the connection from a meeting's fan-out set.
func (h *Hub) LeaveRoom(meetingID primitive.ObjectID, conn *Connection) {
	h.mu.Lock()
	h.leaveLocked(meetingID, conn.ID)
	h.mu.Unlock()
}

// Broadcast writes payload to every connection in the meeting's room
// except users in skip. The caller decides who is skipped: the sender
// (who already has the message from the HTTP response) and any viewer
// whose block set hides the sender. Returns the delivery count.
func (h *Hub) Broadcast(meetingID primitive.ObjectID, payload []byte, skip map[primitive.ObjectID]struct{}) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[meetingID]
	delivered := 0
	for _, conn := range room {
		if _, skipped := skip[conn.UserID]; skipped {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// NotifyUser delivers payload to the user's current connection, if any.
func (h *Hub) NotifyUser(userID primitive.ObjectID, payload []byte) bool {
	h.mu.RLock()
	sessionID, ok := h.userConns[userID]
	if !ok {
		h.mu.RUnlock()
		return false
	}
	conn := h.sessions[sessionID]
	h.mu.RUnlock()
	if conn == nil {
		return false
	}
	return conn.Send(payload) == nil
}

// Close terminates every tracked connection and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.sessions))
	for _, conn := range h.sessions {
		conns = append(conns, conn)
	}
	h.sessions = make(map[string]*Connection)
	h.userConns = make(map[primitive.ObjectID]string)
	h.rooms = make(map[primitive.ObjectID]map[string]*Connection)
	h.connRooms = make(map[string]map[primitive.ObjectID]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "hub shutdown")
	}
}

func (h *Hub) detachLocked(sessionID string) {
	conn, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(h.sessions, sessionID)
	if current, ok := h.userConns[conn.UserID]; ok && current == sessionID {
		delete(h.userConns, conn.UserID)
	}
	for meetingID := range h.connRooms[sessionID] {
		h.leaveLocked(meetingID, sessionID)
	}
	delete(h.connRooms, sessionID)
}

func (h *Hub) leaveLocked(meetingID primitive.ObjectID, sessionID string) {
	room := h.rooms[meetingID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, meetingID)
	}
	if memberships, ok := h.connRooms[sessionID]; ok {
		delete(memberships, meetingID)
	}
}
