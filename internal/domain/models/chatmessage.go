// internal/domain/models/chatmessage.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatMessage is one message in a meeting's chat. Messages are append-only:
// nothing in the service ever mutates or deletes them. Blocking a sender
// suppresses their messages at read time only, so unblocking instantly
// restores them.
type ChatMessage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MeetingID  primitive.ObjectID `bson:"meeting_id" json:"meeting_id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	SenderName string             `bson:"sender_name" json:"sender_name"`
	Text       string             `bson:"text" json:"text"`
	SentAt     time.Time          `bson:"sent_at" json:"sent_at"`
}
