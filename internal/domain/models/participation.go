// internal/domain/models/participation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participation is the authoritative join between users and meetings.
// Exactly one document per (user_id, meeting_id), enforced by a unique
// index; it is the source of truth for "who is in what", while
// Meeting.CurrentParticipants is the derived counter.
type Participation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	MeetingID primitive.ObjectID `bson:"meeting_id" json:"meeting_id"`
	JoinedAt  time.Time          `bson:"joined_at" json:"joined_at"`
}
