// internal/domain/models/meeting.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meeting is a small social gathering owned by its host.
//
// CurrentParticipants is a denormalized count of participation documents,
// kept on the meeting for fast reads. It is the only field with multiple
// writers (host edits, membership lifecycle); all adjustments go through
// the meetings store so the capacity bound and the zero floor are enforced
// by single-document atomic updates.
type Meeting struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Title    string             `bson:"title" json:"title"`
	TitleCI  string             `bson:"title_ci" json:"title_ci"`
	Category string             `bson:"category,omitempty" json:"category,omitempty"`
	Location string             `bson:"location,omitempty" json:"location,omitempty"`
	MoodTags []string           `bson:"mood_tags,omitempty" json:"mood_tags,omitempty"`

	Description string `bson:"description,omitempty" json:"description,omitempty"`

	HostID   primitive.ObjectID `bson:"host_id" json:"host_id"`
	HostName string             `bson:"host_name" json:"host_name"`

	Capacity            int `bson:"capacity" json:"capacity"`
	CurrentParticipants int `bson:"current_participants" json:"current_participants"`

	// IsCertifiedOnly restricts the roster to certified members.
	IsCertifiedOnly bool `bson:"is_certified_only" json:"is_certified_only"`

	ScheduledAt time.Time `bson:"scheduled_at" json:"scheduled_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
