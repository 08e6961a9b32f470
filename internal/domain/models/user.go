// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a member profile.
//
// NOTE:
//   - Meeting participation is not embedded on User.
//     Use the participations collection to discover a user's meetings.
//   - BlockedUserIDs is a live field: blocking and unblocking mutate this
//     set in place and take effect purely at read time (visibility
//     filtering). Blocking never deletes the blocked user's data.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nickname   string             `bson:"nickname" json:"nickname"`
	NicknameCI string             `bson:"nickname_ci" json:"nickname_ci"` // lowercase, diacritics-stripped
	Phone      string             `bson:"phone" json:"phone"`
	Age        int                `bson:"age,omitempty" json:"age,omitempty"`
	Bio        string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Location   string             `bson:"location,omitempty" json:"location,omitempty"`
	Interests  []string           `bson:"interests,omitempty" json:"interests,omitempty"`

	// IsSubscribed gates joining meetings. Payment itself is handled by an
	// external collaborator; this is just the confirmation flag it flips.
	IsSubscribed bool `bson:"is_subscribed" json:"is_subscribed"`

	// IsCertified is set by the external identity-proof collaborator.
	IsCertified bool `bson:"is_certified" json:"is_certified"`

	BlockedUserIDs []primitive.ObjectID `bson:"blocked_user_ids,omitempty" json:"blocked_user_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
