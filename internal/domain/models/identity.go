// internal/domain/models/identity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the authentication record behind a User, keyed by phone
// number. It stands in for the external identity provider: it is created
// at signup, refreshed on login, and deleted as the last step of the
// withdraw saga. Deleting it requires a recent login, mirroring provider
// re-authentication demands.
type Identity struct {
	Phone        string             `bson:"_id" json:"phone"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	PasswordHash []byte             `bson:"password_hash" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	LastLoginAt  time.Time          `bson:"last_login_at" json:"last_login_at"`
}
