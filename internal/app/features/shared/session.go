// internal/app/features/shared/session.go
package shared

import (
	"net/http"

	"github.com/moimlabs/moim/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserID extracts the signed-in user's object id from the request
// context. The second return is false when there is no valid session;
// behind RequireSignedIn that only happens if the stored id is mangled.
func UserID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
