// internal/app/features/profile/handler.go
package profile

import (
	"github.com/moimlabs/moim/internal/app/lifecycle"
	"github.com/moimlabs/moim/internal/app/system/auth"
	"github.com/moimlabs/moim/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the profile feature:
// viewing and editing the signed-in user, blocking, the subscription
// flag, and account withdrawal.
type Handler struct {
	DB        *mongo.Database
	Log       *zap.Logger
	Sessions  *auth.SessionManager
	Lifecycle *lifecycle.Service
}

func NewHandler(db *mongo.Database, logger *zap.Logger, sm *auth.SessionManager, lc *lifecycle.Service) *Handler {
	return &Handler{DB: db, Log: logger, Sessions: sm, Lifecycle: lc}
}

type profileView struct {
	ID           string   `json:"id"`
	Nickname     string   `json:"nickname"`
	Phone        string   `json:"phone"`
	Age          int      `json:"age,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	Location     string   `json:"location,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	IsSubscribed bool     `json:"is_subscribed"`
	IsCertified  bool     `json:"is_certified"`
	BlockedIDs   []string `json:"blocked_user_ids,omitempty"`
}

func viewOf(u *models.User) profileView {
	blocked := make([]string, 0, len(u.BlockedUserIDs))
	for _, id := range u.BlockedUserIDs {
		blocked = append(blocked, id.Hex())
	}
	return profileView{
		ID:           u.ID.Hex(),
		Nickname:     u.Nickname,
		Phone:        u.Phone,
		Age:          u.Age,
		Bio:          u.Bio,
		Location:     u.Location,
		Interests:    u.Interests,
		IsSubscribed: u.IsSubscribed,
		IsCertified:  u.IsCertified,
		BlockedIDs:   blocked,
	}
}
