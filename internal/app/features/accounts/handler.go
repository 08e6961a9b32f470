// internal/app/features/accounts/handler.go
package accounts

import (
	"time"

	"github.com/moimlabs/moim/internal/app/system/auth"
	"github.com/moimlabs/moim/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for signup, login and
// logout.
type Handler struct {
	DB           *mongo.Database
	Log          *zap.Logger
	Sessions     *auth.SessionManager
	LoginLimiter *ratelimit.LoginLimiter
	RejoinWindow time.Duration
}

func NewHandler(db *mongo.Database, logger *zap.Logger, sm *auth.SessionManager, rejoinWindow time.Duration) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		Sessions:     sm,
		LoginLimiter: ratelimit.NewLoginLimiter(),
		RejoinWindow: rejoinWindow,
	}
}
