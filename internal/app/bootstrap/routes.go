// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	accountsfeature "github.com/moimlabs/moim/internal/app/features/accounts"
	chatfeature "github.com/moimlabs/moim/internal/app/features/chat"
	healthfeature "github.com/moimlabs/moim/internal/app/features/health"
	meetingsfeature "github.com/moimlabs/moim/internal/app/features/meetings"
	profilefeature "github.com/moimlabs/moim/internal/app/features/profile"
	"github.com/moimlabs/moim/internal/app/lifecycle"
	"github.com/moimlabs/moim/internal/app/realtime"
	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	participationstore "github.com/moimlabs/moim/internal/app/store/participations"
	restrictionstore "github.com/moimlabs/moim/internal/app/store/restrictions"
	userstore "github.com/moimlabs/moim/internal/app/store/users"
	withdrawalstore "github.com/moimlabs/moim/internal/app/store/withdrawals"
	"github.com/moimlabs/moim/internal/app/system/auth"
	"github.com/moimlabs/moim/internal/app/system/identity"
	"go.uber.org/zap"
)

// hub is kept at package level so Shutdown can close the open sockets.
var hub *realtime.Hub

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE
// app. WAFFLE calls it after configuration, DB connection, schema setup
// and Startup have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	lc := lifecycle.New(
		meetingstore.New(db),
		participationstore.New(db),
		userstore.New(db),
		identity.New(db),
		restrictionstore.New(db),
		withdrawalstore.New(db),
		logger,
	)
	hub = realtime.NewHub()
	rejoinWindow := time.Duration(appCfg.RejoinWindowDays) * 24 * time.Hour

	r := chi.NewRouter()

	// Loads SessionUser into context for every request when signed in.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	accountsHandler := accountsfeature.NewHandler(db, logger, sessionMgr, rejoinWindow)
	r.Mount("/accounts", accountsfeature.Routes(accountsHandler))

	meetingsHandler := meetingsfeature.NewHandler(db, logger, lc)
	r.Mount("/meetings", meetingsfeature.Routes(meetingsHandler, sessionMgr))

	chatHandler := chatfeature.NewHandler(db, logger, hub, appCfg.MessageHistoryLimit)
	r.Mount("/chat", chatfeature.Routes(chatHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(db, logger, sessionMgr, lc)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	return r, nil
}
