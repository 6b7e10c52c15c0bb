// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/linguahub/internal/app/features/health"
	heartbeatfeature "github.com/dalemusser/linguahub/internal/app/features/heartbeat"
	leadersfeature "github.com/dalemusser/linguahub/internal/app/features/leaders"
	lessonsfeature "github.com/dalemusser/linguahub/internal/app/features/lessons"
	loginfeature "github.com/dalemusser/linguahub/internal/app/features/login"
	partnersfeature "github.com/dalemusser/linguahub/internal/app/features/partners"
	profilefeature "github.com/dalemusser/linguahub/internal/app/features/profile"
	quizzesfeature "github.com/dalemusser/linguahub/internal/app/features/quizzes"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. LinguaHub mounts a JSON API: auth,
// health, the partnering workflow (requests + live notifications), presence
// heartbeat, profile management, quiz attempts, the org leaderboard, and the
// lesson catalog.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.LinguaHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.LinguaHubMongoDatabase, sessionMgr, logger)
	r.Mount("/auth", loginfeature.Routes(loginHandler))

	// Partnering workflow: requests, responses, directory, live stream
	partnersHandler := partnersfeature.NewHandler(deps.LinguaHubMongoDatabase, hub, logger)
	r.Mount("/partners", partnersfeature.Routes(partnersHandler, sessionMgr))

	// Presence heartbeat (keeps profiles.last_online fresh)
	heartbeatHandler := heartbeatfeature.NewHandler(deps.LinguaHubMongoDatabase, logger)
	r.Mount("/api/heartbeat", heartbeatfeature.Routes(heartbeatHandler, sessionMgr))

	// Profile view/update
	profileHandler := profilefeature.NewHandler(deps.LinguaHubMongoDatabase, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Quiz attempt recording
	quizzesHandler := quizzesfeature.NewHandler(deps.LinguaHubMongoDatabase, logger)
	r.Mount("/quiz", quizzesfeature.Routes(quizzesHandler, sessionMgr))

	// Organization leaderboard
	leadersHandler := leadersfeature.NewHandler(deps.LinguaHubMongoDatabase, logger)
	r.Mount("/leaderboard", leadersfeature.Routes(leadersHandler, sessionMgr))

	// Lesson catalog and completion tracking
	lessonsHandler := lessonsfeature.NewHandler(deps.LinguaHubMongoDatabase, logger)
	r.Mount("/lessons", lessonsfeature.Routes(lessonsHandler, sessionMgr))

	return r, nil
}
