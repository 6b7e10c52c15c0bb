// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/linguahub/internal/app/notify"
	requeststore "github.com/dalemusser/linguahub/internal/app/store/requests"
	"github.com/dalemusser/linguahub/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Pending requests older than this are janitored away; the sender can
// always re-ask.
const staleRequestAge = 30 * 24 * time.Hour

// Shared between Startup, BuildHandler, and Shutdown. WAFFLE calls the
// hooks in order from a single goroutine, so plain package vars are safe.
var (
	hub    *notify.Hub
	runner *tasks.Runner
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// creates the notification hub (the request ledger publishes into it, the
// WebSocket endpoint subscribes out of it) and starts the maintenance
// runner.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	hub = notify.NewHub(appCfg.NotifyBuffer, logger)

	requests := requeststore.New(deps.LinguaHubMongoDatabase, hub, logger)
	runner = tasks.NewRunner(logger)
	runner.Add(tasks.StaleRequestCleanupJob(requests, logger, staleRequestAge))
	runner.Start()

	return nil
}
