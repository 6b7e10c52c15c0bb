// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"context"
	"net/http"

	profilestore "github.com/dalemusser/linguahub/internal/app/store/profiles"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler stamps learner presence. Clients post a heartbeat on an interval
// while a tab is open; the directory sorts on the resulting last_online.
type Handler struct {
	Profiles *profilestore.Store
	Log      *zap.Logger
}

// NewHandler creates a new heartbeat handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profilestore.New(db),
		Log:      logger,
	}
}

// ServeHeartbeat handles POST /api/heartbeat.
// Failures are silent: a missed stamp only means a slightly stale
// last_online, not something the client can act on.
func (h *Handler) ServeHeartbeat(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Profiles.TouchLastOnline(ctx, oid); err != nil {
		h.Log.Warn("heartbeat: failed to stamp last_online",
			zap.Error(err),
			zap.String("user_id", u.ID))
	}
	w.WriteHeader(http.StatusOK)
}
