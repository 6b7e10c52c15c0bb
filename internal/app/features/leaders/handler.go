// internal/app/features/leaders/handler.go
package leaders

import (
	"context"
	"net/http"
	"strconv"

	attemptstore "github.com/dalemusser/linguahub/internal/app/store/attempts"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/app/system/httpjson"
	"github.com/dalemusser/linguahub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultLimit = 20

// Handler serves the organization leaderboard.
type Handler struct {
	Attempts *attemptstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Attempts: attemptstore.New(db),
		Log:      logger,
	}
}

type leaderboardResponse struct {
	Rows []attemptstore.LeaderboardRow `json:"rows"`
}

// ServeLeaderboard handles GET /leaderboard?limit=N. Rankings are scoped
// to the viewer's organization.
func (h *Handler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}
	orgID, err := primitive.ObjectIDFromHex(u.OrganizationID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "join an organization to see its leaderboard")
		return
	}

	limit := defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Attempts.Leaderboard(ctx, orgID, limit)
	if err != nil {
		h.Log.Error("leaders: aggregate", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load leaderboard")
		return
	}
	if rows == nil {
		rows = []attemptstore.LeaderboardRow{}
	}
	httpjson.Write(w, http.StatusOK, leaderboardResponse{Rows: rows})
}
