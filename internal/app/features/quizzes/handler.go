// internal/app/features/quizzes/handler.go
package quizzes

import (
	"context"
	"net/http"

	attemptstore "github.com/dalemusser/linguahub/internal/app/store/attempts"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/app/system/httpjson"
	"github.com/dalemusser/linguahub/internal/app/system/timeouts"
	"github.com/dalemusser/linguahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler records quiz results for the signed-in learner.
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

type attemptRequest struct {
	QuizID string `json:"quiz_id"`
	Score  int    `json:"score"`
	Total  int    `json:"total"`
}

// ServeRecord handles POST /quiz/attempts.
func (h *Handler) ServeRecord(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}

	var req attemptRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.QuizID == "" || req.Total <= 0 || req.Score < 0 || req.Score > req.Total {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "quiz_id, score, and total are required; score must be within total")
		return
	}

	var orgID *primitive.ObjectID
	if u.OrganizationID != "" {
		if oid, err := primitive.ObjectIDFromHex(u.OrganizationID); err == nil {
			orgID = &oid
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Attempts.Record(ctx, models.QuizAttempt{
		ProfileID:      oid,
		OrganizationID: orgID,
		QuizID:         req.QuizID,
		Score:          req.Score,
		Total:          req.Total,
	})
	if err != nil {
		h.Log.Error("quizzes: record attempt", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not record attempt")
		return
	}
	httpjson.Write(w, http.StatusCreated, a)
}
