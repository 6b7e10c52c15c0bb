// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"net/http"

	attemptstore "github.com/dalemusser/linguahub/internal/app/store/attempts"
	profilestore "github.com/dalemusser/linguahub/internal/app/store/profiles"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/linguahub/internal/app/system/httpjson"
	"github.com/dalemusser/linguahub/internal/app/system/timeouts"
	"github.com/dalemusser/linguahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in learner's own profile.
type Handler struct {
	Profiles *profilestore.Store
	Attempts *attemptstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profilestore.New(db),
		Attempts: attemptstore.New(db),
		Log:      logger,
	}
}

type profileResponse struct {
	models.Profile
	QuizStats attemptstore.ProfileStats `json:"quiz_stats"`
}

type updateRequest struct {
	FullName  string `json:"full_name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

// ServeGet handles GET /profile.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	oid, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, httpjson.CodeNotFound, "profile not found")
		return
	}
	if err != nil {
		h.Log.Error("profile: load", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load profile")
		return
	}

	stats, err := h.Attempts.StatsForProfile(ctx, oid)
	if err != nil {
		h.Log.Warn("profile: quiz stats", zap.Error(err))
	}
	httpjson.Write(w, http.StatusOK, profileResponse{Profile: *p, QuizStats: stats})
}

// ServeUpdate handles PUT /profile. Bio HTML is sanitized; the display
// name is stripped to plain text.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	oid, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}

	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Profiles.UpdateInfo(ctx, oid,
		htmlsanitize.StripTags(req.FullName),
		htmlsanitize.Sanitize(req.Bio),
		req.AvatarURL,
	)
	if err != nil {
		h.Log.Error("profile: update", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not update profile")
		return
	}

	p, err := h.Profiles.GetByID(ctx, oid)
	if err != nil {
		h.Log.Error("profile: reload after update", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load profile")
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

func currentProfileID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}
