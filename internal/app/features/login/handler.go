// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"strings"
	"time"

	orgstore "github.com/dalemusser/linguahub/internal/app/store/organizations"
	profilestore "github.com/dalemusser/linguahub/internal/app/store/profiles"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/linguahub/internal/app/system/httpjson"
	"github.com/dalemusser/linguahub/internal/app/system/ratelimit"
	"github.com/dalemusser/linguahub/internal/app/system/status"
	"github.com/dalemusser/linguahub/internal/app/system/timeouts"
	"github.com/dalemusser/linguahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves account registration and session endpoints.
type Handler struct {
	Profiles   *profilestore.Store
	Orgs       *orgstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles:   profilestore.New(db),
		Orgs:       orgstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    ratelimit.NewLoginLimiter(),
		Log:        logger,
	}
}

type registerRequest struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	OrganizationID string `json:"organization_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeRegister handles POST /auth/register.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid JSON body")
		return
	}
	if allowed, reason := h.Limiter.Check(r, ""); !allowed {
		httpjson.Error(w, http.StatusTooManyRequests, httpjson.CodeRateLimited, reason)
		return
	}
	req.FullName = htmlsanitize.StripTags(req.FullName)
	if req.FullName == "" || !strings.Contains(req.Email, "@") {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "full_name and a valid email are required")
		return
	}
	if len(req.Password) < 8 {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "password must be at least 8 characters")
		return
	}

	var orgID *primitive.ObjectID
	if req.OrganizationID != "" {
		oid, err := primitive.ObjectIDFromHex(req.OrganizationID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid organization_id")
			return
		}
		orgID = &oid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("register: hash password", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not create account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if orgID != nil {
		if _, err := h.Orgs.GetByID(ctx, *orgID); err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "unknown organization_id")
			return
		} else if err != nil {
			h.Log.Error("register: lookup organization", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not create account")
			return
		}
	}

	p, err := h.Profiles.Create(ctx, models.Profile{
		FullName:       req.FullName,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Role:           "student",
		Status:         status.Active,
		OrganizationID: orgID,
		LastOnline:     time.Now().UTC(),
	})
	if err == profilestore.ErrDuplicateEmail {
		httpjson.Error(w, http.StatusConflict, httpjson.CodeInvalidRequest, "an account with this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("register: create profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not create account")
		return
	}

	if err := h.signIn(w, r, &p); err != nil {
		h.Log.Error("register: sign in", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "account created but sign-in failed")
		return
	}
	httpjson.Write(w, http.StatusCreated, p)
}

// ServeLogin handles POST /auth/login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid JSON body")
		return
	}
	if allowed, reason := h.Limiter.Check(r, req.Email); !allowed {
		httpjson.Error(w, http.StatusTooManyRequests, httpjson.CodeRateLimited, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByEmail(ctx, req.Email)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "incorrect email or password")
		return
	}
	if err != nil {
		h.Log.Error("login: lookup profile", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not sign in")
		return
	}
	if p.Status != "" && p.Status != status.Active {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "this account is disabled")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)) != nil {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "incorrect email or password")
		return
	}

	if err := h.signIn(w, r, p); err != nil {
		h.Log.Error("login: sign in", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not sign in")
		return
	}
	h.Limiter.ResetEmail(req.Email)
	httpjson.Write(w, http.StatusOK, p)
}

// ServeOrgs handles GET /auth/orgs. It backs the organization picker on
// the registration form, so it is reachable without a session.
func (h *Handler) ServeOrgs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	orgs, err := h.Orgs.ListActive(ctx)
	if err != nil {
		h.Log.Error("orgs: list", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load organizations")
		return
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"organizations": orgs})
}

// ServeLogout handles POST /auth/logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("logout: clear session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, p *models.Profile) error {
	u := &auth.SessionUser{
		ID:    p.ID.Hex(),
		Name:  p.FullName,
		Email: p.Email,
		Role:  p.Role,
	}
	if p.OrganizationID != nil {
		u.OrganizationID = p.OrganizationID.Hex()
	}
	return h.SessionMgr.SignIn(w, r, u)
}
