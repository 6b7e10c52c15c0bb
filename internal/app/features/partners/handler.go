// internal/app/features/partners/handler.go

// Package partners is the client surface of the partnering workflow:
// submitting, withdrawing, and answering requests, the partner directory,
// the current formation, and the live notification socket.
package partners

import (
	"context"
	"net/http"

	"github.com/dalemusser/linguahub/internal/app/notify"
	groupstore "github.com/dalemusser/linguahub/internal/app/store/groups"
	profilestore "github.com/dalemusser/linguahub/internal/app/store/profiles"
	requeststore "github.com/dalemusser/linguahub/internal/app/store/requests"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/app/system/httpjson"
	"github.com/dalemusser/linguahub/internal/app/system/timeouts"
	"github.com/dalemusser/linguahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Requests *requeststore.Store
	Profiles *profilestore.Store
	Groups   *groupstore.Store
	Hub      *notify.Hub
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, hub *notify.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Requests: requeststore.New(db, hub, logger),
		Profiles: profilestore.New(db),
		Groups:   groupstore.New(db),
		Hub:      hub,
		Log:      logger,
	}
}

type submitRequest struct {
	ReceiverID string `json:"receiver_id"`
}

type respondRequest struct {
	Action string `json:"action"` // accept | decline
}

// ServeSubmit handles POST /partners/requests.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}

	var req submitRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid JSON body")
		return
	}
	receiverID, err := primitive.ObjectIDFromHex(req.ReceiverID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid receiver_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Requests.Submit(ctx, viewer, receiverID)
	if err == requeststore.ErrDuplicatePending {
		// Idempotent from the caller's view: hand back the pending id that
		// already covers this pair so the client reuses it.
		body := map[string]interface{}{
			"error":   httpjson.CodeDuplicatePending,
			"message": err.Error(),
		}
		if !created.ID.IsZero() {
			body["request_id"] = created.ID.Hex()
		}
		httpjson.Write(w, http.StatusConflict, body)
		return
	}
	if err != nil {
		h.writeRequestError(w, "submit", err)
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

// ServeWithdraw handles DELETE /partners/requests/{id}.
func (h *Handler) ServeWithdraw(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}
	requestID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid request id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Requests.Withdraw(ctx, requestID, viewer); err != nil {
		h.writeRequestError(w, "withdraw", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeRespond handles POST /partners/requests/{id}/respond.
func (h *Handler) ServeRespond(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}
	requestID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid request id")
		return
	}

	var req respondRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	switch req.Action {
	case "accept":
		g, err := h.Requests.Accept(ctx, requestID, viewer)
		if err != nil {
			h.writeRequestError(w, "accept", err)
			return
		}
		httpjson.Write(w, http.StatusOK, map[string]interface{}{
			"status": models.RequestAccepted,
			"group":  g,
		})
	case "decline":
		if err := h.Requests.Decline(ctx, requestID, viewer); err != nil {
			h.writeRequestError(w, "decline", err)
			return
		}
		httpjson.Write(w, http.StatusOK, map[string]interface{}{
			"status": models.RequestDeclined,
		})
	default:
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, `action must be "accept" or "decline"`)
	}
}

// ServeIncoming handles GET /partners/requests/incoming: the catch-up
// fetch behind the notification panel.
func (h *Handler) ServeIncoming(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Requests.PendingIncoming(ctx, viewer)
	if err != nil {
		h.Log.Error("partners: list incoming", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load requests")
		return
	}
	if items == nil {
		items = []requeststore.IncomingItem{}
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"requests": items})
}

// ServeSent handles GET /partners/requests/sent.
func (h *Handler) ServeSent(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Requests.Sent(ctx, viewer)
	if err != nil {
		h.Log.Error("partners: list sent", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load requests")
		return
	}
	if items == nil {
		items = []requeststore.SentItem{}
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"requests": items})
}

// writeRequestError maps the ledger's sentinel errors onto the envelope.
func (h *Handler) writeRequestError(w http.ResponseWriter, op string, err error) {
	switch err {
	case requeststore.ErrSelfRequest:
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeSelfRequest, err.Error())
	case requeststore.ErrDuplicatePending:
		httpjson.Error(w, http.StatusConflict, httpjson.CodeDuplicatePending, err.Error())
	case requeststore.ErrGroupFull:
		httpjson.Error(w, http.StatusConflict, httpjson.CodeGroupFull, err.Error())
	case requeststore.ErrNotPending:
		httpjson.Error(w, http.StatusConflict, httpjson.CodeNotPending, err.Error())
	case requeststore.ErrNotOwner:
		httpjson.Error(w, http.StatusForbidden, httpjson.CodeNotOwner, err.Error())
	case requeststore.ErrNotReceiver:
		httpjson.Error(w, http.StatusForbidden, httpjson.CodeNotReceiver, err.Error())
	case requeststore.ErrAlreadyGrouped:
		httpjson.Error(w, http.StatusConflict, httpjson.CodeAlreadyGrouped, err.Error())
	case mongo.ErrNoDocuments:
		// Profile lookups; missing requests surface as ErrNotPending.
		httpjson.Error(w, http.StatusNotFound, httpjson.CodeNotFound, "not found")
	default:
		h.Log.Error("partners: "+op, zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "something went wrong")
	}
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
