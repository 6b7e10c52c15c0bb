// internal/app/features/partners/directory.go
package partners

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/app/system/capacity"
	"github.com/dalemusser/linguahub/internal/app/system/httpjson"
	"github.com/dalemusser/linguahub/internal/app/system/paging"
	"github.com/dalemusser/linguahub/internal/app/system/timeouts"
	"github.com/dalemusser/linguahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const directoryLimit = 200

// directoryEntry is one learner in the partner directory, annotated with
// what the viewer can do about them.
type directoryEntry struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	LastOnline time.Time `json:"last_online"`
	InGroup    bool      `json:"in_group"`
	Pending    bool      `json:"pending"` // a pending request exists in either direction
	CanInvite  bool      `json:"can_invite"`
}

// ServeDirectory handles GET /partners/directory: the viewer's org
// members, most recently online first, with invite availability.
func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}
	viewerID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}
	orgID, err := primitive.ObjectIDFromHex(u.OrganizationID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "join an organization to browse partners")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	viewer, err := h.Profiles.GetByID(ctx, viewerID)
	if err != nil {
		h.Log.Error("partners: load viewer", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load directory")
		return
	}

	// When the viewer already has a formation, invites only make sense
	// while it has room.
	viewerGroupOpen := true
	if viewer.GroupID != nil {
		n, err := h.Groups.MemberCount(ctx, *viewer.GroupID)
		if err != nil {
			h.Log.Error("partners: viewer group count", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load directory")
			return
		}
		viewerGroupOpen = capacity.Fits(n, 1)
	}

	// Two orderings: the default presence view, and an alphabetical view
	// with keyset cursors for browsing large orgs page by page.
	before, after := paging.ParseCursors(r)
	if r.URL.Query().Get("order") == "name" || before != "" || after != "" {
		h.serveDirectoryByName(ctx, w, viewer, viewerGroupOpen, orgID, before, after)
		return
	}

	members, err := h.Profiles.ListByOrganization(ctx, orgID, directoryLimit)
	if err != nil {
		h.Log.Error("partners: list org members", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load directory")
		return
	}

	entries, err := h.buildEntries(ctx, viewer, viewerGroupOpen, members)
	if err != nil {
		h.Log.Error("partners: build directory", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load directory")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"partners": entries})
}

type directoryPage struct {
	Partners []directoryEntry `json:"partners"`
	HasPrev  bool             `json:"has_prev"`
	HasNext  bool             `json:"has_next"`
	Prev     string           `json:"prev,omitempty"`
	Next     string           `json:"next,omitempty"`
}

func (h *Handler) serveDirectoryByName(ctx context.Context, w http.ResponseWriter, viewer *models.Profile, viewerGroupOpen bool, orgID primitive.ObjectID, before, after string) {
	cfg := paging.ConfigureKeyset(before, after)
	members, err := h.Profiles.PageByName(ctx, orgID, cfg)
	if err != nil {
		h.Log.Error("partners: page org members", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load directory")
		return
	}

	res := paging.TrimPage(&members, before, after)
	if cfg.Direction == paging.Backward {
		paging.Reverse(members)
	}

	entries, err := h.buildEntries(ctx, viewer, viewerGroupOpen, members)
	if err != nil {
		h.Log.Error("partners: build directory", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load directory")
		return
	}

	prev, next := paging.BuildCursors(members,
		func(p models.Profile) string { return p.FullNameCI },
		func(p models.Profile) primitive.ObjectID { return p.ID })

	httpjson.Write(w, http.StatusOK, directoryPage{
		Partners: entries,
		HasPrev:  res.HasPrev,
		HasNext:  res.HasNext,
		Prev:     prev,
		Next:     next,
	})
}

func (h *Handler) buildEntries(ctx context.Context, viewer *models.Profile, viewerGroupOpen bool, members []models.Profile) ([]directoryEntry, error) {
	entries := make([]directoryEntry, 0, len(members))
	for _, m := range members {
		if m.ID == viewer.ID {
			continue
		}
		pending, err := h.Requests.HasPendingBetween(ctx, viewer.ID, m.ID)
		if err != nil {
			return nil, err
		}

		e := directoryEntry{
			ID:         m.ID.Hex(),
			FullName:   m.FullName,
			AvatarURL:  m.AvatarURL,
			Bio:        m.Bio,
			LastOnline: m.LastOnline,
			InGroup:    m.GroupID != nil,
			Pending:    pending,
		}
		e.CanInvite = !pending && viewerGroupOpen && h.canInvite(ctx, viewer, &m)
		entries = append(entries, e)
	}
	return entries, nil
}

// canInvite applies the same pre-flight rules Submit does, so the UI can
// grey out entries instead of collecting errors.
func (h *Handler) canInvite(ctx context.Context, viewer, target *models.Profile) bool {
	if viewer.GroupID != nil && target.GroupID != nil {
		return false
	}
	if target.GroupID != nil {
		ok, err := capacity.CanAdmit(ctx, h.DB, *target.GroupID, 1)
		if err != nil {
			return err == mongo.ErrNoDocuments
		}
		return ok
	}
	return true
}

// groupMember is one member of the viewer's formation.
type groupMember struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	LastOnline time.Time `json:"last_online"`
}

// ServeGroup handles GET /partners/group: the viewer's current formation
// with its members. An ungrouped viewer gets {"group": null}.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	viewer, err := h.Profiles.GetByID(ctx, viewerID)
	if err != nil {
		h.Log.Error("partners: load viewer", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load formation")
		return
	}
	if viewer.GroupID == nil {
		httpjson.Write(w, http.StatusOK, map[string]interface{}{"group": nil, "members": []groupMember{}})
		return
	}

	g, err := h.Groups.GetByID(ctx, *viewer.GroupID)
	if err != nil {
		h.Log.Error("partners: load group", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load formation")
		return
	}
	profiles, err := h.Profiles.ListByGroup(ctx, g.ID)
	if err != nil {
		h.Log.Error("partners: load group members", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load formation")
		return
	}

	members := make([]groupMember, 0, len(profiles))
	for _, p := range profiles {
		members = append(members, groupMember{
			ID:         p.ID.Hex(),
			FullName:   p.FullName,
			AvatarURL:  p.AvatarURL,
			LastOnline: p.LastOnline,
		})
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"group": g, "members": members})
}
