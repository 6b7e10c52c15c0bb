// internal/app/features/lessons/handler.go

// Package lessons serves the curriculum catalog and the signed-in learner's
// completion marks.
package lessons

import (
	"context"
	"net/http"

	lessonstore "github.com/dalemusser/linguahub/internal/app/store/lessons"
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"github.com/dalemusser/linguahub/internal/app/system/httpjson"
	"github.com/dalemusser/linguahub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Lessons *lessonstore.Store
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Lessons: lessonstore.New(db),
		Log:     logger,
	}
}

// ServeCatalog handles GET /lessons: the full curriculum grouped into
// modules, each lesson flagged with the viewer's completion state.
func (h *Handler) ServeCatalog(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	modules, progress, err := h.Lessons.Catalog(ctx, viewer)
	if err != nil {
		h.Log.Error("lessons: load catalog", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load lessons")
		return
	}
	if modules == nil {
		modules = []lessonstore.Module{}
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"modules":  modules,
		"progress": progress,
	})
}

// ServeGet handles GET /lessons/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}
	lessonID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid lesson id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	lesson, err := h.Lessons.GetByID(ctx, lessonID)
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, httpjson.CodeNotFound, "lesson not found")
		return
	}
	if err != nil {
		h.Log.Error("lessons: load lesson", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load lesson")
		return
	}
	completed, err := h.Lessons.Completed(ctx, viewer, lessonID)
	if err != nil {
		h.Log.Error("lessons: load completion", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not load lesson")
		return
	}
	httpjson.Write(w, http.StatusOK, lessonstore.LessonItem{Lesson: *lesson, Completed: completed})
}

// ServeComplete handles POST /lessons/{id}/complete. Completing a lesson
// twice is a no-op; the response always carries the refreshed counts.
func (h *Handler) ServeComplete(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentProfileID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, httpjson.CodeUnauthorized, "sign in required")
		return
	}
	lessonID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.CodeInvalidRequest, "invalid lesson id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Lessons.MarkComplete(ctx, viewer, lessonID); err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, httpjson.CodeNotFound, "lesson not found")
		return
	} else if err != nil {
		h.Log.Error("lessons: mark complete", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not record progress")
		return
	}

	progress, err := h.Lessons.Progress(ctx, viewer)
	if err != nil {
		h.Log.Error("lessons: load progress", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, httpjson.CodeServerError, "could not record progress")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"progress": progress})
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
