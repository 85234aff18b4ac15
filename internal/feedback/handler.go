package feedback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"elearning-backend/internal/auth"
	"elearning-backend/internal/httpx"
	"elearning-backend/internal/listing"
	"elearning-backend/internal/middleware"
	"elearning-backend/internal/transport"
	"elearning-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	log     *slog.Logger
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, _, err := httpx.ParseLimitOffset(r.URL.Query(), 0, 100)
	if err != nil {
		log.Warn("feedback public list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListPublic(ctx, limit)
	if err != nil {
		h.fail(w, log, "feedback public list", err)
		return
	}

	log.Info("feedback public list: ok", slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

func (h *Handler) PublicSearch(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	term := strings.TrimSpace(r.URL.Query().Get("q"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.Search(ctx, term)
	if err != nil {
		h.fail(w, log, "feedback search", err)
		return
	}

	log.Info("feedback search: ok", slog.String("term", term), slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

// CourseFeedback never fails on store errors; see Service.ListForCourse.
func (h *Handler) CourseFeedback(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	courseID := strings.TrimSpace(chi.URLParam(r, "id"))
	if courseID == "" {
		log.Warn("course feedback: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items := h.service.ListForCourse(ctx, courseID, StatusApproved)
	log.Info("course feedback: ok", slog.String("course_id", courseID), slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

func (h *Handler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("feedback helpful: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.MarkHelpful(ctx, id); err != nil {
		h.fail(w, log, "feedback helpful", err)
		return
	}

	log.Info("feedback helpful: ok", slog.String("feedback_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UserCreate takes identity from the authenticated user; body identity
// fields only fill what the token does not carry.
func (h *Handler) UserCreate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("feedback create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		req.UserID = user.ID
		if user.Email != "" {
			req.UserEmail = user.Email
		}
		if strings.TrimSpace(req.UserName) == "" {
			req.UserName = user.DisplayName()
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	id, err := h.service.Create(ctx, req)
	if err != nil {
		h.fail(w, log, "feedback create", err)
		return
	}

	log.Info("feedback create: ok", slog.String("feedback_id", id))
	transport.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin feedback list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, ListFilter{Status: r.URL.Query().Get("status")})
	if err != nil {
		h.fail(w, log, "admin feedback list", err)
		return
	}

	page := listing.Page(items, limit, offset)
	log.Info("admin feedback list: ok", slog.Int("count", len(page)))
	transport.WriteItems(w, page, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
		"total":  len(items),
	})
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin feedback status: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req StatusUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin feedback status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	item, err := h.service.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		h.fail(w, log, "admin feedback status", err)
		return
	}

	log.Info("admin feedback status: ok", slog.String("feedback_id", id), slog.String("status", item.Status))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin feedback update: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin feedback update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	item, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.fail(w, log, "admin feedback update", err)
		return
	}

	log.Info("admin feedback update: ok", slog.String("feedback_id", id))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin feedback delete: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.fail(w, log, "admin feedback delete", err)
		return
	}

	log.Info("admin feedback delete: ok", slog.String("feedback_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AdminStream pushes the full feedback list on every change until the
// client disconnects.
func (h *Handler) AdminStream(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	log.Info("admin feedback stream: open")
	if err := transport.StreamSnapshots(w, r, "feedback", h.service.Watch); err != nil {
		log.Error("admin feedback stream: failed", slog.String("error", err.Error()))
		return
	}
	log.Info("admin feedback stream: closed")
}

func (h *Handler) fail(w http.ResponseWriter, log *slog.Logger, area string, err error) {
	if ve, ok := validation.IsValidation(err); ok {
		log.Warn(area + ": validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", ve.Fields)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidStatus):
		log.Warn(area + ": invalid status")
		transport.WriteError(w, http.StatusBadRequest, "invalid status", nil)
	case errors.Is(err, ErrNotFound):
		log.Warn(area + ": not found")
		transport.WriteError(w, http.StatusNotFound, "feedback not found", nil)
	default:
		log.Error(area+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
