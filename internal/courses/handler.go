package courses

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

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
		log.Warn("courses public list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	filter := ListFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Audience: strings.TrimSpace(r.URL.Query().Get("audience")),
		Limit:    limit,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListWithCategoryNames(ctx, filter)
	if err != nil {
		h.fail(w, log, "courses public list", err)
		return
	}

	log.Info("courses public list: ok", slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

func (h *Handler) PublicSearch(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	term := strings.TrimSpace(r.URL.Query().Get("q"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.Search(ctx, term)
	if err != nil {
		h.fail(w, log, "courses search", err)
		return
	}

	log.Info("courses search: ok", slog.String("term", term), slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

func (h *Handler) PublicGet(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("courses get: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(w, log, "courses get", err)
		return
	}

	log.Info("courses get: ok", slog.String("course_id", id))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) PublicCategories(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListCategories(ctx)
	if err != nil {
		h.fail(w, log, "categories list", err)
		return
	}

	log.Info("categories list: ok", slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin courses list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	filter := ListFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Audience: strings.TrimSpace(r.URL.Query().Get("audience")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.ListWithCategoryNames(ctx, filter)
	if err != nil {
		h.fail(w, log, "admin courses list", err)
		return
	}

	page := listing.Page(items, limit, offset)
	log.Info("admin courses list: ok", slog.Int("count", len(page)))
	transport.WriteItems(w, page, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
		"total":  len(items),
	})
}

func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin courses create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	id, err := h.service.Create(ctx, req)
	if err != nil {
		h.fail(w, log, "admin courses create", err)
		return
	}

	log.Info("admin courses create: ok", slog.String("course_id", id))
	transport.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin courses update: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin courses update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	item, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.fail(w, log, "admin courses update", err)
		return
	}

	log.Info("admin courses update: ok", slog.String("course_id", id))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin courses delete: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.fail(w, log, "admin courses delete", err)
		return
	}

	log.Info("admin courses delete: ok", slog.String("course_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AdminFindOrCreateCategory is the first half of the "add course with a new
// category" flow; the client then posts the course with the returned id.
func (h *Handler) AdminFindOrCreateCategory(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CategoryRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin categories create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	category, created, err := h.service.FindOrCreateCategory(ctx, req.Name)
	if err != nil {
		h.fail(w, log, "admin categories create", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	log.Info("admin categories create: ok", slog.String("category_id", category.ID), slog.Bool("created", created))
	transport.WriteJSON(w, status, category)
}

func (h *Handler) fail(w http.ResponseWriter, log *slog.Logger, area string, err error) {
	if ve, ok := validation.IsValidation(err); ok {
		log.Warn(area + ": validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", ve.Fields)
		return
	}
	if errors.Is(err, ErrNotFound) {
		log.Warn(area + ": not found")
		transport.WriteError(w, http.StatusNotFound, "course not found", nil)
		return
	}
	log.Error(area+": database error", slog.String("error", err.Error()))
	transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
