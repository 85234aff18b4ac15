package blogs

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

// PublicList serves published posts, optionally for one category.
func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, _, err := httpx.ParseLimitOffset(r.URL.Query(), 0, 100)
	if err != nil {
		log.Warn("blogs public list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var items []Post
	if category != "" {
		items = h.service.ListPublishedByCategory(ctx, category, limit)
	} else {
		items, err = h.service.ListPublished(ctx, limit)
		if err != nil {
			h.fail(w, log, "blogs public list", err)
			return
		}
	}

	log.Info("blogs public list: ok", slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

func (h *Handler) PublicFeatured(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, _, err := httpx.ParseLimitOffset(r.URL.Query(), 3, 20)
	if err != nil {
		log.Warn("blogs featured: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items := h.service.ListFeatured(ctx, limit)
	log.Info("blogs featured: ok", slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

func (h *Handler) PublicEvents(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, _, err := httpx.ParseLimitOffset(r.URL.Query(), 0, 50)
	if err != nil {
		log.Warn("blogs events: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListUpcomingEvents(ctx, limit)
	if err != nil {
		h.fail(w, log, "blogs events", err)
		return
	}

	log.Info("blogs events: ok", slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

func (h *Handler) PublicSearch(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	term := strings.TrimSpace(r.URL.Query().Get("q"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.Search(ctx, term)
	if err != nil {
		h.fail(w, log, "blogs search", err)
		return
	}

	log.Info("blogs search: ok", slog.String("term", term), slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

// PublicGet resolves a published post by slug and counts the view. A failed
// view increment does not fail the read.
func (h *Handler) PublicGet(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		log.Warn("blogs get: missing slug")
		transport.WriteError(w, http.StatusBadRequest, "missing slug", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	post, err := h.service.GetBySlug(ctx, slug)
	if err == nil && post.Status != StatusPublished {
		err = ErrNotFound
	}
	if err != nil {
		h.fail(w, log, "blogs get", err)
		return
	}

	if err := h.service.IncrementViews(ctx, post.ID); err != nil {
		log.Warn("blogs get: view count failed", slog.String("post_id", post.ID), slog.String("error", err.Error()))
	} else {
		post.Views++
	}

	log.Info("blogs get: ok", slog.String("post_id", post.ID))
	transport.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) PublicLike(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("blogs like: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Like(ctx, id); err != nil {
		h.fail(w, log, "blogs like", err)
		return
	}

	log.Info("blogs like: ok", slog.String("post_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin blogs list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	filter := ListFilter{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, filter)
	if err != nil {
		h.fail(w, log, "admin blogs list", err)
		return
	}

	page := listing.Page(items, limit, offset)
	log.Info("admin blogs list: ok", slog.Int("count", len(page)))
	transport.WriteItems(w, page, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
		"total":  len(items),
	})
}

func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	post, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(w, log, "admin blogs get", err)
		return
	}

	log.Info("admin blogs get: ok", slog.String("post_id", id))
	transport.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin blogs create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	id, err := h.service.Create(ctx, req)
	if err != nil {
		h.fail(w, log, "admin blogs create", err)
		return
	}

	log.Info("admin blogs create: ok", slog.String("post_id", id))
	transport.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin blogs update: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin blogs update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	post, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.fail(w, log, "admin blogs update", err)
		return
	}

	log.Info("admin blogs update: ok", slog.String("post_id", id))
	transport.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin blogs delete: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.fail(w, log, "admin blogs delete", err)
		return
	}

	log.Info("admin blogs delete: ok", slog.String("post_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
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
		transport.WriteError(w, http.StatusNotFound, "blog post not found", nil)
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
