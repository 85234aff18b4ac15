package notifications

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"elearning-backend/internal/auth"
	"elearning-backend/internal/httpx"
	"elearning-backend/internal/middleware"
	"elearning-backend/internal/transport"

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

func (h *Handler) UserList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	limit, _, err := httpx.ParseLimitOffset(r.URL.Query(), 0, 100)
	if err != nil {
		log.Warn("notifications list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListForUser(ctx, user.ID, limit)
	if err != nil {
		log.Error("notifications list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("notifications list: ok", slog.String("user_id", user.ID), slog.Int("count", len(items)))
	transport.WriteItems(w, items, map[string]interface{}{"unread": UnreadCount(items)})
}

func (h *Handler) UserMarkRead(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("notifications read: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.MarkRead(ctx, user.ID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("notifications read: not found", slog.String("notification_id", id))
			transport.WriteError(w, http.StatusNotFound, "notification not found", nil)
			return
		}
		log.Error("notifications read: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("notifications read: ok", slog.String("notification_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
