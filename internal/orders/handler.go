package orders

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

func (h *Handler) UserCreate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("orders create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.UserID = user.ID

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	id, err := h.service.Create(ctx, req)
	if err != nil {
		h.fail(w, log, "orders create", err)
		return
	}

	log.Info("orders create: ok", slog.String("order_id", id), slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) UserList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.ListForUser(ctx, user.ID)
	if err != nil {
		h.fail(w, log, "orders user list", err)
		return
	}

	log.Info("orders user list: ok", slog.String("user_id", user.ID), slog.Int("count", len(items)))
	transport.WriteItems(w, items, nil)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin orders list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, ListFilter{Status: r.URL.Query().Get("status")})
	if err != nil {
		h.fail(w, log, "admin orders list", err)
		return
	}

	page := listing.Page(items, limit, offset)
	log.Info("admin orders list: ok", slog.Int("count", len(page)))
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

	order, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(w, log, "admin orders get", err)
		return
	}

	log.Info("admin orders get: ok", slog.String("order_id", id))
	transport.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin orders status: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req StatusUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin orders status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	order, err := h.service.UpdateStatus(ctx, id, req.Status)
	if errors.Is(err, ErrNotificationFailed) {
		log.Error("admin orders status: notification failed", slog.String("order_id", id), slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "order updated but notification failed", map[string]string{
			"orderId": order.ID,
			"status":  order.Status,
		})
		return
	}
	if err != nil {
		h.fail(w, log, "admin orders status", err)
		return
	}

	log.Info("admin orders status: ok", slog.String("order_id", id), slog.String("status", order.Status))
	transport.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin orders delete: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.fail(w, log, "admin orders delete", err)
		return
	}

	log.Info("admin orders delete: ok", slog.String("order_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AdminStream pushes the full order list on every change until the client
// disconnects.
func (h *Handler) AdminStream(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	log.Info("admin orders stream: open")
	if err := transport.StreamSnapshots(w, r, "orders", h.service.Watch); err != nil {
		log.Error("admin orders stream: failed", slog.String("error", err.Error()))
		return
	}
	log.Info("admin orders stream: closed")
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
		transport.WriteError(w, http.StatusNotFound, "order not found", nil)
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
